// Package dirent implements the fixed-size on-disk directory entry record:
// an inode number paired with a NUL-terminated name.
package dirent

import (
	"bytes"
	"encoding/binary"

	"github.com/xydxydxyd1/ufs/layout"
)

// RecordSize is the number of bytes a single directory entry occupies on
// disk: a 4-byte inode number followed by layout.MaxNameLen bytes of name.
const RecordSize = 4 + layout.MaxNameLen

// Entry is a single (inode number, name) pair.
type Entry struct {
	Inum uint32
	Name string
}

type rawEntry struct {
	Inum uint32
	Name [layout.MaxNameLen]byte
}

// Encode serializes e to exactly RecordSize bytes. name must fit, including
// its NUL terminator, in layout.MaxNameLen bytes; callers validate this
// before calling Encode.
func Encode(e Entry) []byte {
	var raw rawEntry
	raw.Inum = e.Inum
	copy(raw.Name[:], e.Name)

	buf := new(bytes.Buffer)
	buf.Grow(RecordSize)
	_ = binary.Write(buf, binary.LittleEndian, &raw)
	return buf.Bytes()
}

// Decode parses a record previously written by Encode.
func Decode(data []byte) Entry {
	var raw rawEntry
	_ = binary.Read(bytes.NewReader(data[:RecordSize]), binary.LittleEndian, &raw)

	nulAt := bytes.IndexByte(raw.Name[:], 0)
	if nulAt < 0 {
		nulAt = len(raw.Name)
	}
	return Entry{Inum: raw.Inum, Name: string(raw.Name[:nulAt])}
}
