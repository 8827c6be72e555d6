// Package inode defines the fixed-size on-disk inode record and the inode
// table: loading/storing individual records and allocating/freeing inode
// numbers against the inode bitmap.
package inode

import (
	"bytes"
	"encoding/binary"

	"github.com/xydxydxyd1/ufs/layout"
)

// Type identifies what kind of object an inode describes.
type Type int32

const (
	// Free is never written to disk for a live inode; it's the zero value
	// used for records that don't correspond to an allocated inode.
	Free Type = iota
	Regular
	Directory
)

// RecordSize is the number of bytes a single Inode occupies on disk:
// type (4 bytes) + size (4 bytes) + DirectPointers block numbers (4 bytes
// each), with no padding.
const RecordSize = 4 + 4 + layout.DirectPointers*4

// Inode is the fixed-size record describing one file or directory.
type Inode struct {
	Type   Type
	Size   int32
	Direct [layout.DirectPointers]int32
}

// NumBlocksUsed returns ceil(Size / BlockSize), the number of direct
// pointers currently valid.
func (n *Inode) NumBlocksUsed() int {
	if n.Size <= 0 {
		return 0
	}
	return int((int64(n.Size) + layout.BlockSize - 1) / layout.BlockSize)
}

// rawInode mirrors Inode's on-disk layout exactly; encoding/binary needs a
// fixed-size array field, which Inode already provides, so rawInode exists
// only to keep the public type's field names (Type, Size, Direct) readable
// while documenting that this is the literal wire format.
type rawInode struct {
	Type   int32
	Size   int32
	Direct [layout.DirectPointers]int32
}

// Encode serializes the inode to exactly RecordSize bytes, little-endian.
func Encode(n Inode) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(RecordSize)
	raw := rawInode{Type: int32(n.Type), Size: n.Size, Direct: n.Direct}
	// binary.Write on a fixed-size struct of fixed-size fields never fails.
	_ = binary.Write(buf, binary.LittleEndian, &raw)
	return buf.Bytes()
}

// Decode parses a record previously written by Encode. data must be at
// least RecordSize bytes.
func Decode(data []byte) Inode {
	var raw rawInode
	_ = binary.Read(bytes.NewReader(data[:RecordSize]), binary.LittleEndian, &raw)
	return Inode{Type: Type(raw.Type), Size: raw.Size, Direct: raw.Direct}
}
