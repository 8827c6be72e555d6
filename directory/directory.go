// Package directory implements directory contents on top of filecore:
// looking up, creating, and removing named entries, and resolving a
// slash-separated path down to an inode number.
package directory

import (
	"errors"
	"strings"

	"github.com/xydxydxyd1/ufs/datareg"
	"github.com/xydxydxyd1/ufs/dirent"
	"github.com/xydxydxyd1/ufs/filecore"
	"github.com/xydxydxyd1/ufs/inode"
	"github.com/xydxydxyd1/ufs/layout"
	"github.com/xydxydxyd1/ufs/ufserrors"
)

// RootInum is the inode number of the filesystem root directory, always
// allocated first by Format.
const RootInum uint32 = 0

func readEntries(table *inode.Table, region *datareg.Region, parentInum uint32) ([]dirent.Entry, inode.Inode, error) {
	in, err := filecore.Stat(table, parentInum)
	if err != nil {
		return nil, inode.Inode{}, err
	}
	if in.Type != inode.Directory {
		return nil, inode.Inode{}, ufserrors.ErrInvalidInode
	}

	buf := make([]byte, in.Size)
	if err := filecore.Read(table, region, parentInum, buf, int(in.Size)); err != nil {
		return nil, inode.Inode{}, err
	}

	count := len(buf) / dirent.RecordSize
	entries := make([]dirent.Entry, count)
	for i := 0; i < count; i++ {
		entries[i] = dirent.Decode(buf[i*dirent.RecordSize : (i+1)*dirent.RecordSize])
	}
	return entries, in, nil
}

func writeEntries(table *inode.Table, region *datareg.Region, parentInum uint32, entries []dirent.Entry) error {
	buf := make([]byte, len(entries)*dirent.RecordSize)
	for i, e := range entries {
		copy(buf[i*dirent.RecordSize:], dirent.Encode(e))
	}
	written, err := filecore.WriteDirectoryContents(table, region, parentInum, buf, len(buf))
	if err != nil {
		return err
	}
	if written != len(buf) {
		// A directory's own contents never grow block-by-block across a
		// short write: the caller already holds every block it needs, or
		// the enclosing transaction rolls the whole operation back.
		return ufserrors.ErrOutOfSpace
	}
	return nil
}

func validateName(name string) error {
	if len(name) == 0 || len(name) >= layout.MaxNameLen {
		return ufserrors.ErrInvalidName
	}
	if strings.IndexByte(name, 0) >= 0 {
		return ufserrors.ErrInvalidName
	}
	return nil
}

// Lookup returns the inode number of the entry named name inside the
// directory parentInum.
func Lookup(table *inode.Table, region *datareg.Region, parentInum uint32, name string) (uint32, error) {
	entries, _, err := readEntries(table, region, parentInum)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e.Inum, nil
		}
	}
	return 0, ufserrors.ErrNotFound
}

// Create adds a name of the given type to the directory parentInum,
// allocating a fresh inode for it. If an entry named name already exists,
// Create is idempotent: it returns the existing inum when its type matches
// typ, and ufserrors.ErrInvalidInode when it doesn't. Callers run Create
// inside their own transaction; on any error the caller rolls back.
func Create(table *inode.Table, region *datareg.Region, parentInum uint32, typ inode.Type, name string) (uint32, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	parent, err := filecore.Stat(table, parentInum)
	if err != nil {
		return 0, err
	}
	if parent.Type != inode.Directory {
		return 0, ufserrors.ErrInvalidInode
	}

	existing, err := Lookup(table, region, parentInum, name)
	if err == nil {
		existingInode, serr := filecore.Stat(table, existing)
		if serr != nil {
			return 0, serr
		}
		if existingInode.Type == typ {
			return existing, nil
		}
		return 0, ufserrors.ErrInvalidInode
	}
	if !errors.Is(err, ufserrors.ErrNotFound) {
		return 0, err
	}

	newInum, err := table.Allocate()
	if err != nil {
		return 0, err
	}
	if err := table.WriteInode(newInum, inode.Inode{Type: typ}); err != nil {
		return 0, err
	}

	if typ == inode.Directory {
		self := []dirent.Entry{
			{Inum: newInum, Name: "."},
			{Inum: parentInum, Name: ".."},
		}
		if err := writeEntries(table, region, newInum, self); err != nil {
			return 0, err
		}
	}

	entries, _, err := readEntries(table, region, parentInum)
	if err != nil {
		return 0, err
	}
	entries = append(entries, dirent.Entry{Inum: newInum, Name: name})
	if err := writeEntries(table, region, parentInum, entries); err != nil {
		return 0, err
	}

	return newInum, nil
}

// Unlink removes name from the directory parentInum and frees its inode and
// blocks. Removing a name that doesn't exist is a no-op. Removing a
// directory that contains more than "." and ".." fails with
// ufserrors.ErrNotEmpty. "." and ".." themselves can never be unlinked.
func Unlink(table *inode.Table, region *datareg.Region, parentInum uint32, name string) error {
	if name == "." || name == ".." {
		return ufserrors.ErrInvalidName
	}

	entries, _, err := readEntries(table, region, parentInum)
	if err != nil {
		return err
	}

	idx := -1
	for i, e := range entries {
		if e.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	target := entries[idx]

	targetInode, err := filecore.Stat(table, target.Inum)
	if err != nil {
		return err
	}
	if targetInode.Type == inode.Directory && int(targetInode.Size) > 2*dirent.RecordSize {
		return ufserrors.ErrNotEmpty
	}

	var written int
	if targetInode.Type == inode.Directory {
		written, err = filecore.WriteDirectoryContents(table, region, target.Inum, nil, 0)
	} else {
		written, err = filecore.Write(table, region, target.Inum, nil, 0)
	}
	if err != nil {
		return err
	}
	if written != 0 {
		return ufserrors.ErrIOFailed
	}

	if err := table.Free(target.Inum); err != nil {
		return err
	}

	remaining := append(entries[:idx:idx], entries[idx+1:]...)
	return writeEntries(table, region, parentInum, remaining)
}

// ResolvePath walks a slash-separated absolute path down from the root
// directory and returns the inode number it names. A path must begin with
// "/"; an empty component (as in "//") is an error; a trailing slash
// requires the final component to be a directory.
func ResolvePath(table *inode.Table, region *datareg.Region, path string) (uint32, error) {
	if len(path) == 0 || path[0] != '/' {
		return 0, ufserrors.ErrInvalidName
	}
	if path == "/" {
		return RootInum, nil
	}

	current := RootInum
	var name strings.Builder
	for i := 1; i < len(path); i++ {
		if path[i] != '/' {
			name.WriteByte(path[i])
			continue
		}
		if name.Len() == 0 {
			return 0, ufserrors.ErrInvalidName
		}
		next, err := Lookup(table, region, current, name.String())
		if err != nil {
			return 0, err
		}
		current = next
		name.Reset()
	}

	trailingSlash := name.Len() == 0
	if !trailingSlash {
		next, err := Lookup(table, region, current, name.String())
		if err != nil {
			return 0, err
		}
		current = next
	}

	if trailingSlash {
		in, err := filecore.Stat(table, current)
		if err != nil {
			return 0, err
		}
		if in.Type != inode.Directory {
			return 0, ufserrors.ErrInvalidType
		}
	}

	return current, nil
}
