// Package ufs ties the filesystem core together behind a single FileSystem
// type: opening an image, formatting a fresh one, and wrapping every
// mutating operation in a block device transaction so it either fully
// applies or leaves the image untouched.
//
// FileSystem is not reentrant and not safe for concurrent use; callers must
// serialize their own access to it.
package ufs

import (
	"bytes"
	"io"

	"github.com/xydxydxyd1/ufs/blockdev"
	"github.com/xydxydxyd1/ufs/datareg"
	"github.com/xydxydxyd1/ufs/directory"
	"github.com/xydxydxyd1/ufs/filecore"
	"github.com/xydxydxyd1/ufs/inode"
	"github.com/xydxydxyd1/ufs/layout"
)

// FileSystem is an open filesystem image: a block device plus the parsed
// super block and the inode table / data region it governs.
type FileSystem struct {
	dev    *blockdev.Device
	super  layout.SuperBlock
	table  *inode.Table
	region *datareg.Region
}

// Open reads the super block from block 0 of stream and loads the inode
// table and data region it describes. stream must already hold a formatted
// image; use Format to create one.
func Open(stream io.ReadWriteSeeker, blockSize, totalBlocks uint) (*FileSystem, error) {
	dev, err := blockdev.Open(stream, blockSize, totalBlocks)
	if err != nil {
		return nil, err
	}

	block0 := make([]byte, blockSize)
	if err := dev.ReadBlock(0, block0); err != nil {
		return nil, err
	}
	super, err := layout.Decode(bytes.NewReader(block0))
	if err != nil {
		return nil, err
	}
	if err := super.ValidateWithRecordSize(inode.RecordSize); err != nil {
		return nil, err
	}

	return openWithSuper(dev, super)
}

func openWithSuper(dev *blockdev.Device, super layout.SuperBlock) (*FileSystem, error) {
	table, err := inode.Open(dev, &super)
	if err != nil {
		return nil, err
	}
	region, err := datareg.Open(dev, &super)
	if err != nil {
		return nil, err
	}
	return &FileSystem{dev: dev, super: super, table: table, region: region}, nil
}

// Super returns a copy of the filesystem's super block.
func (fs *FileSystem) Super() layout.SuperBlock {
	return fs.super
}

// Table returns the inode table, for callers (ufsbits) that need to inspect
// it directly.
func (fs *FileSystem) Table() *inode.Table {
	return fs.table
}

// Region returns the data region, for callers (ufsbits) that need to
// inspect it directly.
func (fs *FileSystem) Region() *datareg.Region {
	return fs.region
}

// withTransaction runs fn inside a block device transaction: the
// transaction commits if fn returns nil, and rolls back (returning fn's
// error, not the rollback's) otherwise. Every mutating FileSystem method
// goes through this so a partially applied operation never reaches disk.
//
// A rollback restores the on-disk bitmap bytes, but fn may have already
// mutated the in-memory inode/data bitmaps (e.g. Table.Allocate marks a
// bit before the enclosing operation fails later). Without reloading both
// from the just-restored disk state, the allocator would keep treating a
// bit as taken that's free again on disk -- so every rollback reloads
// them.
func (fs *FileSystem) withTransaction(fn func() error) error {
	if err := fs.dev.Begin(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rbErr := fs.dev.Rollback(); rbErr != nil {
			return rbErr
		}
		if reloadErr := fs.table.Reload(); reloadErr != nil {
			return reloadErr
		}
		if reloadErr := fs.region.Reload(); reloadErr != nil {
			return reloadErr
		}
		return err
	}
	return fs.dev.Commit()
}

// Stat returns the inode record for inum.
func (fs *FileSystem) Stat(inum uint32) (inode.Inode, error) {
	return filecore.Stat(fs.table, inum)
}

// Read reads size bytes from the start of inum's content into buf.
func (fs *FileSystem) Read(inum uint32, buf []byte, size int) error {
	return filecore.Read(fs.table, fs.region, inum, buf, size)
}

// Write replaces inum's content with buf[0:size], resizing the file to
// size bytes. It runs inside its own transaction, but a short write (data
// region exhaustion partway through growing the file) is not treated as a
// failure: the content written so far and the inode's reduced size commit
// as-is, and Write returns the number of bytes actually written with a nil
// error, matching short-write semantics (io.Writer's convention, and
// classic POSIX write(2)). Any other error rolls the whole call back, so
// the file's size and contents are left exactly as they were.
func (fs *FileSystem) Write(inum uint32, buf []byte, size int) (int, error) {
	var written int
	err := fs.withTransaction(func() error {
		var werr error
		written, werr = filecore.Write(fs.table, fs.region, inum, buf, size)
		return werr
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// Lookup returns the inode number of name inside the directory parentInum.
func (fs *FileSystem) Lookup(parentInum uint32, name string) (uint32, error) {
	return directory.Lookup(fs.table, fs.region, parentInum, name)
}

// Create adds name to the directory parentInum as a new inode of type typ,
// or returns the existing inode if one by that name and type already
// exists.
func (fs *FileSystem) Create(parentInum uint32, typ inode.Type, name string) (uint32, error) {
	var newInum uint32
	err := fs.withTransaction(func() error {
		var cerr error
		newInum, cerr = directory.Create(fs.table, fs.region, parentInum, typ, name)
		return cerr
	})
	if err != nil {
		return 0, err
	}
	return newInum, nil
}

// Unlink removes name from the directory parentInum.
func (fs *FileSystem) Unlink(parentInum uint32, name string) error {
	return fs.withTransaction(func() error {
		return directory.Unlink(fs.table, fs.region, parentInum, name)
	})
}

// ResolvePath walks an absolute slash-separated path down from the root
// directory and returns the inode number it names.
func (fs *FileSystem) ResolvePath(path string) (uint32, error) {
	return directory.ResolvePath(fs.table, fs.region, path)
}
