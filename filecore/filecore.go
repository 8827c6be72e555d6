// Package filecore implements Stat, Read, and Write on inodes: the logic
// that translates a logical byte range into direct block pointers and
// allocate/free calls against the data region.
package filecore

import (
	"github.com/xydxydxyd1/ufs/datareg"
	"github.com/xydxydxyd1/ufs/inode"
	"github.com/xydxydxyd1/ufs/layout"
	"github.com/xydxydxyd1/ufs/ufserrors"
)

// Stat returns the inode record for inodeNumber.
func Stat(table *inode.Table, n uint32) (inode.Inode, error) {
	return table.ReadInode(n)
}

func ceilBlocks(size int) int {
	if size <= 0 {
		return 0
	}
	return (size + layout.BlockSize - 1) / layout.BlockSize
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Read reads exactly size bytes from the start of the file into buf. size
// must not exceed the inode's current size; a shorter read than the file's
// full size is legal.
func Read(table *inode.Table, region *datareg.Region, n uint32, buf []byte, size int) error {
	in, err := table.ReadInode(n)
	if err != nil {
		return err
	}
	if size > int(in.Size) {
		return ufserrors.ErrInvalidSize
	}

	blockBuf := make([]byte, layout.BlockSize)
	remaining := size
	offset := 0
	for i := 0; remaining > 0; i++ {
		if err := region.ReadDataBlock(in.Direct[i], blockBuf); err != nil {
			return err
		}
		chunk := min(layout.BlockSize, remaining)
		copy(buf[offset:offset+chunk], blockBuf[:chunk])
		offset += chunk
		remaining -= chunk
	}
	return nil
}

// Write truncates or extends the file to exactly size bytes and overwrites
// its content with buf[0:size]. It rejects directory inodes; use
// WriteDirectoryContents for those.
//
// On data-bitmap exhaustion while growing the file, Write short-writes:
// it returns the number of bytes actually written (which is what the inode's
// new size is set to) along with a nil error. Callers that need all-or-
// nothing semantics -- Directory does, for its own contents -- must detect
// a short write themselves (bytesWritten < size) and roll back the
// enclosing transaction.
func Write(table *inode.Table, region *datareg.Region, n uint32, buf []byte, size int) (int, error) {
	in, err := table.ReadInode(n)
	if err != nil {
		return 0, err
	}
	if in.Type == inode.Directory {
		return 0, ufserrors.ErrInvalidType
	}
	return writeContent(table, region, n, in, buf, size)
}

// WriteDirectoryContents is the internal helper Directory uses to write its
// own serialized entries. It is identical to Write except it's permitted to
// target a directory inode.
func WriteDirectoryContents(table *inode.Table, region *datareg.Region, n uint32, buf []byte, size int) (int, error) {
	in, err := table.ReadInode(n)
	if err != nil {
		return 0, err
	}
	if in.Type != inode.Directory {
		return 0, ufserrors.ErrInvalidType
	}
	return writeContent(table, region, n, in, buf, size)
}

func writeContent(table *inode.Table, region *datareg.Region, n uint32, in inode.Inode, buf []byte, size int) (int, error) {
	newBlocks := ceilBlocks(size)
	if newBlocks > layout.DirectPointers {
		return 0, ufserrors.ErrOutOfSpace
	}
	oldBlocks := in.NumBlocksUsed()

	written := 0
	blockBuf := make([]byte, layout.BlockSize)

	// Rewrite the blocks shared between the old and new extents.
	for i := 0; i < min(oldBlocks, newBlocks); i++ {
		chunk := min(layout.BlockSize, size-written)
		zeroBuf(blockBuf)
		copy(blockBuf[:chunk], buf[written:written+chunk])
		if err := region.WriteDataBlock(in.Direct[i], blockBuf); err != nil {
			return 0, err
		}
		written += chunk
	}

	// Grow: allocate fresh blocks for [oldBlocks, newBlocks). A failed
	// allocation here stops the loop early and leaves `written` as the
	// short-write boundary.
	for i := oldBlocks; i < newBlocks; i++ {
		ptr, err := region.Allocate()
		if err != nil {
			break
		}
		in.Direct[i] = ptr

		chunk := min(layout.BlockSize, size-written)
		zeroBuf(blockBuf)
		copy(blockBuf[:chunk], buf[written:written+chunk])
		if err := region.WriteDataBlock(ptr, blockBuf); err != nil {
			return 0, err
		}
		written += chunk
	}

	// Shrink: free blocks beyond the new extent. This only runs when we
	// didn't just grow (oldBlocks >= newBlocks whenever we get here with
	// written == size), so it never fights with the grow loop above.
	for i := newBlocks; i < oldBlocks; i++ {
		if err := region.Free(in.Direct[i]); err != nil {
			return 0, err
		}
	}

	in.Size = int32(written)
	if err := table.WriteInode(n, in); err != nil {
		return 0, err
	}
	return written, nil
}

func zeroBuf(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
