package ufs

import (
	"fmt"
	"io"

	"github.com/noxer/bytewriter"

	"github.com/xydxydxyd1/ufs/blockdev"
	"github.com/xydxydxyd1/ufs/datareg"
	"github.com/xydxydxyd1/ufs/dirent"
	"github.com/xydxydxyd1/ufs/directory"
	"github.com/xydxydxyd1/ufs/filecore"
	"github.com/xydxydxyd1/ufs/inode"
	"github.com/xydxydxyd1/ufs/layout"
	"github.com/xydxydxyd1/ufs/ufserrors"
)

func ceilDiv(n, unit uint32) uint32 {
	if n == 0 {
		return 0
	}
	return (n + unit - 1) / unit
}

// layoutFor computes a SuperBlock for numInodes inodes and numData data
// blocks: one block for the super block itself, followed by the inode
// bitmap, the data bitmap, the inode region, and finally the data region,
// each sized to exactly hold its contents.
func layoutFor(numInodes, numData uint32) layout.SuperBlock {
	const superBlockBlocks = 1

	inodeBitmapAddr := uint32(superBlockBlocks)
	inodeBitmapLen := ceilDiv(numInodes, layout.BlockSize*8)

	dataBitmapAddr := inodeBitmapAddr + inodeBitmapLen
	dataBitmapLen := ceilDiv(numData, layout.BlockSize*8)

	inodeRegionAddr := dataBitmapAddr + dataBitmapLen
	inodeRegionLen := ceilDiv(numInodes*uint32(inode.RecordSize), layout.BlockSize)

	dataRegionAddr := inodeRegionAddr + inodeRegionLen

	return layout.SuperBlock{
		InodeBitmapAddr: inodeBitmapAddr,
		InodeBitmapLen:  inodeBitmapLen,
		DataBitmapAddr:  dataBitmapAddr,
		DataBitmapLen:   dataBitmapLen,
		InodeRegionAddr: inodeRegionAddr,
		InodeRegionLen:  inodeRegionLen,
		DataRegionAddr:  dataRegionAddr,
		DataRegionLen:   numData,
		NumInodes:       numInodes,
		NumData:         numData,
	}
}

// Format lays out a fresh super block, both allocation bitmaps, and a blank
// inode table on stream, then allocates the root directory (always inode
// 0) with its "." and ".." entries written into the first data block.
//
// stream must already be at least layout.BlockSize * totalBlocks bytes long, and
// totalBlocks must be large enough to hold every region the computed layout
// requires -- the super block, both bitmaps, the inode region, and numData
// data blocks.
func Format(stream io.ReadWriteSeeker, totalBlocks, numInodes, numData uint32) (*FileSystem, error) {
	super := layoutFor(numInodes, numData)
	if err := super.ValidateWithRecordSize(inode.RecordSize); err != nil {
		return nil, ufserrors.ErrInvalidSize.Wrap(err)
	}

	needed := super.DataRegionAddr + super.DataRegionLen
	if totalBlocks < needed {
		return nil, ufserrors.ErrInvalidSize.WithMessage(fmt.Sprintf(
			"image has %d blocks, layout for %d inodes / %d data blocks needs %d",
			totalBlocks, numInodes, numData, needed,
		))
	}

	dev, err := blockdev.Open(stream, layout.BlockSize, uint(totalBlocks))
	if err != nil {
		return nil, err
	}

	if err := dev.Begin(); err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = dev.Rollback()
		}
	}()

	block0 := make([]byte, layout.BlockSize)
	if err := super.Encode(bytewriter.New(block0)); err != nil {
		return nil, err
	}
	if err := dev.WriteBlock(0, block0); err != nil {
		return nil, err
	}

	zero := make([]byte, layout.BlockSize)
	zeroRange := func(addr, count uint32) error {
		for i := uint32(0); i < count; i++ {
			if err := dev.WriteBlock(uint(addr+i), zero); err != nil {
				return err
			}
		}
		return nil
	}
	if err := zeroRange(super.InodeBitmapAddr, super.InodeBitmapLen); err != nil {
		return nil, err
	}
	if err := zeroRange(super.DataBitmapAddr, super.DataBitmapLen); err != nil {
		return nil, err
	}
	if err := zeroRange(super.InodeRegionAddr, super.InodeRegionLen); err != nil {
		return nil, err
	}

	table, err := inode.Open(dev, &super)
	if err != nil {
		return nil, err
	}
	region, err := datareg.Open(dev, &super)
	if err != nil {
		return nil, err
	}

	rootInum, err := table.Allocate()
	if err != nil {
		return nil, err
	}
	if rootInum != directory.RootInum {
		return nil, ufserrors.ErrIOFailed.WithMessage("root inode did not allocate as inode 0")
	}
	if err := table.WriteInode(rootInum, inode.Inode{Type: inode.Directory}); err != nil {
		return nil, err
	}

	selfEntries := make([]byte, 2*dirent.RecordSize)
	copy(selfEntries[0:], dirent.Encode(dirent.Entry{Inum: rootInum, Name: "."}))
	copy(selfEntries[dirent.RecordSize:], dirent.Encode(dirent.Entry{Inum: rootInum, Name: ".."}))
	written, err := filecore.WriteDirectoryContents(table, region, rootInum, selfEntries, len(selfEntries))
	if err != nil {
		return nil, err
	}
	if written != len(selfEntries) {
		return nil, ufserrors.ErrOutOfSpace
	}

	if err := dev.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &FileSystem{dev: dev, super: super, table: table, region: region}, nil
}
