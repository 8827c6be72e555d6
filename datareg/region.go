// Package datareg implements the data region: allocating and freeing data
// blocks against the data bitmap, and reading/writing the raw blocks those
// allocations refer to.
package datareg

import (
	"github.com/xydxydxyd1/ufs/bitset"
	"github.com/xydxydxyd1/ufs/blockdev"
	"github.com/xydxydxyd1/ufs/byteio"
	"github.com/xydxydxyd1/ufs/layout"
	"github.com/xydxydxyd1/ufs/ufserrors"
)

// Region is the data region: the data bitmap plus the blocks it governs.
// Block pointers are always absolute block numbers on the device -- the
// same numbers stored directly in an inode's Direct array.
type Region struct {
	dev    *blockdev.Device
	super  *layout.SuperBlock
	bitmap bitset.Bitset
}

// Open loads the data bitmap from disk and returns a Region ready for use.
func Open(dev *blockdev.Device, super *layout.SuperBlock) (*Region, error) {
	raw := make([]byte, super.DataBitmapLen*layout.BlockSize)
	addr := int64(super.DataBitmapAddr) * layout.BlockSize
	if err := byteio.ReadBytes(dev, addr, raw); err != nil {
		return nil, err
	}
	return &Region{
		dev:    dev,
		super:  super,
		bitmap: bitset.FromBytes(raw, uint(super.NumData)),
	}, nil
}

// Bitmap returns the data allocation bitmap, for callers (ufsbits) that need
// to inspect it directly.
func (r *Region) Bitmap() bitset.Bitset {
	return r.bitmap
}

func (r *Region) flushBitmap() error {
	addr := int64(r.super.DataBitmapAddr) * layout.BlockSize
	return byteio.WriteBytes(r.dev, addr, r.bitmap.Data())
}

// Reload re-reads the data bitmap from disk. Callers must call this after
// rolling back a transaction that touched allocation state, for the same
// reason as inode.Table.Reload: the in-memory bitmap otherwise keeps
// claiming blocks that rollback just freed again on disk.
func (r *Region) Reload() error {
	raw := make([]byte, r.super.DataBitmapLen*layout.BlockSize)
	addr := int64(r.super.DataBitmapAddr) * layout.BlockSize
	if err := byteio.ReadBytes(r.dev, addr, raw); err != nil {
		return err
	}
	r.bitmap = bitset.FromBytes(raw, uint(r.super.NumData))
	return nil
}

// ReadDataBlock fills buf (at least layout.BlockSize bytes) with the
// contents of the block at absolute block number ptr.
func (r *Region) ReadDataBlock(ptr int32, buf []byte) error {
	return r.dev.ReadBlock(uint(ptr), buf)
}

// WriteDataBlock overwrites the block at absolute block number ptr.
func (r *Region) WriteDataBlock(ptr int32, buf []byte) error {
	return r.dev.WriteBlock(uint(ptr), buf)
}

// Allocate finds the first free data block, marks it allocated, and returns
// its absolute block number (data_region_addr + bit index).
func (r *Region) Allocate() (int32, error) {
	i, ok := r.bitmap.FindFirstClear()
	if !ok {
		return 0, ufserrors.ErrOutOfSpace
	}
	r.bitmap.Set(i)
	if err := r.flushBitmap(); err != nil {
		return 0, err
	}
	return int32(r.super.DataRegionAddr) + int32(i), nil
}

// Free clears the bit for the block at absolute block number ptr.
func (r *Region) Free(ptr int32) error {
	bit := uint(ptr) - uint(r.super.DataRegionAddr)
	r.bitmap.Clear(bit)
	return r.flushBitmap()
}
