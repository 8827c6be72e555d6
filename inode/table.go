package inode

import (
	"github.com/xydxydxyd1/ufs/bitset"
	"github.com/xydxydxyd1/ufs/blockdev"
	"github.com/xydxydxyd1/ufs/byteio"
	"github.com/xydxydxyd1/ufs/layout"
	"github.com/xydxydxyd1/ufs/ufserrors"
)

// Table is the inode table: the inode bitmap plus the inode region it
// governs. All mutation happens inside the caller's transaction; Table
// never opens one of its own.
type Table struct {
	dev    *blockdev.Device
	super  *layout.SuperBlock
	bitmap bitset.Bitset
}

// Open loads the inode bitmap from disk and returns a Table ready for use.
// It rejects a super block whose inode region is too small to hold
// num_inodes records, so a corrupted or hand-crafted image can't make
// ReadInode/WriteInode address past the inode region.
func Open(dev *blockdev.Device, super *layout.SuperBlock) (*Table, error) {
	if err := super.ValidateInodeRegionCapacity(RecordSize); err != nil {
		return nil, ufserrors.ErrInvalidSize.Wrap(err)
	}

	raw := make([]byte, super.InodeBitmapLen*layout.BlockSize)
	addr := int64(super.InodeBitmapAddr) * layout.BlockSize
	if err := byteio.ReadBytes(dev, addr, raw); err != nil {
		return nil, err
	}
	return &Table{
		dev:    dev,
		super:  super,
		bitmap: bitset.FromBytes(raw, uint(super.NumInodes)),
	}, nil
}

func (t *Table) flushBitmap() error {
	addr := int64(t.super.InodeBitmapAddr) * layout.BlockSize
	return byteio.WriteBytes(t.dev, addr, t.bitmap.Data())
}

// Reload re-reads the inode bitmap from disk. Callers must call this after
// rolling back a transaction that touched allocation state: the in-memory
// bitmap was mutated ahead of the (now-undone) disk write, and without a
// reload it would keep claiming a bit that's actually free on disk again.
func (t *Table) Reload() error {
	raw := make([]byte, t.super.InodeBitmapLen*layout.BlockSize)
	addr := int64(t.super.InodeBitmapAddr) * layout.BlockSize
	if err := byteio.ReadBytes(t.dev, addr, raw); err != nil {
		return err
	}
	t.bitmap = bitset.FromBytes(raw, uint(t.super.NumInodes))
	return nil
}

// Bitmap returns the inode allocation bitmap, for callers (ufsbits) that
// need to inspect it directly.
func (t *Table) Bitmap() bitset.Bitset {
	return t.bitmap
}

func (t *Table) recordAddr(n uint32) int64 {
	return int64(t.super.InodeRegionAddr)*layout.BlockSize + int64(n)*RecordSize
}

// ReadInode loads the n-th record from the inode region.
func (t *Table) ReadInode(n uint32) (Inode, error) {
	if uint32(t.super.NumInodes) <= n {
		return Inode{}, ufserrors.ErrInvalidInode
	}
	if !t.bitmap.Test(uint(n)) {
		return Inode{}, ufserrors.ErrInvalidInode
	}

	buf := make([]byte, RecordSize)
	if err := byteio.ReadBytes(t.dev, t.recordAddr(n), buf); err != nil {
		return Inode{}, err
	}
	return Decode(buf), nil
}

// WriteInode overwrites record n unconditionally. Callers allocate the
// inode number first via Allocate.
func (t *Table) WriteInode(n uint32, in Inode) error {
	if uint32(t.super.NumInodes) <= n {
		return ufserrors.ErrInvalidInode
	}
	return byteio.WriteBytes(t.dev, t.recordAddr(n), Encode(in))
}

// Allocate finds the lowest-numbered free inode, marks it allocated, and
// returns its number. It does not write an initial record; the caller does
// that with WriteInode.
func (t *Table) Allocate() (uint32, error) {
	i, ok := t.bitmap.FindFirstClear()
	if !ok {
		return 0, ufserrors.ErrOutOfSpace
	}
	t.bitmap.Set(i)
	if err := t.flushBitmap(); err != nil {
		return 0, err
	}
	return uint32(i), nil
}

// Free clears n's bit in the inode bitmap. It does not touch the record's
// contents or any data blocks it references; callers free those first.
func (t *Table) Free(n uint32) error {
	t.bitmap.Clear(uint(n))
	return t.flushBitmap()
}
