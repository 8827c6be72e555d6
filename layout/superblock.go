// Package layout defines the on-disk super block and the fixed-width
// constants (block size, direct pointer count, max name length) that every
// other package in the module agrees on.
package layout

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
)

// BlockSize is the fixed size of a block, in bytes, for every image this
// module reads or writes.
const BlockSize = 4096

// DirectPointers is the number of direct block pointers in an inode (K in
// the spec). There are no indirect blocks, so a file's maximum size is
// DirectPointers * BlockSize.
const DirectPointers = 30

// MaxNameLen is the maximum length of a directory entry name, including the
// trailing NUL (N in the spec).
const MaxNameLen = 28

// MaxFileSize is the largest a regular file's content can be.
const MaxFileSize = DirectPointers * BlockSize

// SuperBlock is stored at byte 0 of the device. Field order matches the
// on-disk layout exactly; there is no padding.
type SuperBlock struct {
	InodeBitmapAddr uint32
	InodeBitmapLen  uint32
	DataBitmapAddr  uint32
	DataBitmapLen   uint32
	InodeRegionAddr uint32
	InodeRegionLen  uint32
	DataRegionAddr  uint32
	DataRegionLen   uint32
	NumInodes       uint32
	NumData         uint32
}

// Size is the number of bytes a SuperBlock occupies on disk.
const Size = 10 * 4

// Encode writes the super block's fields, in order, little-endian, with no
// padding.
func (s *SuperBlock) Encode(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, s)
}

// Decode reads a super block previously written by Encode.
func Decode(r io.Reader) (SuperBlock, error) {
	var s SuperBlock
	if err := binary.Read(r, binary.LittleEndian, &s); err != nil {
		return SuperBlock{}, err
	}
	return s, nil
}

type region struct {
	name        string
	addr, count uint32
}

// Validate checks the cross-region invariants from the data model: regions
// are disjoint and in ascending order, each region is long enough to hold
// its contents, and the inode/data counts fit within their bitmaps.
//
// All violations are collected and returned together via a multierror
// rather than stopping at the first one, since a malformed image is likely
// to fail more than one invariant at once and a caller debugging a bad
// format run wants the whole list.
func (s *SuperBlock) Validate() error {
	var result *multierror.Error

	regions := []region{
		{"inode bitmap", s.InodeBitmapAddr, s.InodeBitmapLen},
		{"data bitmap", s.DataBitmapAddr, s.DataBitmapLen},
		{"inode region", s.InodeRegionAddr, s.InodeRegionLen},
		{"data region", s.DataRegionAddr, s.DataRegionLen},
	}

	for _, r := range regions {
		if r.count == 0 {
			result = multierror.Append(result, fmt.Errorf("%s has zero length", r.name))
		}
	}

	for i := 1; i < len(regions); i++ {
		prev, cur := regions[i-1], regions[i]
		if cur.addr < prev.addr+prev.count {
			result = multierror.Append(
				result,
				fmt.Errorf(
					"%s (starts at block %d) overlaps %s (occupies [%d, %d))",
					cur.name, cur.addr, prev.name, prev.addr, prev.addr+prev.count,
				),
			)
		}
	}

	if uint64(s.NumInodes) > uint64(s.InodeBitmapLen)*BlockSize*8 {
		result = multierror.Append(
			result,
			fmt.Errorf(
				"num_inodes (%d) exceeds inode bitmap capacity (%d)",
				s.NumInodes, uint64(s.InodeBitmapLen)*BlockSize*8,
			),
		)
	}

	if uint64(s.NumData) > uint64(s.DataBitmapLen)*BlockSize*8 {
		result = multierror.Append(
			result,
			fmt.Errorf(
				"num_data (%d) exceeds data bitmap capacity (%d)",
				s.NumData, uint64(s.DataBitmapLen)*BlockSize*8,
			),
		)
	}

	return result.ErrorOrNil()
}

// InodeRecordCapacity returns the number of inode records that fit in the
// inode region, sized by the region's byte length divided by the record
// size -- not the region's length in blocks divided by the record size,
// which under-counts by a factor of BlockSize.
func (s *SuperBlock) InodeRecordCapacity(recordSize uint32) uint32 {
	return (s.InodeRegionLen * BlockSize) / recordSize
}

// ValidateInodeRegionCapacity rejects a super block whose inode region is
// too short to hold num_inodes records of recordSize bytes each -- the
// sizing bug the Design Notes warn about (sizing the inode region by block
// count alone instead of its byte length). inode.Table.Open calls this on
// every load, since that's the component that will address the inode
// region by record number: without the check, a corrupted or hand-crafted
// super block can make it read or write past the inode region into
// whatever follows.
func (s *SuperBlock) ValidateInodeRegionCapacity(recordSize uint32) error {
	if capacity := s.InodeRecordCapacity(recordSize); s.NumInodes > capacity {
		return fmt.Errorf(
			"num_inodes (%d) exceeds inode region capacity at %d bytes/record (%d)",
			s.NumInodes, recordSize, capacity,
		)
	}
	return nil
}

// ValidateWithRecordSize runs Validate and ValidateInodeRegionCapacity
// together, collecting both into one multierror. ufs.Open calls this (it's
// the one load path that owns a complete, cross-region super block); narrower
// callers that only care about the inode region -- inode.Table.Open among
// them -- call ValidateInodeRegionCapacity directly so they aren't forced to
// also supply a fully-populated data bitmap/region just to pass Validate.
func (s *SuperBlock) ValidateWithRecordSize(recordSize uint32) error {
	var result *multierror.Error
	if err := s.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.ValidateInodeRegionCapacity(recordSize); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
