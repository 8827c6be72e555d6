package layout_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xydxydxyd1/ufs/layout"
)

func validSuper() layout.SuperBlock {
	return layout.SuperBlock{
		InodeBitmapAddr: 1, InodeBitmapLen: 1,
		DataBitmapAddr: 2, DataBitmapLen: 1,
		InodeRegionAddr: 3, InodeRegionLen: 1,
		DataRegionAddr: 4, DataRegionLen: 10,
		NumInodes: 32, NumData: 32,
	}
}

func TestSuperBlock_EncodeDecode_RoundTrip(t *testing.T) {
	s := validSuper()

	buf := new(bytes.Buffer)
	require.NoError(t, s.Encode(buf))
	assert.Equal(t, layout.Size, buf.Len())

	got, err := layout.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestSuperBlock_Validate_AcceptsWellFormedLayout(t *testing.T) {
	s := validSuper()
	assert.NoError(t, s.Validate())
}

func TestSuperBlock_Validate_RejectsOverlappingRegions(t *testing.T) {
	s := validSuper()
	s.DataBitmapAddr = s.InodeBitmapAddr // now overlaps the inode bitmap
	assert.Error(t, s.Validate())
}

func TestSuperBlock_Validate_RejectsZeroLengthRegion(t *testing.T) {
	s := validSuper()
	s.DataRegionLen = 0
	assert.Error(t, s.Validate())
}

func TestSuperBlock_Validate_RejectsNumInodesExceedingBitmapCapacity(t *testing.T) {
	s := validSuper()
	s.NumInodes = uint32(s.InodeBitmapLen)*layout.BlockSize*8 + 1
	assert.Error(t, s.Validate())
}

func TestSuperBlock_Validate_RejectsNumDataExceedingBitmapCapacity(t *testing.T) {
	s := validSuper()
	s.NumData = uint32(s.DataBitmapLen)*layout.BlockSize*8 + 1
	assert.Error(t, s.Validate())
}

// TestSuperBlock_InodeRecordCapacity_SizesByBlockSize pins down the Design
// Notes' open question: the inode region must be sized as
// inode_region_len * BlockSize / RecordSize, not inode_region_len /
// RecordSize. The block-count formula under-counts by a factor of BlockSize,
// so for a one-block region it yields zero records.
func TestSuperBlock_InodeRecordCapacity_SizesByBlockSize(t *testing.T) {
	const recordSize = 124 // BlockSize (4096) / 124 = 33.03..., not a whole divisor
	s := validSuper()
	s.InodeRegionLen = 1

	wrongFormula := s.InodeRegionLen / recordSize // == 0, obviously broken
	got := s.InodeRecordCapacity(recordSize)

	assert.EqualValues(t, (1*layout.BlockSize)/recordSize, got)
	assert.NotEqual(t, wrongFormula, got)
	assert.Greater(t, got, uint32(0), "a single block must hold at least one record of this size")
}

// TestSuperBlock_ValidateWithRecordSize_AcceptsWellFormedLayout pins the
// happy path: a super block whose inode region actually has room for
// num_inodes records of recordSize bytes passes.
func TestSuperBlock_ValidateWithRecordSize_AcceptsWellFormedLayout(t *testing.T) {
	const recordSize = 124
	s := validSuper()
	s.InodeRegionLen = ceilDiv(s.NumInodes*recordSize, layout.BlockSize)

	assert.NoError(t, s.ValidateWithRecordSize(recordSize))
}

// TestSuperBlock_ValidateWithRecordSize_RejectsUndersizedInodeRegion is the
// load-bearing regression for the Design Notes' sizing bug: a super block
// whose inode_region_len is too small by the correct
// "len * BlockSize / recordSize" formula must be rejected, not silently
// accepted and left for InodeTable to read or write past the inode region.
func TestSuperBlock_ValidateWithRecordSize_RejectsUndersizedInodeRegion(t *testing.T) {
	const recordSize = 124
	s := validSuper()
	s.NumInodes = 1000
	s.InodeRegionLen = 1 // holds only BlockSize/recordSize == 33 records, not 1000

	err := s.ValidateWithRecordSize(recordSize)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds inode region capacity")
}

// TestSuperBlock_ValidateWithRecordSize_StillChecksBaseInvariants confirms
// ValidateWithRecordSize doesn't bypass Validate's own checks -- an
// overlapping-region layout is still rejected even when the inode region
// sizing happens to be fine.
func TestSuperBlock_ValidateWithRecordSize_StillChecksBaseInvariants(t *testing.T) {
	const recordSize = 124
	s := validSuper()
	s.InodeRegionLen = ceilDiv(s.NumInodes*recordSize, layout.BlockSize)
	s.DataBitmapAddr = s.InodeBitmapAddr

	assert.Error(t, s.ValidateWithRecordSize(recordSize))
}

func ceilDiv(n, unit uint32) uint32 {
	if n == 0 {
		return 0
	}
	return (n + unit - 1) / unit
}
