// Package bitset wraps github.com/boljen/go-bitmap with the handful of
// operations the filesystem core needs: test, set, clear, and a bounded
// first-free scan. It performs no I/O of its own -- callers load the backing
// bytes from disk, mutate, and write them back under a transaction.
package bitset

import (
	"github.com/boljen/go-bitmap"
)

// Bitset is an in-memory bit array backed by a byte slice. A set bit means
// "allocated", matching the on-disk bitmap convention used for both the
// inode and data bitmaps.
type Bitset struct {
	bm    bitmap.Bitmap
	limit uint
}

// New allocates a fresh, all-clear bitset able to address at least limit
// bits, rounded up to the nearest byte.
func New(limit uint) Bitset {
	return Bitset{bm: bitmap.New(int(limit)), limit: limit}
}

// FromBytes wraps an existing byte slice (e.g. one just read from disk) as a
// Bitset. limit caps how many of its bits are considered addressable --
// this is the super block's num_inodes or num_data, which may be smaller
// than the bitmap's full byte-rounded capacity.
func FromBytes(data []byte, limit uint) Bitset {
	return Bitset{bm: bitmap.Bitmap(data), limit: limit}
}

// Test reports whether bit i is set.
func (b Bitset) Test(i uint) bool {
	return b.bm.Get(int(i))
}

// Set marks bit i as allocated.
func (b Bitset) Set(i uint) {
	b.bm.Set(int(i), true)
}

// Clear marks bit i as free.
func (b Bitset) Clear(i uint) {
	b.bm.Set(int(i), false)
}

// FindFirstClear scans [0, limit) for the first clear bit. The second return
// value is false if every bit in range is set.
func (b Bitset) FindFirstClear() (uint, bool) {
	for i := uint(0); i < b.limit; i++ {
		if !b.bm.Get(int(i)) {
			return i, true
		}
	}
	return 0, false
}

// Data returns the backing bytes, suitable for writing straight back to
// disk.
func (b Bitset) Data() []byte {
	return b.bm.Data(false)
}

// Len returns the number of addressable bits (the limit passed to New or
// FromBytes), not the byte-rounded capacity of the backing array.
func (b Bitset) Len() uint {
	return b.limit
}
