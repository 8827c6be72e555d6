package bitset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xydxydxyd1/ufs/bitset"
)

func TestBitset_SetTestClear(t *testing.T) {
	b := bitset.New(16)

	assert.False(t, b.Test(3), "freshly allocated bitset should read all-clear")

	b.Set(3)
	assert.True(t, b.Test(3))
	assert.False(t, b.Test(2), "setting bit 3 must not disturb bit 2")

	b.Clear(3)
	assert.False(t, b.Test(3))
}

func TestBitset_FindFirstClear(t *testing.T) {
	b := bitset.New(8)
	b.Set(0)
	b.Set(1)
	b.Set(2)

	i, ok := b.FindFirstClear()
	require.True(t, ok)
	assert.EqualValues(t, 3, i)
}

func TestBitset_FindFirstClear__RespectsLimit(t *testing.T) {
	// Backing array has room for 8 bits, but limit caps the scan at 4, so
	// bits [4,8) are never considered free even though they're clear.
	b := bitset.New(4)
	b.Set(0)
	b.Set(1)
	b.Set(2)
	b.Set(3)

	_, ok := b.FindFirstClear()
	assert.False(t, ok, "no clear bit within the limit should report not-found")
}

func TestBitset_FromBytes__RoundTripsThroughData(t *testing.T) {
	raw := make([]byte, 4)
	b := bitset.FromBytes(raw, 32)
	b.Set(5)
	b.Set(20)

	reloaded := bitset.FromBytes(b.Data(), 32)
	assert.True(t, reloaded.Test(5))
	assert.True(t, reloaded.Test(20))
	assert.False(t, reloaded.Test(6))
}

func TestBitset_Len(t *testing.T) {
	b := bitset.New(13)
	assert.EqualValues(t, 13, b.Len())
}
