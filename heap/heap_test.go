package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stalfos/stalfos/heap"
)

func TestAllocateStaticAppendsWhenNoGap(t *testing.T) {
	var h heap.Heap
	table := heap.NewTable()

	b1 := table.AllocateStatic(&h, 1, 4)
	require.EqualValues(t, 0, b1)
	require.EqualValues(t, 4, h.Len())

	b2 := table.AllocateStatic(&h, 2, 3)
	require.EqualValues(t, 4, b2)
	require.EqualValues(t, 7, h.Len())
}

func TestAllocateStaticReusesGapUnderNewIdentifier(t *testing.T) {
	var h heap.Heap
	table := heap.NewTable()

	table.AllocateStatic(&h, 1, 2) // base 0, size 2
	table.AllocateStatic(&h, 3, 2) // base 2, size 2 (keys 1 < 3, no gap yet)
	h.Grow(10)                    // carve a big gap after identifier 3's region without a table entry

	// Rebinding identifier 3 past the carved region opens a real gap between
	// identifier 1's region (ends at 2) and identifier 3's new base (14).
	require.NoError(t, table.Deallocate(&h, 3))
	table.AllocateStatic(&h, 3, 1)
	table.AllocateStatic(&h, 10, 20) // establishes a large base far away

	base := table.AllocateStatic(&h, 7, 1) // should fit in the 1<->3 gap
	alloc7, ok := table.Lookup(7)
	require.True(t, ok)
	require.Equal(t, base, alloc7.Base)

	alloc1, ok := table.Lookup(1)
	require.True(t, ok)
	require.Equal(t, uint64(0), alloc1.Base)
	require.EqualValues(t, 2, alloc1.Size) // untouched: quirk records growth under the new id, not the old one
}

func TestDeallocateZeroesAndFreesIdentifier(t *testing.T) {
	var h heap.Heap
	table := heap.NewTable()
	base := table.AllocateStatic(&h, 1, 2)
	h.Set(base, 0xDEAD)
	h.Set(base+1, 0xBEEF)

	require.NoError(t, table.Deallocate(&h, 1))
	v0, _ := h.Get(base)
	v1, _ := h.Get(base + 1)
	require.Zero(t, v0)
	require.Zero(t, v1)

	_, ok := table.Lookup(1)
	require.False(t, ok)
}

func TestDeallocateUnknownIdentifier(t *testing.T) {
	var h heap.Heap
	table := heap.NewTable()
	require.ErrorIs(t, table.Deallocate(&h, 99), heap.ErrUnknownIdentifier)
}

func TestHeapLenNeverDecreases(t *testing.T) {
	var h heap.Heap
	table := heap.NewTable()
	table.AllocateStatic(&h, 1, 5)
	before := h.Len()
	require.NoError(t, table.Deallocate(&h, 1))
	require.Equal(t, before, h.Len())
}
