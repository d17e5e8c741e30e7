// Package heap implements the VM's word-addressed memory: a growable,
// append-only word heap plus the two allocation tables spec §4.4 describes
// (identifier-keyed static allocations, anonymous dynamic allocations), with
// first-fit reuse of interior gaps.
package heap

import (
	"errors"
	"sort"

	"github.com/dolthub/swiss"
)

var ErrUnknownIdentifier = errors.New("heap: unknown identifier")

// Allocation records a live region of the heap: words [Base, Base+Size).
type Allocation struct {
	Base uint64
	Size uint32
}

// Heap is the growable word-addressed backing store. Growth only ever
// appends; deallocation zeroes words in place rather than shrinking.
type Heap struct {
	words []uint32
}

// Len returns the heap's current word length.
func (h *Heap) Len() uint64 { return uint64(len(h.words)) }

// Grow appends n zero words and returns the base index of the new region.
func (h *Heap) Grow(n uint32) uint64 {
	base := uint64(len(h.words))
	h.words = append(h.words, make([]uint32, n)...)
	return base
}

// Get reads the word at i. ok is false if i is out of bounds.
func (h *Heap) Get(i uint64) (uint32, bool) {
	if i >= uint64(len(h.words)) {
		return 0, false
	}
	return h.words[i], true
}

// Set writes the word at i. ok is false if i is out of bounds.
func (h *Heap) Set(i uint64, v uint32) bool {
	if i >= uint64(len(h.words)) {
		return false
	}
	h.words[i] = v
	return true
}

// Table holds the static identifier-keyed table and the dynamic anonymous
// list. Ordered iteration over the static table by identifier is required
// for gap-reuse scanning (spec §3); swiss.Map has no ordered iterator, so
// the scan collects and sorts keys fresh on every call, the same cost shape
// as the original's BTreeMap::keys().collect() (see
// stalfos_vm/src/lib.rs::allocate).
type Table struct {
	static  *swiss.Map[uint64, Allocation]
	dynamic []Allocation
}

func NewTable() *Table {
	return &Table{static: swiss.NewMap[uint64, Allocation](16)}
}

func (t *Table) sortedKeys() []uint64 {
	keys := make([]uint64, 0, t.static.Count())
	t.static.Iter(func(k uint64, _ Allocation) bool {
		keys = append(keys, k)
		return false
	})
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// scanGap looks for the first adjacent pair of bindings (in identifier
// order) with a gap of more than size words between them, and returns the
// base to reuse and whether one was found. This mirrors
// stalfos_vm/src/lib.rs::allocate's scan exactly, including its documented
// quirk: the caller must record the reused region under the *new*
// identifier, sized `old_size + size`, rather than shrinking the gap — the
// preceding binding's own entry is left untouched.
func (t *Table) scanGap(size uint32) (base uint64, growSize uint32, found bool) {
	keys := t.sortedKeys()
	for x := 0; x+1 < len(keys); x++ {
		cur, _ := t.static.Get(keys[x])
		next, _ := t.static.Get(keys[x+1])
		if cur.Base+uint64(cur.Size)+uint64(size) < next.Base {
			return cur.Base, cur.Size + size, true
		}
	}
	return 0, 0, false
}

// AllocateStatic binds id to size words, reusing an interior gap if one
// fits or else appending to the heap. Returns the allocation base.
func (t *Table) AllocateStatic(h *Heap, id uint64, size uint32) uint64 {
	if base, grown, ok := t.scanGap(size); ok {
		t.static.Put(id, Allocation{Base: base, Size: grown})
		return base
	}
	base := h.Grow(size)
	t.static.Put(id, Allocation{Base: base, Size: size})
	return base
}

// AllocateDynamic allocates size words with no identifier, using the same
// gap-reuse scan as AllocateStatic.
func (t *Table) AllocateDynamic(h *Heap, size uint32) uint64 {
	if base, grown, ok := t.scanGap(size); ok {
		t.dynamic = append(t.dynamic, Allocation{Base: base, Size: grown})
		return base
	}
	base := h.Grow(size)
	t.dynamic = append(t.dynamic, Allocation{Base: base, Size: size})
	return base
}

// Lookup returns the static allocation bound to id.
func (t *Table) Lookup(id uint64) (Allocation, bool) {
	return t.static.Get(id)
}

// Deallocate zeroes id's backing words and removes it from the table.
func (t *Table) Deallocate(h *Heap, id uint64) error {
	a, ok := t.static.Get(id)
	if !ok {
		return ErrUnknownIdentifier
	}
	for i := uint64(0); i < uint64(a.Size); i++ {
		h.Set(a.Base+i, 0)
	}
	t.static.Delete(id)
	return nil
}
