package addrrange

import "sort"

type entry[V any] struct {
	rng AddressRange
	val V
}

// RangeMap is an ordered map from non-overlapping AddressRanges to values
// of type V. At rest no two stored ranges overlap; emplace enforces this
// and never partially inserts.
type RangeMap[V any] struct {
	entries []entry[V]
}

// NewRangeMap creates an empty RangeMap.
func NewRangeMap[V any]() *RangeMap[V] {
	return &RangeMap[V]{}
}

// indexOf returns the index of the first stored entry whose range starts
// at or after addr.
func (m *RangeMap[V]) indexOf(start uint64) int {
	return sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].rng.Start >= start
	})
}

// Find returns the unique stored range containing addr, if any.
func (m *RangeMap[V]) Find(addr uint64) (AddressRange, V, bool) {
	i := m.indexOf(addr)
	// The candidate range, if any, starts at or before addr: either the
	// entry found (if it starts exactly at addr) or the one before it.
	if i < len(m.entries) && m.entries[i].rng.Start == addr {
		return m.entries[i].rng, m.entries[i].val, true
	}
	if i > 0 {
		cand := m.entries[i-1]
		if cand.rng.ContainsAddr(addr) {
			return cand.rng, cand.val, true
		}
	}
	var zero V
	return AddressRange{}, zero, false
}

// ForOverlaps invokes fn on every stored (range, value) whose intersection
// with rng is non-empty, in ascending start order.
func (m *RangeMap[V]) ForOverlaps(rng AddressRange, fn func(AddressRange, V)) {
	for _, e := range m.entries {
		if e.rng.Start >= rng.End {
			break
		}
		if e.rng.Overlaps(rng) {
			fn(e.rng, e.val)
		}
	}
}

// Emplace inserts (rng, val) iff rng is disjoint from every stored range.
// Returns false (and leaves the map unchanged) otherwise.
func (m *RangeMap[V]) Emplace(rng AddressRange, val V) bool {
	overlap := false
	m.ForOverlaps(rng, func(AddressRange, V) { overlap = true })
	if overlap {
		return false
	}
	i := m.indexOf(rng.Start)
	m.entries = append(m.entries, entry[V]{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = entry[V]{rng: rng, val: val}
	return true
}

// DeleteOverlapsAndEmplace removes every entry overlapping rng (whole
// entries, never split) and then inserts (rng, val) unconditionally.
func (m *RangeMap[V]) DeleteOverlapsAndEmplace(rng AddressRange, val V) {
	kept := m.entries[:0:0]
	for _, e := range m.entries {
		if !e.rng.Overlaps(rng) {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	ok := m.Emplace(rng, val)
	// Every overlapping entry was just removed above, so the disjointness
	// check inside Emplace can only fail if two previously-disjoint
	// entries claim the same slot — which would itself be an invariant
	// violation of the stored map.
	if !ok {
		panic("invariant violation: DeleteOverlapsAndEmplace failed to insert after clearing overlaps")
	}
}

// Len returns the number of stored ranges.
func (m *RangeMap[V]) Len() int { return len(m.entries) }
