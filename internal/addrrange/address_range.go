// Package addrrange implements half-open 64-bit address ranges and an
// ordered, non-overlapping range-to-value map over them. There is no
// interval-tree or ordered-map library anywhere in the retrieval pack (see
// DESIGN.md), so RangeMap is built directly on a sorted slice and the
// standard library's sort package.
package addrrange

import "github.com/tracequery/tracedb/internal/assert"

// AddressRange is the half-open interval [Start, End) over 64-bit
// addresses. Start must be <= End.
type AddressRange struct {
	Start uint64
	End   uint64
}

// New constructs an AddressRange, asserting the well-formedness invariant.
func New(start, end uint64) AddressRange {
	assert.Assertf(start <= end, "address range start %d > end %d", start, end)
	return AddressRange{Start: start, End: end}
}

// Size returns the number of addresses covered by r.
func (r AddressRange) Size() uint64 { return r.End - r.Start }

// ContainsAddr reports whether addr falls within [Start, End).
func (r AddressRange) ContainsAddr(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// Contains reports whether r is a superset of other.
func (r AddressRange) Contains(other AddressRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Disjoint reports whether r and other have an empty intersection.
func (r AddressRange) Disjoint(other AddressRange) bool {
	return r.End <= other.Start || other.End <= r.Start
}

// Overlaps reports whether r and other have a non-empty intersection.
func (r AddressRange) Overlaps(other AddressRange) bool {
	return !r.Disjoint(other)
}
