package coltable

import (
	"path/filepath"
	"regexp"
	"sort"
)

// Table is the upstream columnar-table contract VTQB drives (spec.md §6):
// row counts, constrained row selection, row iteration and sorting. It is
// the interface the out-of-scope "columnar table engine" is assumed to
// implement; StaticTable below is a minimal concrete implementation used
// by this module's own tests.
type Table interface {
	RowCount() uint32
	Schema() Schema
	QueryToRowMap(constraints []Constraint, orders []Order) (RowMap, error)
	ApplyAndIterateRows(RowMap) RowIterator
	Sort(orders []Order) Table
}

// TableFunction is a parametrized table producer (spec.md §6): it
// supplies its own schema, an estimated row count for cost purposes, and
// computes a concrete Table from argument values bound to its hidden
// columns.
type TableFunction interface {
	CreateSchema() Schema
	EstimateRowCount() uint32
	ComputeTable(args []Value) (Table, error)
}

// RowIterator walks a RowMap's selected rows in order.
type RowIterator interface {
	Valid() bool
	Next()
	Column(i int) Value
	RowId() uint32
}

// StaticTable is a minimal fixed in-memory Table.
type StaticTable struct {
	schema Schema
	rows   []Row
}

func NewStaticTable(schema Schema, rows []Row) *StaticTable {
	return &StaticTable{schema: schema, rows: rows}
}

func (t *StaticTable) RowCount() uint32 { return uint32(len(t.rows)) }
func (t *StaticTable) Schema() Schema   { return t.schema }

// QueryToRowMap filters rows matching every constraint (logical AND) and
// orders the surviving indices per orders. With no constraints and no
// orders it returns the full contiguous range, letting callers exercise
// the RowMap fast path without needing a single-row table.
func (t *StaticTable) QueryToRowMap(constraints []Constraint, orders []Order) (RowMap, error) {
	if len(constraints) == 0 && len(orders) == 0 {
		return NewRangeRowMap(0, t.RowCount()), nil
	}

	matchers := make([]func(pattern, s string) bool, len(constraints))
	for i, c := range constraints {
		if c.Op != Glob && c.Op != Regex {
			continue
		}
		if c.Value.Type != TypeString {
			continue
		}
		if c.Op == Glob {
			matchers[i] = func(pattern, s string) bool {
				ok, _ := filepath.Match(pattern, s)
				return ok
			}
		} else {
			re, err := regexp.Compile(c.Value.Str)
			if err != nil {
				return RowMap{}, err
			}
			matchers[i] = func(_ string, s string) bool { return re.MatchString(s) }
		}
	}

	var indices []uint32
	for i, row := range t.rows {
		ok := true
		for ci, c := range constraints {
			if !c.Matches(row.Get(c.Column), matchers[ci]) {
				ok = false
				break
			}
		}
		if ok {
			indices = append(indices, uint32(i))
		}
	}

	if len(orders) > 0 {
		sort.SliceStable(indices, func(a, b int) bool {
			ra, rb := t.rows[indices[a]], t.rows[indices[b]]
			for _, o := range orders {
				c := Compare(ra.Get(o.Column), rb.Get(o.Column))
				if c == 0 {
					continue
				}
				if o.Descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if start, end, ok := asContiguousRange(indices); ok {
		return NewRangeRowMap(start, end), nil
	}
	return NewIndexRowMap(indices), nil
}

// asContiguousRange reports whether indices is a strictly increasing run of
// consecutive row numbers, letting callers collapse it to a RowMap range
// and skip materializing an explicit index list.
func asContiguousRange(indices []uint32) (start, end uint32, ok bool) {
	if len(indices) == 0 {
		return 0, 0, false
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] != indices[i-1]+1 {
			return 0, 0, false
		}
	}
	return indices[0], indices[len(indices)-1] + 1, true
}

func (t *StaticTable) ApplyAndIterateRows(rm RowMap) RowIterator {
	return newStaticIterator(t, rm)
}

// Sort returns a new StaticTable whose rows are physically reordered per
// orders.
func (t *StaticTable) Sort(orders []Order) Table {
	indices := make([]uint32, len(t.rows))
	for i := range indices {
		indices[i] = uint32(i)
	}
	sort.SliceStable(indices, func(a, b int) bool {
		ra, rb := t.rows[indices[a]], t.rows[indices[b]]
		for _, o := range orders {
			c := Compare(ra.Get(o.Column), rb.Get(o.Column))
			if c == 0 {
				continue
			}
			if o.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	sorted := make([]Row, len(t.rows))
	for i, idx := range indices {
		sorted[i] = t.rows[idx]
	}
	return NewStaticTable(t.schema, sorted)
}

type staticIterator struct {
	table   *StaticTable
	indices []uint32
	pos     int
}

func newStaticIterator(t *StaticTable, rm RowMap) *staticIterator {
	var indices []uint32
	if rm.IsContiguousRange() {
		start, end := rm.Bounds()
		for r := start; r < end; r++ {
			indices = append(indices, r)
		}
	} else {
		rm.ForEach(func(row uint32) { indices = append(indices, row) })
	}
	return &staticIterator{table: t, indices: indices}
}

func (it *staticIterator) Valid() bool { return it.pos < len(it.indices) }
func (it *staticIterator) Next()       { it.pos++ }
func (it *staticIterator) RowId() uint32 {
	return it.indices[it.pos]
}
func (it *staticIterator) Column(i int) Value {
	return it.table.rows[it.indices[it.pos]].Get(i)
}
