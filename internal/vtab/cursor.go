package vtab

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/tracequery/tracedb/internal/coltable"
	"github.com/tracequery/tracedb/internal/errs"
)

// Cursor is one per active query: it holds the current constraints,
// table-function arguments, the row iterator, the sort-cache latch and
// the single-row fast path.
type Cursor struct {
	table *Table

	constraints []coltable.Constraint
	orders      []coltable.Order
	arguments   []coltable.Value

	repeatedCounter int
	latched         coltable.Table

	iterator coltable.RowIterator

	fastPath   bool
	fastEmpty  bool
	fastRow    coltable.Row
	fastRowId  uint32
	fastServed bool
}

func newCursor(t *Table) *Cursor {
	return &Cursor{table: t}
}

// Filter translates qc into internal constraints and orders, applies the
// sort-cache policy (Static/Runtime) or invokes ComputeTable
// (TableFunction), and resolves a RowMap to begin iteration from.
func (c *Cursor) Filter(qc QueryConstraints, history FilterHistory) error {
	c.iterator = nil
	c.fastPath = false
	c.fastServed = false

	if c.table.kind == KindTableFunction {
		c.arguments = make([]coltable.Value, len(c.table.hiddenSlot))
	}
	c.constraints = c.constraints[:0]

	for _, cst := range qc.Constraints {
		if !translatable(cst.Op) {
			continue
		}
		if c.table.kind == KindTableFunction {
			if slot, ok := c.table.hiddenSlot[cst.Column]; ok {
				c.arguments[slot] = cst.Value
				continue
			}
		}
		if cst.Op == coltable.Regex {
			if cst.Value.Type != coltable.TypeString {
				return errs.New(errs.Execution, "Regex constraint value must be a string")
			}
			if _, err := regexp.Compile(cst.Value.Str); err != nil {
				return errs.Wrap(errs.Execution, err, "Regex constraint does not compile")
			}
		}
		c.constraints = append(c.constraints, cst)
	}
	c.orders = qc.Orders

	var source coltable.Table
	switch c.table.kind {
	case KindTableFunction:
		result, err := c.table.tableFunc.ComputeTable(c.arguments)
		if err != nil {
			return errs.Wrap(errs.Upstream, err, fmt.Sprintf("%s: %s", c.table.Name, err))
		}
		source = result
	default:
		src, err := c.table.resolveSource()
		if err != nil {
			return err
		}
		c.applySortCachePolicy(src, history)
		if c.latched != nil {
			source = c.latched
		} else {
			source = src
		}
	}

	rowMap, err := source.QueryToRowMap(c.constraints, c.orders)
	if err != nil {
		return errors.Wrapf(err, "%s: query", c.table.Name)
	}

	if size := rowMap.Size(); size == 0 {
		c.fastPath = true
		c.fastEmpty = true
		return nil
	} else if rowMap.IsContiguousRange() && size == 1 {
		c.fastPath = true
		c.fastEmpty = false
		it := source.ApplyAndIterateRows(rowMap)
		c.fastRowId = it.RowId()
		cols := make([]coltable.Value, len(source.Schema().Columns))
		for i := range cols {
			cols[i] = it.Column(i)
		}
		c.fastRow = coltable.NewRow(cols)
		return nil
	}

	c.iterator = source.ApplyAndIterateRows(rowMap)
	return nil
}

// applySortCachePolicy implements the cursor-local sort-and-cache policy
// of spec.md §4.7: a repeated identical constraint shape, seen three times
// in a row, triggers a one-time sort of the upstream table that is cached
// and reused by this and later cursors sharing the same fingerprint.
func (c *Cursor) applySortCachePolicy(src coltable.Table, history FilterHistory) {
	if history == HistoryDifferent {
		c.repeatedCounter = 0
		c.latched = nil
		if t, ok := c.table.cache.GetIfCached(c.fingerprint()); ok {
			c.latched = t
		}
		return
	}

	if c.latched != nil {
		return
	}

	c.repeatedCounter++
	if c.repeatedCounter != 3 {
		return
	}
	if !c.sortCacheEligible() {
		return
	}
	sortCol := c.constraints[0].Column
	c.latched = c.table.cache.GetOrCache(c.fingerprint(), func() coltable.Table {
		return src.Sort([]coltable.Order{{Column: sortCol, Descending: false}})
	})
}

func (c *Cursor) sortCacheEligible() bool {
	if len(c.constraints) != 1 {
		return false
	}
	cst := c.constraints[0]
	if cst.Op != coltable.Eq {
		return false
	}
	col := columnOf(c.table.schema, cst.Column)
	return !col.IsSorted()
}

func (c *Cursor) fingerprint() string {
	var b strings.Builder
	b.WriteString(c.table.Name)
	for _, cst := range c.constraints {
		fmt.Fprintf(&b, "|%d:%d:%s", cst.Column, cst.Op, cst.Value.String())
	}
	return b.String()
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.fastPath {
		c.fastServed = true
		return nil
	}
	c.iterator.Next()
	return nil
}

// Eof reports whether the cursor has no more rows to yield.
func (c *Cursor) Eof() bool {
	if c.fastPath {
		return c.fastEmpty || c.fastServed
	}
	return !c.iterator.Valid()
}

// Column returns the value of column i at the cursor's current row.
func (c *Cursor) Column(i int) (coltable.Value, error) {
	if c.fastPath {
		return c.fastRow.Get(i), nil
	}
	return c.iterator.Column(i), nil
}

// RowId returns the current row's id.
func (c *Cursor) RowId() (uint32, error) {
	if c.fastPath {
		return c.fastRowId, nil
	}
	return c.iterator.RowId(), nil
}

// Close releases the cursor's iterator before its source table reference,
// per the single-threaded resource-acquisition scope of spec.md §5.
func (c *Cursor) Close() error {
	c.iterator = nil
	c.latched = nil
	return nil
}
