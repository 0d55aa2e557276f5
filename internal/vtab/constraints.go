// Package vtab implements the query bridge between a SQL engine's virtual
// table entry points and a native columnar table: cost estimation,
// constraint reordering, ordering elimination, and a per-cursor
// sort-and-cache policy.
package vtab

import "github.com/tracequery/tracedb/internal/coltable"

// QueryConstraints is the mutable sequence of constraints and orderings a
// SQL engine hands to BestIndex, together with a per-constraint advisory
// omit flag the table fills in.
type QueryConstraints struct {
	Constraints []coltable.Constraint
	Orders      []coltable.Order
	Omit        []bool
	OmitOrderBy bool
}

// QueryCost is the (cost, estimated row count) pair produced by the cost
// model.
type QueryCost struct {
	Cost          float64
	EstimatedRows uint32
}

// IndexInfo mirrors the SQL engine's best-index scratchpad: the computed
// cost and, on return, whatever the planner decided.
type IndexInfo struct {
	Cost QueryCost
}

// FilterHistory is the advisory flag the SQL engine attaches to a Filter
// call, telling the cursor whether the constraint shape changed since the
// previous call.
type FilterHistory int

const (
	HistoryDifferent FilterHistory = iota
	HistorySame
)
