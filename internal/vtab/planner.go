package vtab

import (
	"sort"

	"github.com/tracequery/tracedb/internal/coltable"
)

// priorityKey returns the constraint-reordering sort key for a column:
// is_id first, then is_set_id, then is_sorted, then everything else.
func priorityKey(col coltable.Column) int {
	switch {
	case col.IsId():
		return 0
	case col.IsSetId():
		return 1
	case col.IsSorted():
		return 2
	default:
		return 3
	}
}

func columnOf(schema coltable.Schema, idx int) coltable.Column {
	if idx < 0 || idx >= len(schema.Columns) {
		return coltable.Column{}
	}
	return schema.Columns[idx]
}

// Plan mutates qc in place: it stably reorders constraints by column
// cheapness, drops orderings already pinned by an Eq constraint, and
// prunes a trailing run of ascending is_sorted orderings. Effects are
// purely advisory to the cost model — result correctness never depends on
// them.
func Plan(schema coltable.Schema, qc *QueryConstraints) {
	reorderConstraints(schema, qc)
	eliminateEqOrderings(schema, qc)
	eliminateTrailingSortedOrderings(schema, qc)
}

func reorderConstraints(schema coltable.Schema, qc *QueryConstraints) {
	sort.SliceStable(qc.Constraints, func(a, b int) bool {
		ka := priorityKey(columnOf(schema, qc.Constraints[a].Column))
		kb := priorityKey(columnOf(schema, qc.Constraints[b].Column))
		return ka < kb
	})
}

func eliminateEqOrderings(schema coltable.Schema, qc *QueryConstraints) {
	eqColumns := make(map[int]bool)
	for _, c := range qc.Constraints {
		if c.Op == coltable.Eq {
			eqColumns[c.Column] = true
		}
	}
	var kept []coltable.Order
	for _, o := range qc.Orders {
		if !eqColumns[o.Column] {
			kept = append(kept, o)
		}
	}
	qc.Orders = kept
}

func eliminateTrailingSortedOrderings(schema coltable.Schema, qc *QueryConstraints) {
	end := len(qc.Orders)
	for end > 0 {
		o := qc.Orders[end-1]
		if o.Descending || !columnOf(schema, o.Column).IsSorted() {
			break
		}
		end--
	}
	qc.Orders = qc.Orders[:end]
}
