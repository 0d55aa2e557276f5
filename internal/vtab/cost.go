package vtab

import (
	"math"

	"github.com/tracequery/tracedb/internal/coltable"
)

// Fixed overhead and tuning constants for EstimateCost. Documented but not
// contractual beyond the monotonicity property: increasing row count never
// decreases the returned cost.
const (
	baseOverheadCost = 1000.0
	idEqFilterCost   = 10.0
	iterationFactor  = 2.0
)

// EstimateCost is a pure function from (schema, row count, constraints,
// orders) to (cost, estimated rows). It walks the constraints in order,
// narrowing a running row estimate R, and stops narrowing once R drops
// below 2 — at that point every remaining constraint is assumed free.
func EstimateCost(schema coltable.Schema, rowCount uint32, constraints []coltable.Constraint, orders []coltable.Order) QueryCost {
	if rowCount == 0 {
		return QueryCost{Cost: baseOverheadCost, EstimatedRows: 0}
	}

	r := float64(rowCount)
	filterCost := 0.0
	singleConstraint := len(constraints) == 1

	for _, c := range constraints {
		if r < 2 {
			break
		}
		col := coltable.Column{}
		if c.Column >= 0 && c.Column < len(schema.Columns) {
			col = schema.Columns[c.Column]
		}
		log2R := math.Log2(r)

		switch {
		case c.Op == coltable.Eq && col.IsId():
			filterCost += idEqFilterCost
			r = 1
		case c.Op == coltable.Eq:
			if singleConstraint || col.IsSorted() {
				filterCost += log2R
			} else {
				filterCost += r
			}
			r = math.Max(1, r/(2*log2R))
		case c.Op.IsRangeOp() && col.IsSorted():
			filterCost += log2R
			r = math.Max(1, r/(2*log2R))
		default:
			filterCost += r
			r = math.Max(1, r/2)
		}
	}

	sortCost := float64(len(orders)) * r * math.Log2(math.Max(r, 1))
	iterationCost := iterationFactor * r

	return QueryCost{
		Cost:          baseOverheadCost + filterCost + sortCost + iterationCost,
		EstimatedRows: uint32(r),
	}
}
