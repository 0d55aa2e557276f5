package vtab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracequery/tracedb/internal/coltable"
)

func idSchema() coltable.Schema {
	return coltable.Schema{Columns: []coltable.Column{
		{Name: "id", Type: coltable.TypeInt, Flags: coltable.FlagIsId},
		{Name: "name", Type: coltable.TypeString},
		{Name: "ts", Type: coltable.TypeInt, Flags: coltable.FlagIsSorted},
	}}
}

func TestCostFastTrackForIdEq(t *testing.T) {
	schema := idSchema()
	constraints := []coltable.Constraint{{Column: 0, Op: coltable.Eq, Value: coltable.IntValue(42)}}

	got := EstimateCost(schema, 1_000_000, constraints, nil)

	assert.EqualValues(t, 1, got.EstimatedRows)
	assert.Equal(t, 1012.0, got.Cost)
}

func TestCostZeroRows(t *testing.T) {
	got := EstimateCost(idSchema(), 0, []coltable.Constraint{{Column: 1, Op: coltable.Eq, Value: coltable.StringValue("x")}}, nil)
	assert.Equal(t, 1000.0, got.Cost)
	assert.EqualValues(t, 0, got.EstimatedRows)
}

func TestCostMonotonicInRowCount(t *testing.T) {
	schema := idSchema()
	constraints := []coltable.Constraint{{Column: 1, Op: coltable.Ne, Value: coltable.StringValue("x")}}

	var prev float64
	for _, rows := range []uint32{10, 100, 1000, 10000, 100000} {
		got := EstimateCost(schema, rows, constraints, nil)
		assert.GreaterOrEqual(t, got.Cost, prev)
		prev = got.Cost
	}
}

func TestCostSortedRangeConstraintUsesLog2(t *testing.T) {
	schema := idSchema()
	constraints := []coltable.Constraint{{Column: 2, Op: coltable.Ge, Value: coltable.IntValue(5)}}
	unsorted := EstimateCost(schema, 1024, []coltable.Constraint{{Column: 1, Op: coltable.Ge, Value: coltable.StringValue("a")}}, nil)
	sorted := EstimateCost(schema, 1024, constraints, nil)
	assert.Less(t, sorted.Cost, unsorted.Cost)
}
