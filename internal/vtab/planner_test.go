package vtab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracequery/tracedb/internal/coltable"
)

func planSchema() coltable.Schema {
	return coltable.Schema{Columns: []coltable.Column{
		{Name: "id", Flags: coltable.FlagIsId},
		{Name: "group", Flags: coltable.FlagIsSetId},
		{Name: "ts", Flags: coltable.FlagIsSorted},
		{Name: "payload"},
	}}
}

func TestPlanReordersByPriorityStably(t *testing.T) {
	schema := planSchema()
	qc := &QueryConstraints{Constraints: []coltable.Constraint{
		{Column: 3, Op: coltable.Eq},
		{Column: 2, Op: coltable.Ge},
		{Column: 0, Op: coltable.Eq},
		{Column: 1, Op: coltable.Eq},
		{Column: 3, Op: coltable.Ne},
	}}

	Plan(schema, qc)

	var order []int
	for _, c := range qc.Constraints {
		order = append(order, c.Column)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 3}, order)
}

func TestPlanPreservesConstraintMultiset(t *testing.T) {
	schema := planSchema()
	original := []coltable.Constraint{
		{Column: 3, Op: coltable.Eq},
		{Column: 2, Op: coltable.Ge},
		{Column: 0, Op: coltable.Eq},
	}
	qc := &QueryConstraints{Constraints: append([]coltable.Constraint(nil), original...)}

	Plan(schema, qc)

	assert.ElementsMatch(t, original, qc.Constraints)
}

func TestPlanEliminatesOrderingsWithEqConstraint(t *testing.T) {
	schema := planSchema()
	qc := &QueryConstraints{
		Constraints: []coltable.Constraint{{Column: 0, Op: coltable.Eq}},
		Orders:      []coltable.Order{{Column: 0}, {Column: 3}},
	}

	Plan(schema, qc)

	assert.Len(t, qc.Orders, 1)
	assert.Equal(t, 3, qc.Orders[0].Column)
}

func TestPlanPrunesTrailingAscendingSortedOrderings(t *testing.T) {
	schema := planSchema()
	qc := &QueryConstraints{
		Orders: []coltable.Order{{Column: 3}, {Column: 2}},
	}

	Plan(schema, qc)

	assert.Equal(t, []coltable.Order{{Column: 3}}, qc.Orders)
}

func TestPlanKeepsTrailingDescendingSortedOrdering(t *testing.T) {
	schema := planSchema()
	qc := &QueryConstraints{
		Orders: []coltable.Order{{Column: 3}, {Column: 2, Descending: true}},
	}

	Plan(schema, qc)

	assert.Equal(t, []coltable.Order{{Column: 3}, {Column: 2, Descending: true}}, qc.Orders)
}
