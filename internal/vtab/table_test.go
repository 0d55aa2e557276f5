package vtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracequery/tracedb/internal/coltable"
)

func TestBestIndexRejectsMissingHiddenColumnConstraint(t *testing.T) {
	fn := &fakeTableFunction{schema: hiddenArgSchema(), returnTbl: valueTable(1)}
	table := NewTableFunctionTable("tf", fn)
	_, err := table.Init(nil)
	require.NoError(t, err)

	qc := &QueryConstraints{}
	var info IndexInfo
	err = table.BestIndex(qc, &info)
	assert.Error(t, err, "a TableFunction queried with no constraint on its hidden column must fail BestIndex")
}

func TestBestIndexRejectsNonEqHiddenColumnConstraint(t *testing.T) {
	fn := &fakeTableFunction{schema: hiddenArgSchema(), returnTbl: valueTable(1)}
	table := NewTableFunctionTable("tf", fn)
	_, err := table.Init(nil)
	require.NoError(t, err)

	qc := &QueryConstraints{Constraints: []coltable.Constraint{
		{Column: 2, Op: coltable.Gt, Value: coltable.IntValue(5)},
	}}
	var info IndexInfo
	err = table.BestIndex(qc, &info)
	assert.Error(t, err)
}

func TestBestIndexAcceptsSingleEqHiddenColumnConstraint(t *testing.T) {
	fn := &fakeTableFunction{schema: hiddenArgSchema(), returnTbl: valueTable(1)}
	table := NewTableFunctionTable("tf", fn)
	_, err := table.Init(nil)
	require.NoError(t, err)

	qc := &QueryConstraints{Constraints: []coltable.Constraint{
		{Column: 2, Op: coltable.Eq, Value: coltable.IntValue(5)},
	}}
	var info IndexInfo
	require.NoError(t, table.BestIndex(qc, &info))
	assert.Equal(t, uint32(1), info.Cost.EstimatedRows)
}

func TestDestroyErasesRuntimeRegistryEntry(t *testing.T) {
	registry := NewRuntimeRegistry()
	registry.Put("backing", valueTable(1, 2))
	table := NewRuntimeTable("live", "backing", registry, valueSchema(), NewCache(8))
	_, err := table.Init(nil)
	require.NoError(t, err)

	require.NoError(t, table.Destroy())
	_, ok := registry.Get("backing")
	assert.False(t, ok)
}

func TestInitAssertsIdColumnPresent(t *testing.T) {
	noIDSchema := coltable.Schema{Columns: []coltable.Column{{Name: "v", Type: coltable.TypeInt}}}
	tbl := NewStaticTable("bad", coltable.NewStaticTable(noIDSchema, nil), NewCache(8))

	assert.Panics(t, func() { _, _ = tbl.Init(nil) })
}
