package vtab

import (
	"github.com/tracequery/tracedb/internal/assert"
	"github.com/tracequery/tracedb/internal/coltable"
	"github.com/tracequery/tracedb/internal/errs"
)

// Kind is the table's computation variant.
type Kind int

const (
	// KindStatic wraps a fixed columnar table.
	KindStatic Kind = iota
	// KindRuntime wraps a named, externally managed table fetched by name.
	KindRuntime
	// KindTableFunction wraps a parametrized producer.
	KindTableFunction
)

// RuntimeRegistry is the external collaborator a Runtime table fetches its
// backing coltable.Table from, keyed by name.
type RuntimeRegistry interface {
	Get(name string) (coltable.Table, bool)
	Put(name string, t coltable.Table)
	Erase(name string)
}

// translatable reports whether op maps 1:1 onto an internal FilterOp the
// cursor can execute itself, i.e. whether the SQL engine may omit
// re-checking it. Like, Limit, Offset, Is and IsNot never appear here —
// they stay the SQL engine's job.
func translatable(op coltable.FilterOp) bool {
	switch op {
	case coltable.Eq, coltable.Ne, coltable.Lt, coltable.Le, coltable.Gt, coltable.Ge,
		coltable.IsNull, coltable.IsNotNull, coltable.Glob, coltable.Regex:
		return true
	default:
		return false
	}
}

// Table is the SQL-engine-facing virtual table front end: it answers
// schema, best-index and cursor-open requests, dispatching across its
// three computation variants.
type Table struct {
	Name string
	kind Kind
	schema coltable.Schema

	static coltable.Table

	runtimeName     string
	runtimeRegistry RuntimeRegistry

	tableFunc coltable.TableFunction

	cache *Cache

	hiddenSlot map[int]int // schema column index -> ComputeTable argument slot
}

// NewStaticTable builds a Table wrapping a fixed upstream table.
func NewStaticTable(name string, t coltable.Table, cache *Cache) *Table {
	return &Table{Name: name, kind: KindStatic, static: t, cache: cache}
}

// NewRuntimeTable builds a Table that fetches its backing table by name
// from registry on every Filter.
func NewRuntimeTable(name, runtimeName string, registry RuntimeRegistry, schema coltable.Schema, cache *Cache) *Table {
	return &Table{Name: name, kind: KindRuntime, runtimeName: runtimeName, runtimeRegistry: registry, schema: schema, cache: cache}
}

// NewTableFunctionTable builds a Table wrapping a parametrized producer.
func NewTableFunctionTable(name string, fn coltable.TableFunction) *Table {
	return &Table{Name: name, kind: KindTableFunction, tableFunc: fn}
}

// Init resolves the table's schema per its computation variant and
// verifies exactly one is_id column exists. A missing is_id column is a
// programmer error, not a recoverable one.
func (t *Table) Init(args []string) (coltable.Schema, error) {
	switch t.kind {
	case KindStatic:
		t.schema = t.static.Schema()
	case KindRuntime:
		// schema supplied at construction time; Runtime tables are fetched
		// by name lazily, so there is nothing further to resolve here.
	case KindTableFunction:
		t.schema = t.tableFunc.CreateSchema()
	}

	idColumns := 0
	for _, col := range t.schema.Columns {
		if col.IsId() {
			idColumns++
		}
	}
	assert.Assertf(idColumns == 1, "table %q: schema must have exactly one is_id column, has %d", t.Name, idColumns)

	t.hiddenSlot = make(map[int]int)
	slot := 0
	for i, col := range t.schema.Columns {
		if col.IsHidden() {
			t.hiddenSlot[i] = slot
			slot++
		}
	}
	return t.schema, nil
}

// BestIndex validates TableFunction hidden-column constraints, computes a
// QueryCost via the cost model, and fills in the per-constraint omit
// advisory.
func (t *Table) BestIndex(qc *QueryConstraints, info *IndexInfo) error {
	if t.kind == KindTableFunction {
		if err := validateHiddenColumnConstraints(t.schema, qc.Constraints); err != nil {
			return err
		}
	}

	rowCount := t.rowCountHint()
	info.Cost = EstimateCost(t.schema, rowCount, qc.Constraints, qc.Orders)

	qc.Omit = make([]bool, len(qc.Constraints))
	for i, c := range qc.Constraints {
		qc.Omit[i] = translatable(c.Op)
	}
	qc.OmitOrderBy = true
	return nil
}

// validateHiddenColumnConstraints requires every is_hidden column to carry
// exactly one Eq constraint and no others.
func validateHiddenColumnConstraints(schema coltable.Schema, constraints []coltable.Constraint) error {
	counts := make(map[int]int)
	for _, c := range constraints {
		col := columnOf(schema, c.Column)
		if col.IsHidden() {
			counts[c.Column]++
			if c.Op != coltable.Eq {
				return errs.Newf(errs.Constraint, "hidden column %q requires an Eq constraint, got op %v", col.Name, c.Op)
			}
		}
	}
	for i, col := range schema.Columns {
		if !col.IsHidden() {
			continue
		}
		switch counts[i] {
		case 1:
			// satisfied
		case 0:
			return errs.Newf(errs.Constraint, "hidden column %q requires exactly one Eq constraint, got none", col.Name)
		default:
			return errs.Newf(errs.Constraint, "hidden column %q requires exactly one Eq constraint, got %d", col.Name, counts[i])
		}
	}
	return nil
}

func (t *Table) rowCountHint() uint32 {
	switch t.kind {
	case KindStatic:
		return t.static.RowCount()
	case KindTableFunction:
		return t.tableFunc.EstimateRowCount()
	case KindRuntime:
		if tbl, ok := t.runtimeRegistry.Get(t.runtimeName); ok {
			return tbl.RowCount()
		}
	}
	return 0
}

// ModifyConstraints applies the constraint planner.
func (t *Table) ModifyConstraints(qc *QueryConstraints) {
	Plan(t.schema, qc)
}

// OpenCursor returns a fresh Cursor bound to this table.
func (t *Table) OpenCursor() (*Cursor, error) {
	return newCursor(t), nil
}

// Destroy releases the table's resources. For the Runtime variant it
// instructs the registry to erase the named entry.
func (t *Table) Destroy() error {
	if t.kind == KindRuntime {
		t.runtimeRegistry.Erase(t.runtimeName)
	}
	return nil
}

func (t *Table) resolveSource() (coltable.Table, error) {
	switch t.kind {
	case KindStatic:
		return t.static, nil
	case KindRuntime:
		tbl, ok := t.runtimeRegistry.Get(t.runtimeName)
		assert.Assertf(ok, "runtime table %q: no entry named %q", t.Name, t.runtimeName)
		return tbl, nil
	default:
		assert.Assertf(false, "table %q: resolveSource called on a TableFunction variant", t.Name)
		return nil, nil
	}
}
