// Package tracedb is the public facade tying the mapping tracker and the
// virtual-table query bridge together into one process-wide handle, in
// the role the teacher's pkg/sqlvibe.Database plays for its own engine.
package tracedb

import (
	"fmt"
	"sync"

	"github.com/tracequery/tracedb/internal/coltable"
	"github.com/tracequery/tracedb/internal/intern"
	"github.com/tracequery/tracedb/internal/mapping"
	"github.com/tracequery/tracedb/internal/vtab"
)

// Database owns one MappingTracker, one process-wide string interner,
// one QueryCache, and the set of virtual tables registered against it.
type Database struct {
	mu sync.RWMutex

	strings *intern.Registry
	tracker *mapping.Tracker
	cache   *vtab.Cache
	runtime vtab.RuntimeRegistry

	tables map[string]*vtab.Table
}

// Options configures a new Database. FrameTable and FrameNotifier are the
// two out-of-scope collaborators the mapping tracker calls into; callers
// must supply concrete implementations.
type Options struct {
	FrameTable    mapping.FrameTable
	FrameNotifier mapping.FrameCreatedNotifier
	CacheSize     int
}

// Open constructs a Database with a fresh process-wide string interner,
// mapping tracker, query cache and runtime-table registry.
func Open(opts Options) *Database {
	strings := intern.New()
	return &Database{
		strings: strings,
		tracker: mapping.New(opts.FrameTable, opts.FrameNotifier, strings),
		cache:   vtab.NewCache(opts.CacheSize),
		runtime: vtab.NewRuntimeRegistry(),
		tables:  make(map[string]*vtab.Table),
	}
}

// Tracker returns the Database's MappingTracker.
func (db *Database) Tracker() *mapping.Tracker { return db.tracker }

// Strings returns the Database's process-wide string interner.
func (db *Database) Strings() *intern.Registry { return db.strings }

// RegisterStaticTable wraps t as a Static virtual table named name and
// registers it for lookup by Table.
func (db *Database) RegisterStaticTable(name string, t coltable.Table) (*vtab.Table, error) {
	vt := vtab.NewStaticTable(name, t, db.cache)
	if _, err := vt.Init(nil); err != nil {
		return nil, err
	}
	return db.register(name, vt)
}

// RegisterRuntimeTable declares a Runtime virtual table named name that
// fetches its backing table by runtimeName from the Database's shared
// registry; PublishRuntimeTable populates that entry.
func (db *Database) RegisterRuntimeTable(name, runtimeName string, schema coltable.Schema) (*vtab.Table, error) {
	vt := vtab.NewRuntimeTable(name, runtimeName, db.runtime, schema, db.cache)
	if _, err := vt.Init(nil); err != nil {
		return nil, err
	}
	return db.register(name, vt)
}

// PublishRuntimeTable installs t under runtimeName for every Runtime
// virtual table that names it.
func (db *Database) PublishRuntimeTable(runtimeName string, t coltable.Table) {
	db.runtime.Put(runtimeName, t)
}

// RegisterTableFunction wraps fn as a TableFunction virtual table named
// name.
func (db *Database) RegisterTableFunction(name string, fn coltable.TableFunction) (*vtab.Table, error) {
	vt := vtab.NewTableFunctionTable(name, fn)
	if _, err := vt.Init(nil); err != nil {
		return nil, err
	}
	return db.register(name, vt)
}

func (db *Database) register(name string, vt *vtab.Table) (*vtab.Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.tables[name]; exists {
		return nil, fmt.Errorf("tracedb: table %q already registered", name)
	}
	db.tables[name] = vt
	return vt, nil
}

// Table returns the virtual table registered under name.
func (db *Database) Table(name string) (*vtab.Table, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	vt, ok := db.tables[name]
	return vt, ok
}

// DropTable destroys and deregisters the virtual table named name.
func (db *Database) DropTable(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	vt, ok := db.tables[name]
	if !ok {
		return fmt.Errorf("tracedb: table %q not registered", name)
	}
	delete(db.tables, name)
	return vt.Destroy()
}
