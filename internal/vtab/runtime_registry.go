package vtab

import (
	"sync"

	"github.com/tracequery/tracedb/internal/coltable"
)

// namedTableRegistry is the process-wide collaborator Runtime tables fetch
// their backing coltable.Table from, keyed by name. Grounded on the same
// sync.RWMutex-guarded-map registry shape as internal/intern.Registry.
type namedTableRegistry struct {
	mu     sync.RWMutex
	tables map[string]coltable.Table
}

// NewRuntimeRegistry builds an empty RuntimeRegistry.
func NewRuntimeRegistry() RuntimeRegistry {
	return &namedTableRegistry{tables: make(map[string]coltable.Table)}
}

func (r *namedTableRegistry) Get(name string) (coltable.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	return t, ok
}

func (r *namedTableRegistry) Put(name string, t coltable.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[name] = t
}

func (r *namedTableRegistry) Erase(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, name)
}
