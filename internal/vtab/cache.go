package vtab

import (
	"sync"

	"github.com/tracequery/tracedb/internal/coltable"
	"github.com/tracequery/tracedb/internal/tlog"
)

// Cache is the process-wide fingerprint→sorted-table cache shared across
// cursors. Unlike the page cache it is shaped after, entries are never
// touched on Get — a sorted copy doesn't get "hotter" with use — so
// eviction is plain FIFO by insertion order rather than an intrusive LRU
// list.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]coltable.Table
	order   []string
	maxSize int
}

// NewCache builds a Cache that evicts its oldest entry once maxSize
// entries are held. maxSize <= 0 defaults to 64.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &Cache{
		entries: make(map[string]coltable.Table),
		maxSize: maxSize,
	}
}

// GetIfCached returns the sorted table stored under fingerprint, if any.
func (c *Cache) GetIfCached(fingerprint string) (coltable.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[fingerprint]
	return t, ok
}

// GetOrCache returns the cached table under fingerprint if present;
// otherwise it calls build, stores the result, and returns it.
func (c *Cache) GetOrCache(fingerprint string, build func() coltable.Table) coltable.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.entries[fingerprint]; ok {
		return t
	}
	t := build()
	if len(c.order) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		tlog.Debug("vtab cache: evicted %q to make room for %q (maxSize %d)", oldest, fingerprint, c.maxSize)
	}
	c.entries[fingerprint] = t
	c.order = append(c.order, fingerprint)
	tlog.Debug("vtab cache: activated sorted table for %q", fingerprint)
	return t
}

// Size reports the number of entries currently cached.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
