package IS

import (
	"sync"
)

type schemaCacheEntry struct {
	columns []string
	rows    [][]interface{}
}

// SchemaCache is a thread-safe cache for information_schema view results.
// Entries are invalidated by DDL only; row changes never affect them.
type SchemaCache struct {
	mu      sync.RWMutex
	entries map[string]*schemaCacheEntry
}

func NewSchemaCache() *SchemaCache {
	return &SchemaCache{entries: make(map[string]*schemaCacheEntry)}
}

// Get returns cached columns and rows for viewName, or (nil, nil, false) if not present.
func (sc *SchemaCache) Get(viewName string) (columns []string, rows [][]interface{}, ok bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	e, found := sc.entries[viewName]
	if !found {
		return nil, nil, false
	}
	return e.columns, e.rows, true
}

func (sc *SchemaCache) Set(viewName string, columns []string, rows [][]interface{}) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entries[viewName] = &schemaCacheEntry{columns: columns, rows: rows}
}

// Invalidate removes all cached entries.
func (sc *SchemaCache) Invalidate() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entries = make(map[string]*schemaCacheEntry)
}
