package sqlvibe

import (
	"github.com/hashicorp/golang-lru"

	"github.com/sqlvibe/upsertc/internal/QP"
	"github.com/sqlvibe/upsertc/internal/VM"
)

// statementCache keeps compiled INSERT programs keyed by normalized SQL
// text. Programs are immutable once built, so a cached one can be run by
// any number of VMs. The cache is purged on every DDL.
type statementCache struct {
	cache *lru.Cache
}

// newStatementCache returns nil when size is not positive; a nil cache
// misses on every lookup.
func newStatementCache(size int) *statementCache {
	if size <= 0 {
		return nil
	}
	var cache, err = lru.New(size)
	if err != nil {
		panic(err.Error()) // Only errors on size <= 0.
	}
	return &statementCache{cache: cache}
}

func cacheKey(sql string) string { return QP.NormalizeQuery(sql) }

func (sc *statementCache) Get(sql string) (*VM.Program, bool) {
	if sc == nil {
		return nil, false
	}
	if v, ok := sc.cache.Get(cacheKey(sql)); ok {
		return v.(*VM.Program), true
	}
	return nil, false
}

func (sc *statementCache) Add(sql string, prog *VM.Program) {
	if sc == nil {
		return
	}
	sc.cache.Add(cacheKey(sql), prog)
}

// Purge drops every cached program.
func (sc *statementCache) Purge() {
	if sc == nil {
		return
	}
	sc.cache.Purge()
}

func (sc *statementCache) Len() int {
	if sc == nil {
		return 0
	}
	return sc.cache.Len()
}
