package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedQuery is a rendered statement keyed by its tree fingerprint. Args
// holds the bound values collected during the walk; ParamNames the named
// placeholders in render order.
type CachedQuery struct {
	SQL        string
	Args       []any
	ParamNames []string
}

type QueryCache interface {
	Get(fingerprint uint64) (*CachedQuery, bool)
	Set(fingerprint uint64, q *CachedQuery)
}

type lruQueryCache struct {
	cache *lru.Cache[uint64, *CachedQuery]
}

func NewQueryCache() QueryCache {
	return NewQueryCacheSize(4096)
}

func NewQueryCacheSize(size int) QueryCache {
	c, _ := lru.New[uint64, *CachedQuery](size)
	return &lruQueryCache{cache: c}
}

func (c *lruQueryCache) Get(fingerprint uint64) (*CachedQuery, bool) {
	return c.cache.Get(fingerprint)
}

func (c *lruQueryCache) Set(fingerprint uint64, q *CachedQuery) {
	c.cache.Add(fingerprint, q)
}

// NopQueryCache renders every statement from scratch. Useful in tests and
// for one-off statements.
type NopQueryCache struct{}

func (NopQueryCache) Get(uint64) (*CachedQuery, bool) { return nil, false }
func (NopQueryCache) Set(uint64, *CachedQuery)        {}
