package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache(t *testing.T) {
	c := NewQueryCacheSize(2)

	_, ok := c.Get(1)
	assert.False(t, ok)

	q := &CachedQuery{SQL: "SELECT 1", Args: []any{1}}
	c.Set(1, q)

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Same(t, q, got)
}

func TestQueryCacheEviction(t *testing.T) {
	c := NewQueryCacheSize(2)
	c.Set(1, &CachedQuery{SQL: "a"})
	c.Set(2, &CachedQuery{SQL: "b"})
	c.Set(3, &CachedQuery{SQL: "c"})

	_, ok := c.Get(1)
	assert.False(t, ok, "the oldest entry is evicted")
	_, ok = c.Get(3)
	assert.True(t, ok)
}

func TestNopQueryCache(t *testing.T) {
	c := NopQueryCache{}
	c.Set(1, &CachedQuery{SQL: "a"})
	_, ok := c.Get(1)
	assert.False(t, ok)
}
