package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMemoryCache_HitAndMissCounters(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("test", 10, time.Minute, zap.NewNop())

	// Misses before the key exists, hits after
	for i := 0; i < 3; i++ {
		_, found := c.Get(ctx, "key")
		assert.False(t, found)
	}

	c.Set(ctx, "key", []byte("value"))
	for i := 0; i < 3; i++ {
		value, found := c.Get(ctx, "key")
		assert.True(t, found)
		assert.Equal(t, []byte("value"), value)
	}

	stats := c.Stats()
	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("test", 10, 2*time.Second, zap.NewNop())

	current := time.Unix(1000, 0)
	c.now = func() time.Time { return current }

	c.Set(ctx, "key", []byte("value"))

	// Still fresh just inside the TTL
	current = current.Add(1500 * time.Millisecond)
	_, found := c.Get(ctx, "key")
	assert.True(t, found)

	// Expired once past the TTL; the lazy removal counts as both an
	// eviction and a miss
	current = current.Add(1 * time.Second)
	_, found = c.Get(ctx, "key")
	assert.False(t, found)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0, stats.Size)
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("test", 2, time.Minute, zap.NewNop())

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))

	// Touch "a" so "b" becomes the least recently used
	_, found := c.Get(ctx, "a")
	assert.True(t, found)

	c.Set(ctx, "c", []byte("3"))

	_, found = c.Get(ctx, "b")
	assert.False(t, found, "least recently used entry should have been evicted")
	_, found = c.Get(ctx, "a")
	assert.True(t, found)
	_, found = c.Get(ctx, "c")
	assert.True(t, found)

	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestMemoryCache_ExplicitEvictionDominatesTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("test", 10, time.Hour, zap.NewNop())

	c.Set(ctx, "key", []byte("value"))
	c.Evict(ctx, "key")

	// The entry is gone no matter how fresh it was
	_, found := c.Get(ctx, "key")
	assert.False(t, found)
}

func TestMemoryCache_EvictAbsentKeyIsNoOp(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("test", 10, time.Minute, zap.NewNop())

	c.Evict(ctx, "missing")

	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Evictions)
}

func TestMemoryCache_ClearCountsEvictions(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("test", 10, time.Minute, zap.NewNop())

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))
	c.Clear(ctx)

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Evictions)
	assert.Equal(t, 0, stats.Size)
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("test", 10, time.Minute, zap.NewNop())

	c.Set(ctx, "key", []byte("value"))

	value, _ := c.Get(ctx, "key")
	value[0] = 'X'

	fresh, _ := c.Get(ctx, "key")
	assert.Equal(t, []byte("value"), fresh)
}

func TestMemoryCache_SetReplacesExisting(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("test", 1, time.Minute, zap.NewNop())

	c.Set(ctx, "key", []byte("old"))
	c.Set(ctx, "key", []byte("new"))

	value, found := c.Get(ctx, "key")
	assert.True(t, found)
	assert.Equal(t, []byte("new"), value)
	assert.Equal(t, 1, c.Stats().Size)
}
