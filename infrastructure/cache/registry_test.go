package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry_HasAllNamedCaches(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())

	expected := []string{FamilyTreeFull, PersonByID, PersonDescendants, SearchResults, PersonsByLevel}
	assert.Equal(t, expected, r.Names())

	for _, name := range expected {
		_, ok := r.Cache(name)
		assert.True(t, ok, name)
	}
}

func TestRegistry_SettingsOverrideDefaults(t *testing.T) {
	r := NewRegistry(map[string]Settings{
		SearchResults: {MaxItems: 1, TTL: time.Minute},
	}, zap.NewNop())

	ctx := context.Background()
	c, ok := r.Cache(SearchResults)
	require.True(t, ok)

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))

	// Capacity of one means the older entry is gone
	_, found := c.Get(ctx, "a")
	assert.False(t, found)
}

func TestRegistry_GetSetJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil, zap.NewNop())

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	err := r.SetJSON(ctx, PersonByID, "p-1", payload{Name: "Karim", Count: 2})
	require.NoError(t, err)

	var out payload
	hit, err := r.GetJSON(ctx, PersonByID, "p-1", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Name: "Karim", Count: 2}, out)
}

func TestRegistry_GetJSONUnknownCacheIsMiss(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil, zap.NewNop())

	var out map[string]string
	hit, err := r.GetJSON(ctx, "noSuchCache", "key", &out)
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestRegistry_GetJSONCorruptEntryEvicted(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil, zap.NewNop())

	c, _ := r.Cache(PersonByID)
	c.Set(ctx, "p-1", []byte("{not json"))

	var out map[string]string
	hit, err := r.GetJSON(ctx, PersonByID, "p-1", &out)
	assert.False(t, hit)
	assert.Error(t, err)

	// The corrupt entry was dropped
	_, found := c.Get(ctx, "p-1")
	assert.False(t, found)
}

func TestRegistry_ClearAndEvictUnknownCache(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil, zap.NewNop())

	assert.False(t, r.Clear(ctx, "noSuchCache"))
	assert.False(t, r.Evict(ctx, "noSuchCache", "key"))
	assert.True(t, r.Clear(ctx, SearchResults))
	assert.True(t, r.Evict(ctx, SearchResults, "absent-key"))
}

func TestRegistry_ClearAll(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil, zap.NewNop())

	require.NoError(t, r.SetJSON(ctx, FamilyTreeFull, FullTreeKey, "tree"))
	require.NoError(t, r.SetJSON(ctx, PersonByID, "p-1", "person"))

	r.ClearAll(ctx)

	for name, stats := range r.Stats() {
		assert.Equal(t, 0, stats.Size, name)
	}
}
