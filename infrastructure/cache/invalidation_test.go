package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// seedAll fills every cache with one entry per interesting key so a test can
// check exactly which entries survive a mutation.
func seedAll(t *testing.T, r *Registry) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, r.SetJSON(ctx, FamilyTreeFull, FullTreeKey, "tree"))
	require.NoError(t, r.SetJSON(ctx, PersonByID, "p-1", "one"))
	require.NoError(t, r.SetJSON(ctx, PersonByID, "p-2", "two"))
	require.NoError(t, r.SetJSON(ctx, PersonDescendants, "p-1", "sub"))
	require.NoError(t, r.SetJSON(ctx, SearchResults, "karim", "results"))
	require.NoError(t, r.SetJSON(ctx, PersonsByLevel, "2", "level"))
}

func hasKey(r *Registry, name, key string) bool {
	var out string
	hit, _ := r.GetJSON(context.Background(), name, key, &out)
	return hit
}

func TestInvalidator_Create(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	inv := NewInvalidator(r, zap.NewNop())
	seedAll(t, r)

	inv.OnMutation(context.Background(), MutationCreate, "")

	assert.False(t, hasKey(r, FamilyTreeFull, FullTreeKey))
	assert.False(t, hasKey(r, PersonDescendants, "p-1"))
	assert.False(t, hasKey(r, SearchResults, "karim"))
	assert.False(t, hasKey(r, PersonsByLevel, "2"))

	// Create does not touch the by-id cache
	assert.True(t, hasKey(r, PersonByID, "p-1"))
	assert.True(t, hasKey(r, PersonByID, "p-2"))
}

func TestInvalidator_UpdateEvictsOnlyMutatedPerson(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	inv := NewInvalidator(r, zap.NewNop())
	seedAll(t, r)

	inv.OnMutation(context.Background(), MutationUpdate, "p-1")

	assert.False(t, hasKey(r, FamilyTreeFull, FullTreeKey))
	assert.False(t, hasKey(r, PersonByID, "p-1"))
	assert.False(t, hasKey(r, PersonDescendants, "p-1"))
	assert.False(t, hasKey(r, SearchResults, "karim"))
	assert.False(t, hasKey(r, PersonsByLevel, "2"))

	// The untouched person stays cached
	assert.True(t, hasKey(r, PersonByID, "p-2"))
}

func TestInvalidator_Delete(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	inv := NewInvalidator(r, zap.NewNop())
	seedAll(t, r)

	inv.OnMutation(context.Background(), MutationDelete, "p-2")

	assert.False(t, hasKey(r, PersonByID, "p-2"))
	assert.True(t, hasKey(r, PersonByID, "p-1"))
	assert.False(t, hasKey(r, FamilyTreeFull, FullTreeKey))
}

func TestInvalidator_DetailsLeavesSearchAndLevelAlone(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	inv := NewInvalidator(r, zap.NewNop())
	seedAll(t, r)

	inv.OnMutation(context.Background(), MutationDetails, "p-1")

	assert.False(t, hasKey(r, FamilyTreeFull, FullTreeKey))
	assert.False(t, hasKey(r, PersonByID, "p-1"))
	assert.False(t, hasKey(r, PersonDescendants, "p-1"))

	// Detail records never appear in search or level views
	assert.True(t, hasKey(r, SearchResults, "karim"))
	assert.True(t, hasKey(r, PersonsByLevel, "2"))
	assert.True(t, hasKey(r, PersonByID, "p-2"))
}

func TestInvalidator_BulkReloadClearsEverything(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	inv := NewInvalidator(r, zap.NewNop())
	seedAll(t, r)

	inv.OnMutation(context.Background(), MutationBulkReload, "")

	for name, stats := range r.Stats() {
		assert.Equal(t, 0, stats.Size, name)
	}
}

func TestInvalidator_PositionResetOnlyClearsTree(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	inv := NewInvalidator(r, zap.NewNop())
	seedAll(t, r)

	inv.OnMutation(context.Background(), MutationPositionReset, "")

	assert.False(t, hasKey(r, FamilyTreeFull, FullTreeKey))
	assert.True(t, hasKey(r, PersonByID, "p-1"))
	assert.True(t, hasKey(r, PersonDescendants, "p-1"))
	assert.True(t, hasKey(r, SearchResults, "karim"))
	assert.True(t, hasKey(r, PersonsByLevel, "2"))
}
