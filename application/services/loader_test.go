package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"familytree-backend/application/mapping"
	"familytree-backend/application/ports"
	"familytree-backend/infrastructure/persistence/memory"
	pkgerrors "familytree-backend/pkg/errors"
)

func sampleDocument() *mapping.DocumentNode {
	return &mapping.DocumentNode{
		ID:     "p-1",
		Name:   "Abdur Rahman",
		Gender: "Male",
		Childs: []*mapping.DocumentNode{
			{
				ID:     "p-2",
				Name:   "Karim",
				Gender: "Male",
				Childs: []*mapping.DocumentNode{
					{ID: "p-4", Name: "Salma", Gender: "Female"},
				},
			},
			{ID: "p-3", Name: "Rahim", Gender: "Male"},
		},
	}
}

func TestLoader_Load(t *testing.T) {
	store := memory.NewStore()
	loader := NewTreeLoader(store.Persons(), "", zap.NewNop())
	ctx := context.Background()

	result, err := loader.Load(ctx, sampleDocument())

	require.NoError(t, err)
	assert.Equal(t, 4, result.NodeCount)
	assert.Equal(t, 3, result.EdgesCreated)
	assert.Zero(t, result.FailedEdges)

	root, err := store.Persons().GetRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p-1", root.ID)
	assert.Equal(t, 1, root.Level)

	grandchild, err := store.Persons().GetByID(ctx, "p-4")
	require.NoError(t, err)
	assert.Equal(t, 3, grandchild.Level)

	children, err := store.Persons().FindChildren(ctx, "p-1")
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestLoader_DuplicateIdentityAborts(t *testing.T) {
	store := memory.NewStore()
	loader := NewTreeLoader(store.Persons(), "", zap.NewNop())
	ctx := context.Background()

	doc := sampleDocument()
	doc.Childs = append(doc.Childs, &mapping.DocumentNode{ID: "p-2", Name: "Duplicate"})

	result, err := loader.Load(ctx, doc)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsDuplicateIdentity(err))

	// The flattening pass fails before any write; the store stays empty.
	count, err := store.Persons().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// edgeFailingRepository forces CreateEdge to fail for one child so the
// per-edge resilience of the import can be observed.
type edgeFailingRepository struct {
	ports.PersonRepository
	failChildID string
}

func (r *edgeFailingRepository) CreateEdge(ctx context.Context, parentID, childID string) error {
	if childID == r.failChildID {
		return pkgerrors.NewDatabaseError("put edge", assert.AnError)
	}
	return r.PersonRepository.CreateEdge(ctx, parentID, childID)
}

func TestLoader_EdgeFailureDoesNotAbortImport(t *testing.T) {
	store := memory.NewStore()
	repo := &edgeFailingRepository{PersonRepository: store.Persons(), failChildID: "p-3"}
	loader := NewTreeLoader(repo, "", zap.NewNop())
	ctx := context.Background()

	result, err := loader.Load(ctx, sampleDocument())

	require.NoError(t, err)
	assert.Equal(t, 4, result.NodeCount)
	assert.Equal(t, 2, result.EdgesCreated)
	assert.Equal(t, 1, result.FailedEdges)

	// Every node survives even though one edge was lost.
	count, err := store.Persons().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	children, err := store.Persons().FindChildren(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "p-2", children[0].ID)
}

func TestLoader_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	doc := []byte(`{
		"id": "p-1",
		"name": "Abdur Rahman",
		"childs": [
			{"id": "p-2", "name": "Karim"}
		]
	}`)
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	store := memory.NewStore()
	loader := NewTreeLoader(store.Persons(), "", zap.NewNop())

	result, err := loader.LoadFromFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 2, result.NodeCount)
	assert.Equal(t, 1, result.EdgesCreated)
}

func TestLoader_LoadFromFile_NoPath(t *testing.T) {
	store := memory.NewStore()
	loader := NewTreeLoader(store.Persons(), "", zap.NewNop())

	_, err := loader.LoadFromFile(context.Background(), "")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestLoader_LoadFromFile_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := memory.NewStore()
	loader := NewTreeLoader(store.Persons(), "", zap.NewNop())

	_, err := loader.LoadFromFile(context.Background(), path)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestLoader_SeedIfEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	doc := []byte(`{"id": "p-1", "name": "Abdur Rahman"}`)
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	store := memory.NewStore()
	loader := NewTreeLoader(store.Persons(), path, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, loader.SeedIfEmpty(ctx))

	count, err := store.Persons().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLoader_SeedIfEmpty_SkipsPopulatedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	doc := []byte(`{"id": "p-1", "name": "Abdur Rahman"}`)
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	store := memory.NewStore()
	loader := NewTreeLoader(store.Persons(), path, zap.NewNop())
	ctx := context.Background()

	_, err := loader.Load(ctx, &mapping.DocumentNode{ID: "p-9", Name: "Existing"})
	require.NoError(t, err)

	require.NoError(t, loader.SeedIfEmpty(ctx))

	// The seed document was not imported on top of the existing data.
	_, err = store.Persons().GetByID(ctx, "p-1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestLoader_SeedIfEmpty_Disabled(t *testing.T) {
	store := memory.NewStore()
	loader := NewTreeLoader(store.Persons(), "", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, loader.SeedIfEmpty(ctx))

	count, err := store.Persons().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoader_Clear(t *testing.T) {
	store := memory.NewStore()
	loader := NewTreeLoader(store.Persons(), "", zap.NewNop())
	ctx := context.Background()

	_, err := loader.Load(ctx, sampleDocument())
	require.NoError(t, err)

	require.NoError(t, loader.Clear(ctx))

	count, err := store.Persons().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
