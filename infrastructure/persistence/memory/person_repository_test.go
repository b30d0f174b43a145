package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree-backend/domain/tree"
	pkgerrors "familytree-backend/pkg/errors"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	ctx := context.Background()
	persons := s.Persons()

	for _, spec := range []struct {
		id    string
		name  string
		level int
	}{
		{"p-1", "Abdur Rahman", 1},
		{"p-2", "Karim", 2},
		{"p-3", "Rahim", 2},
		{"p-4", "Salma", 3},
	} {
		p := tree.NewPerson(spec.id, spec.name)
		p.Level = spec.level
		_, err := persons.Create(ctx, p)
		require.NoError(t, err)
	}

	require.NoError(t, persons.CreateEdge(ctx, "p-1", "p-2"))
	require.NoError(t, persons.CreateEdge(ctx, "p-1", "p-3"))
	require.NoError(t, persons.CreateEdge(ctx, "p-2", "p-4"))

	return s
}

func TestGetRoot(t *testing.T) {
	s := seedStore(t)

	root, err := s.Persons().GetRoot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "p-1", root.ID)
	assert.Empty(t, root.Children)
}

func TestGetRoot_Empty(t *testing.T) {
	s := NewStore()

	_, err := s.Persons().GetRoot(context.Background())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestGetRoot_MultipleRoots(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, id := range []string{"p-1", "p-2"} {
		p := tree.NewPerson(id, "Root "+id)
		p.Level = 1
		_, err := s.Persons().Create(ctx, p)
		require.NoError(t, err)
	}

	_, err := s.Persons().GetRoot(ctx)

	require.Error(t, err)
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestGetByID_NoRelationships(t *testing.T) {
	s := seedStore(t)

	p, err := s.Persons().GetByID(context.Background(), "p-1")

	require.NoError(t, err)
	assert.Empty(t, p.Children)
}

func TestGetByIDWithChildren_OneLevelDeep(t *testing.T) {
	s := seedStore(t)

	p, err := s.Persons().GetByIDWithChildren(context.Background(), "p-1")

	require.NoError(t, err)
	require.Len(t, p.Children, 2)
	for _, child := range p.Children {
		assert.Empty(t, child.Children)
	}
}

func TestGetByIDWithDescendants_FullSubtree(t *testing.T) {
	s := seedStore(t)

	p, err := s.Persons().GetByIDWithDescendants(context.Background(), "p-1")

	require.NoError(t, err)
	require.Len(t, p.Children, 2)

	var karim *tree.Person
	for _, child := range p.Children {
		if child.ID == "p-2" {
			karim = child
		}
	}
	require.NotNil(t, karim)
	require.Len(t, karim.Children, 1)
	assert.Equal(t, "p-4", karim.Children[0].ID)
}

func TestGetByID_NotFound(t *testing.T) {
	s := seedStore(t)

	_, err := s.Persons().GetByID(context.Background(), "p-404")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSearchByName_CaseInsensitiveContains(t *testing.T) {
	s := seedStore(t)

	matches, err := s.Persons().SearchByName(context.Background(), "RAH")

	require.NoError(t, err)
	// "RAH" hits both "Abdur Rahman" and "Rahim".
	assert.Len(t, matches, 2)
}

func TestCreate_DuplicateID(t *testing.T) {
	s := seedStore(t)

	_, err := s.Persons().Create(context.Background(), tree.NewPerson("p-1", "Impostor"))

	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestCreateEdge_MissingEndpoint(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	err := s.Persons().CreateEdge(ctx, "p-1", "p-404")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))

	err = s.Persons().CreateEdge(ctx, "p-404", "p-2")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDelete_DetachesSubtreeAndRemovesEdges(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()
	persons := s.Persons()

	require.NoError(t, persons.Delete(ctx, "p-2"))

	_, err := persons.GetByID(ctx, "p-2")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))

	// p-4 survives as an orphan.
	orphan, err := persons.GetByID(ctx, "p-4")
	require.NoError(t, err)
	assert.Equal(t, "p-4", orphan.ID)

	// Both edge directions around p-2 are gone.
	rootChildren, err := persons.FindChildren(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, rootChildren, 1)
	assert.Equal(t, "p-3", rootChildren[0].ID)

	gone, err := persons.FindChildren(ctx, "p-2")
	require.NoError(t, err)
	assert.Empty(t, gone)
}

func TestDelete_NotFound(t *testing.T) {
	s := seedStore(t)

	err := s.Persons().Delete(context.Background(), "p-404")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestReturnedPersonsAreCopies(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	p, err := s.Persons().GetByID(ctx, "p-1")
	require.NoError(t, err)
	p.Name = "Mutated"

	again, err := s.Persons().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Abdur Rahman", again.Name)
}

func TestDeleteAll(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	require.NoError(t, s.Persons().DeleteAll(ctx))

	count, err := s.Persons().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDetailsRepository_Lifecycle(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()
	details := s.Details()

	_, err := details.FindByPersonID(ctx, "p-2")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))

	saved, err := details.Save(ctx, &tree.PersonDetails{
		ID:       "d-1",
		PersonID: "p-2",
		FullName: "Karim Uddin Ahmed",
	})
	require.NoError(t, err)
	assert.Equal(t, "d-1", saved.ID)

	found, err := details.FindByPersonID(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, "Karim Uddin Ahmed", found.FullName)

	require.NoError(t, details.DeleteByPersonID(ctx, "p-2"))

	_, err = details.FindByPersonID(ctx, "p-2")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))

	// Deleting again is a no-op.
	require.NoError(t, details.DeleteByPersonID(ctx, "p-2"))
}

func TestDelete_CascadesDetails(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	_, err := s.Details().Save(ctx, &tree.PersonDetails{
		ID:       "d-1",
		PersonID: "p-2",
		FullName: "Karim Uddin Ahmed",
	})
	require.NoError(t, err)

	require.NoError(t, s.Persons().Delete(ctx, "p-2"))

	_, err = s.Details().FindByPersonID(ctx, "p-2")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}
