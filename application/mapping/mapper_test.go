package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree-backend/domain/tree"
	pkgerrors "familytree-backend/pkg/errors"
)

func TestToResponse_LeafHasEmptyChilds(t *testing.T) {
	p := tree.NewPerson("p-1", "Rahim")
	p.Level = 3
	p.Gender = tree.GenderMale

	resp := ToResponse(p)

	require.NotNil(t, resp)
	assert.Equal(t, "p-1", resp.ID)
	assert.Equal(t, "Rahim", resp.Name)
	assert.Equal(t, 3, resp.Level)
	assert.Equal(t, "Male", resp.Gender)
	assert.NotNil(t, resp.Childs)
	assert.Empty(t, resp.Childs)
}

func TestToResponse_Nil(t *testing.T) {
	assert.Nil(t, ToResponse(nil))
}

func TestToResponse_AttachesDetails(t *testing.T) {
	p := tree.NewPerson("p-1", "Rahim")
	p.Details = &tree.PersonDetails{ID: "p-1", FullName: "Rahim Uddin"}

	resp := ToResponse(p)

	require.NotNil(t, resp.Details)
	assert.Equal(t, "Rahim Uddin", resp.Details.FullName)
}

func TestToTree_NestsChildren(t *testing.T) {
	root := tree.NewPerson("p-1", "Root")
	root.Level = 1
	child := tree.NewPerson("p-2", "Child")
	child.Level = 2
	grand := tree.NewPerson("p-3", "Grandchild")
	grand.Level = 3

	child.AddChild(grand)
	root.AddChild(child)

	resp, err := ToTree(root)

	require.NoError(t, err)
	require.Len(t, resp.Childs, 1)
	assert.Equal(t, "p-2", resp.Childs[0].ID)
	require.Len(t, resp.Childs[0].Childs, 1)
	assert.Equal(t, "p-3", resp.Childs[0].Childs[0].ID)
	assert.Empty(t, resp.Childs[0].Childs[0].Childs)
}

func TestToTree_CycleFails(t *testing.T) {
	root := tree.NewPerson("p-1", "Root")
	child := tree.NewPerson("p-2", "Child")
	root.AddChild(child)
	child.Children = append(child.Children, root)

	resp, err := ToTree(root)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, pkgerrors.IsMalformedHierarchy(err))
}

func TestToTree_SharedSubtreeAllowed(t *testing.T) {
	// p-4 hangs under both p-2 and p-3. Not a cycle, so the walk
	// succeeds and the shared node appears under both parents.
	root := tree.NewPerson("p-1", "Root")
	left := tree.NewPerson("p-2", "Left")
	right := tree.NewPerson("p-3", "Right")
	shared := tree.NewPerson("p-4", "Shared")

	left.AddChild(shared)
	right.AddChild(shared)
	root.AddChild(left)
	root.AddChild(right)

	resp, err := ToTree(root)

	require.NoError(t, err)
	require.Len(t, resp.Childs, 2)
	assert.Equal(t, "p-4", resp.Childs[0].Childs[0].ID)
	assert.Equal(t, "p-4", resp.Childs[1].Childs[0].ID)
}

func TestToResponses_PreservesOrder(t *testing.T) {
	persons := []*tree.Person{
		tree.NewPerson("p-2", "B"),
		tree.NewPerson("p-1", "A"),
	}

	responses := ToResponses(persons)

	require.Len(t, responses, 2)
	assert.Equal(t, "p-2", responses[0].ID)
	assert.Equal(t, "p-1", responses[1].ID)
}

func TestToDetailsResponse_FormatsTimestamps(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	d := &tree.PersonDetails{
		ID:        "p-1",
		FullName:  "Rahim Uddin",
		CreatedAt: created,
	}

	resp := ToDetailsResponse(d)

	require.NotNil(t, resp)
	assert.Equal(t, "2024-03-01T10:30:00Z", resp.CreatedAt)
	assert.Empty(t, resp.UpdatedAt)
}

func TestFromDocumentNode(t *testing.T) {
	node := &DocumentNode{
		ID:     "p-1",
		Name:   "Rahim",
		Gender: "Female",
		Spouse: "Karima",
	}

	p, err := FromDocumentNode(node)

	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, tree.GenderFemale, p.Gender)
	assert.Equal(t, "Karima", p.Spouse)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestFromDocumentNode_BadGender(t *testing.T) {
	node := &DocumentNode{ID: "p-1", Name: "Rahim", Gender: "robot"}

	p, err := FromDocumentNode(node)

	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestFlatten(t *testing.T) {
	root := &DocumentNode{
		ID:   "p-1",
		Name: "Root",
		Childs: []*DocumentNode{
			{
				ID:   "p-2",
				Name: "Child A",
				Childs: []*DocumentNode{
					{ID: "p-4", Name: "Grandchild"},
				},
			},
			{ID: "p-3", Name: "Child B"},
		},
	}

	flat, err := Flatten(root)

	require.NoError(t, err)
	assert.Len(t, flat.Nodes, 4)

	assert.Equal(t, 1, flat.Levels["p-1"])
	assert.Equal(t, 2, flat.Levels["p-2"])
	assert.Equal(t, 2, flat.Levels["p-3"])
	assert.Equal(t, 3, flat.Levels["p-4"])

	assert.NotContains(t, flat.ChildToParent, "p-1")
	assert.Equal(t, "p-1", flat.ChildToParent["p-2"])
	assert.Equal(t, "p-1", flat.ChildToParent["p-3"])
	assert.Equal(t, "p-2", flat.ChildToParent["p-4"])
}

func TestFlatten_DuplicateIdentity(t *testing.T) {
	root := &DocumentNode{
		ID:   "p-1",
		Name: "Root",
		Childs: []*DocumentNode{
			{ID: "p-2", Name: "First"},
			{ID: "p-2", Name: "Second"},
		},
	}

	flat, err := Flatten(root)

	require.Error(t, err)
	assert.Nil(t, flat)
	assert.True(t, pkgerrors.IsDuplicateIdentity(err))
}

func TestFlatten_NilRoot(t *testing.T) {
	flat, err := Flatten(nil)

	require.NoError(t, err)
	assert.Empty(t, flat.Nodes)
	assert.Empty(t, flat.ChildToParent)
}
