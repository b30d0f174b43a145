package mapping

import (
	"time"

	"familytree-backend/domain/tree"
	pkgerrors "familytree-backend/pkg/errors"
)

// ToResponse maps a person to its response form without children. The child
// list is always present and empty so clients can append to it blindly.
func ToResponse(p *tree.Person) *PersonResponse {
	if p == nil {
		return nil
	}

	resp := &PersonResponse{
		ID:               p.ID,
		Name:             p.Name,
		Avatar:           p.Avatar,
		Address:          p.Address,
		Level:            p.Level,
		Signature:        p.Signature,
		SignatureID:      p.SignatureID,
		Spouse:           p.Spouse,
		Gender:           p.Gender.Label(),
		ContributorID:    p.ContributorID,
		IsPositionLocked: p.IsPositionLocked,
		PositionX:        p.PositionX,
		PositionY:        p.PositionY,
		Childs:           []*PersonResponse{},
	}

	if p.HasDetails() {
		resp.Details = ToDetailsResponse(p.Details)
	}

	return resp
}

// ToTree maps a person and its hydrated children to a nested response tree,
// depth-first. A cycle in the store-returned structure fails with a
// MalformedHierarchy error instead of recursing forever.
func ToTree(p *tree.Person) (*PersonResponse, error) {
	return toTree(p, make(map[string]bool))
}

// toTree tracks the ids on the current ancestor path; revisiting one means
// the store returned a cycle.
func toTree(p *tree.Person, path map[string]bool) (*PersonResponse, error) {
	if p == nil {
		return nil, nil
	}

	if path[p.ID] {
		return nil, pkgerrors.NewMalformedHierarchyError(p.ID)
	}
	path[p.ID] = true
	defer delete(path, p.ID)

	resp := ToResponse(p)

	for _, child := range p.Children {
		childResp, err := toTree(child, path)
		if err != nil {
			return nil, err
		}
		if childResp != nil {
			resp.Childs = append(resp.Childs, childResp)
		}
	}

	return resp, nil
}

// ToResponses maps a flat person list, without children.
func ToResponses(persons []*tree.Person) []*PersonResponse {
	responses := make([]*PersonResponse, 0, len(persons))
	for _, p := range persons {
		responses = append(responses, ToResponse(p))
	}
	return responses
}

// ToDetailsResponse maps a detail record to its response form.
func ToDetailsResponse(d *tree.PersonDetails) *PersonDetailsResponse {
	if d == nil {
		return nil
	}

	resp := &PersonDetailsResponse{
		ID:           d.ID,
		FullName:     d.FullName,
		NickName:     d.NickName,
		Title:        d.Title,
		DateOfBirth:  d.DateOfBirth,
		DateOfDeath:  d.DateOfDeath,
		PlaceOfBirth: d.PlaceOfBirth,
		PlaceOfDeath: d.PlaceOfDeath,
		Profession:   d.Profession,
		Institution:  d.Institution,
		Bio:          d.Bio,
		Cell:         d.Cell,
		Email:        d.Email,
		Facebook:     d.Facebook,
		LinkedIn:     d.LinkedIn,
		Website:      d.Website,
		AnyOther:     d.AnyOther,
	}

	if !d.CreatedAt.IsZero() {
		resp.CreatedAt = d.CreatedAt.Format(time.RFC3339)
	}
	if !d.UpdatedAt.IsZero() {
		resp.UpdatedAt = d.UpdatedAt.Format(time.RFC3339)
	}

	return resp
}

// FromDocumentNode maps one import document node to a person entity without
// relationships. The level is assigned by the flattening pass.
func FromDocumentNode(node *DocumentNode) (*tree.Person, error) {
	if node == nil {
		return nil, nil
	}

	gender, err := tree.ParseGender(node.Gender)
	if err != nil {
		return nil, err
	}

	person := tree.NewPerson(node.ID, node.Name)
	person.Gender = gender
	person.Avatar = node.Avatar
	person.Address = node.Address
	person.Signature = node.Signature
	person.SignatureID = node.SignatureID
	person.Spouse = node.Spouse
	person.ContributorID = node.ContributorID
	person.IsPositionLocked = node.IsPositionLocked

	return person, nil
}

// FlatDocument is the result of flattening a nested import document: the
// node payloads by identity key, each non-root key mapped to its immediate
// parent, and each key's computed depth (root depth = 1).
type FlatDocument struct {
	Nodes         map[string]*DocumentNode
	ChildToParent map[string]string
	Levels        map[string]int
}

// Flatten walks the document depth-first and produces the flat node set,
// edge list and levels. A duplicate identity anywhere in the document is a
// DuplicateIdentity error; the second occurrence never overwrites the first.
func Flatten(root *DocumentNode) (*FlatDocument, error) {
	flat := &FlatDocument{
		Nodes:         make(map[string]*DocumentNode),
		ChildToParent: make(map[string]string),
		Levels:        make(map[string]int),
	}

	if err := flattenNode(root, "", 1, flat); err != nil {
		return nil, err
	}

	return flat, nil
}

func flattenNode(node *DocumentNode, parentID string, level int, flat *FlatDocument) error {
	if node == nil {
		return nil
	}

	if _, seen := flat.Nodes[node.ID]; seen {
		return pkgerrors.NewDuplicateIdentityError(node.ID)
	}

	flat.Nodes[node.ID] = node
	flat.Levels[node.ID] = level
	if parentID != "" {
		flat.ChildToParent[node.ID] = parentID
	}

	for _, child := range node.Childs {
		if err := flattenNode(child, node.ID, level+1, flat); err != nil {
			return err
		}
	}

	return nil
}
