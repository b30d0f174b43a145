// Package ports defines the persistence interfaces consumed by the
// application layer. Implementations live under infrastructure/persistence.
package ports

import (
	"context"

	"familytree-backend/domain/tree"
)

// PersonRepository is the narrow interface over the hierarchical person
// store. Store-level errors propagate unchanged to callers: NotFound and
// AlreadyExists are surfaced, never swallowed or retried.
type PersonRepository interface {
	// GetRoot returns the unique person at level 1, or NotFound when no
	// such person exists.
	GetRoot(ctx context.Context) (*tree.Person, error)

	// GetByID retrieves a person without relationships.
	GetByID(ctx context.Context, id string) (*tree.Person, error)

	// GetByIDWithChildren retrieves a person with its immediate children
	// hydrated.
	GetByIDWithChildren(ctx context.Context, id string) (*tree.Person, error)

	// GetByIDWithDescendants retrieves a person with its full descendant
	// tree hydrated.
	GetByIDWithDescendants(ctx context.Context, id string) (*tree.Person, error)

	// SearchByName finds persons whose name contains the term,
	// case-insensitively.
	SearchByName(ctx context.Context, term string) ([]*tree.Person, error)

	// GetByLevel returns all persons at the given generation level.
	GetByLevel(ctx context.Context, level int) ([]*tree.Person, error)

	// GetAll returns every person, without relationships.
	GetAll(ctx context.Context) ([]*tree.Person, error)

	// FindChildren returns the immediate children of a person.
	FindChildren(ctx context.Context, id string) ([]*tree.Person, error)

	// Exists reports whether a person with the id is stored.
	Exists(ctx context.Context, id string) (bool, error)

	// Create persists a new person; fails with AlreadyExists when the id
	// is taken.
	Create(ctx context.Context, person *tree.Person) (*tree.Person, error)

	// Save persists an existing person (attributes only, not edges).
	Save(ctx context.Context, person *tree.Person) (*tree.Person, error)

	// SaveAll bulk-persists persons; the write is atomic from the
	// caller's perspective (all nodes stored or none).
	SaveAll(ctx context.Context, persons []*tree.Person) error

	// Delete removes a person and its incoming/outgoing edges; fails with
	// NotFound when absent. Descendants are detached, not deleted.
	Delete(ctx context.Context, id string) error

	// CreateEdge records a parent -> child relationship.
	CreateEdge(ctx context.Context, parentID, childID string) error

	// Count returns the number of stored persons.
	Count(ctx context.Context) (int64, error)

	// DeleteAll destroys every person and edge.
	DeleteAll(ctx context.Context) error
}

// DetailsRepository maintains the 1:1 person detail records and the reverse
// person-id index used to look them up.
type DetailsRepository interface {
	// FindByPersonID returns the detail record for a person, or NotFound.
	FindByPersonID(ctx context.Context, personID string) (*tree.PersonDetails, error)

	// Save persists a detail record (create or update).
	Save(ctx context.Context, details *tree.PersonDetails) (*tree.PersonDetails, error)

	// DeleteByPersonID removes a person's detail record; deleting an
	// absent record is a no-op.
	DeleteByPersonID(ctx context.Context, personID string) error
}
