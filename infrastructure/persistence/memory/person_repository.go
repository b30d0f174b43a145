// Package memory provides in-memory repository implementations used by
// tests and local development.
package memory

import (
	"context"
	"strings"
	"sync"

	"familytree-backend/application/ports"
	"familytree-backend/domain/tree"
	pkgerrors "familytree-backend/pkg/errors"
)

// Store is a thread-safe in-memory person store backing both repository
// interfaces. Persons are stored flat; parent edges live in an adjacency
// set and are hydrated on read, mirroring how the graph store serves
// relationships. Detail records sit in a reverse person-id index.
type Store struct {
	mu       sync.RWMutex
	persons  map[string]*tree.Person
	children map[string]map[string]bool // parent id -> set of child ids
	details  map[string]*tree.PersonDetails
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		persons:  make(map[string]*tree.Person),
		children: make(map[string]map[string]bool),
		details:  make(map[string]*tree.PersonDetails),
	}
}

// Persons returns the store's person repository view.
func (s *Store) Persons() ports.PersonRepository {
	return &PersonRepository{store: s}
}

// Details returns the store's detail-record repository view.
func (s *Store) Details() ports.DetailsRepository {
	return &DetailsRepository{store: s}
}

// PersonRepository implements ports.PersonRepository over a Store.
type PersonRepository struct {
	store *Store
}

var _ ports.PersonRepository = (*PersonRepository)(nil)

// clone copies a person without relationships so callers cannot mutate
// stored state through returned pointers.
func clone(p *tree.Person) *tree.Person {
	c := *p
	c.Children = nil
	c.Details = nil
	return &c
}

func (r *PersonRepository) GetRoot(ctx context.Context) (*tree.Person, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var root *tree.Person
	for _, p := range s.persons {
		if p.Level == 1 {
			if root != nil {
				return nil, pkgerrors.NewInternalError("multiple persons at level 1")
			}
			root = p
		}
	}

	if root == nil {
		return nil, pkgerrors.NewNotFoundError("root person")
	}

	return s.hydrate(root.ID, 0), nil
}

func (r *PersonRepository) GetByID(ctx context.Context, id string) (*tree.Person, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.persons[id]; !ok {
		return nil, pkgerrors.NewNotFoundError("person '" + id + "'")
	}

	return s.hydrate(id, 0), nil
}

func (r *PersonRepository) GetByIDWithChildren(ctx context.Context, id string) (*tree.Person, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.persons[id]; !ok {
		return nil, pkgerrors.NewNotFoundError("person '" + id + "'")
	}

	return s.hydrate(id, 1), nil
}

func (r *PersonRepository) GetByIDWithDescendants(ctx context.Context, id string) (*tree.Person, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.persons[id]; !ok {
		return nil, pkgerrors.NewNotFoundError("person '" + id + "'")
	}

	return s.hydrate(id, -1), nil
}

// hydrate copies a person and attaches children down to depth levels
// (-1 for unbounded). Visited tracking keeps hydration terminating even if
// the edge set was corrupted into a cycle.
func (s *Store) hydrate(id string, depth int) *tree.Person {
	return s.hydrateVisited(id, depth, map[string]bool{})
}

func (s *Store) hydrateVisited(id string, depth int, visited map[string]bool) *tree.Person {
	p, ok := s.persons[id]
	if !ok {
		return nil
	}

	c := clone(p)
	if d, ok := s.details[id]; ok {
		detail := *d
		c.Details = &detail
	}

	if depth == 0 || visited[id] {
		return c
	}
	visited[id] = true

	nextDepth := depth
	if depth > 0 {
		nextDepth = depth - 1
	}

	for childID := range s.children[id] {
		if child := s.hydrateVisited(childID, nextDepth, visited); child != nil {
			c.Children = append(c.Children, child)
		}
	}

	return c
}

func (r *PersonRepository) SearchByName(ctx context.Context, term string) ([]*tree.Person, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(term)
	var matches []*tree.Person
	for _, p := range s.persons {
		if strings.Contains(strings.ToLower(p.Name), lower) {
			matches = append(matches, clone(p))
		}
	}

	return matches, nil
}

func (r *PersonRepository) GetByLevel(ctx context.Context, level int) ([]*tree.Person, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*tree.Person
	for _, p := range s.persons {
		if p.Level == level {
			matches = append(matches, clone(p))
		}
	}

	return matches, nil
}

func (r *PersonRepository) GetAll(ctx context.Context) ([]*tree.Person, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*tree.Person, 0, len(s.persons))
	for _, p := range s.persons {
		all = append(all, clone(p))
	}

	return all, nil
}

func (r *PersonRepository) FindChildren(ctx context.Context, id string) ([]*tree.Person, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*tree.Person
	for childID := range s.children[id] {
		if p, ok := s.persons[childID]; ok {
			result = append(result, clone(p))
		}
	}

	return result, nil
}

func (r *PersonRepository) Exists(ctx context.Context, id string) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.persons[id]
	return ok, nil
}

func (r *PersonRepository) Create(ctx context.Context, person *tree.Person) (*tree.Person, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.persons[person.ID]; exists {
		return nil, pkgerrors.NewAlreadyExistsError(person.ID)
	}

	s.persons[person.ID] = clone(person)
	return clone(person), nil
}

func (r *PersonRepository) Save(ctx context.Context, person *tree.Person) (*tree.Person, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persons[person.ID] = clone(person)
	return clone(person), nil
}

func (r *PersonRepository) SaveAll(ctx context.Context, persons []*tree.Person) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Single lock hold makes the bulk write atomic for readers.
	for _, p := range persons {
		s.persons[p.ID] = clone(p)
	}

	return nil
}

func (r *PersonRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[id]; !ok {
		return pkgerrors.NewNotFoundError("person '" + id + "'")
	}

	delete(s.persons, id)
	delete(s.details, id)
	delete(s.children, id)
	for _, set := range s.children {
		delete(set, id)
	}

	return nil
}

func (r *PersonRepository) CreateEdge(ctx context.Context, parentID, childID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[parentID]; !ok {
		return pkgerrors.NewNotFoundError("person '" + parentID + "'")
	}
	if _, ok := s.persons[childID]; !ok {
		return pkgerrors.NewNotFoundError("person '" + childID + "'")
	}

	if s.children[parentID] == nil {
		s.children[parentID] = make(map[string]bool)
	}
	s.children[parentID][childID] = true

	return nil
}

func (r *PersonRepository) Count(ctx context.Context) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.persons)), nil
}

func (r *PersonRepository) DeleteAll(ctx context.Context) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persons = make(map[string]*tree.Person)
	s.children = make(map[string]map[string]bool)
	s.details = make(map[string]*tree.PersonDetails)

	return nil
}

// DetailsRepository implements ports.DetailsRepository over a Store.
type DetailsRepository struct {
	store *Store
}

var _ ports.DetailsRepository = (*DetailsRepository)(nil)

func (r *DetailsRepository) FindByPersonID(ctx context.Context, personID string) (*tree.PersonDetails, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.details[personID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("details for person '" + personID + "'")
	}

	detail := *d
	return &detail, nil
}

func (r *DetailsRepository) Save(ctx context.Context, details *tree.PersonDetails) (*tree.PersonDetails, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	d := *details
	s.details[details.PersonID] = &d

	saved := d
	return &saved, nil
}

func (r *DetailsRepository) DeleteByPersonID(ctx context.Context, personID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.details, personID)
	return nil
}
