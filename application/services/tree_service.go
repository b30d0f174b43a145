// Package services implements the family tree application services: the
// cached read paths, the mutation paths with explicit cache invalidation,
// and the two-pass bulk loader.
package services

import (
	"context"
	"strconv"

	"familytree-backend/application/mapping"
	"familytree-backend/application/ports"
	"familytree-backend/domain/tree"
	"familytree-backend/infrastructure/cache"
	pkgerrors "familytree-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FamilyTreeService serves the derived read views of the tree through the
// named caches and routes every mutation through the invalidator so no
// reader can observe a view older than a completed mutation.
//
// Reads are read-through: miss, compute from the store, cache, return.
// Writes go straight to the store and then evict; cached values are never
// updated in place.
type FamilyTreeService struct {
	persons     ports.PersonRepository
	details     ports.DetailsRepository
	caches      *cache.Registry
	invalidator *cache.Invalidator
	loader      *TreeLoader
	logger      *zap.Logger
}

// NewFamilyTreeService wires the service with its store, caches and loader.
func NewFamilyTreeService(
	persons ports.PersonRepository,
	details ports.DetailsRepository,
	caches *cache.Registry,
	invalidator *cache.Invalidator,
	loader *TreeLoader,
	logger *zap.Logger,
) *FamilyTreeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FamilyTreeService{
		persons:     persons,
		details:     details,
		caches:      caches,
		invalidator: invalidator,
		loader:      loader,
		logger:      logger,
	}
}

// CreatePersonInput carries the fields for a new person.
type CreatePersonInput struct {
	ID        string
	Name      string
	Gender    string
	Avatar    string
	Address   string
	Level     int
	Signature string
	Spouse    string
	ParentID  string
	PositionX *float64
	PositionY *float64
}

// UpdatePersonInput carries a patch; only non-nil fields are applied.
type UpdatePersonInput struct {
	Name      *string
	Avatar    *string
	Address   *string
	Level     *int
	Signature *string
	Spouse    *string
	PositionX *float64
	PositionY *float64
}

// DetailsInput carries a detail-record patch; only non-nil fields are
// applied when updating an existing record.
type DetailsInput struct {
	FullName     *string
	NickName     *string
	Title        *string
	DateOfBirth  *string
	DateOfDeath  *string
	PlaceOfBirth *string
	PlaceOfDeath *string
	Profession   *string
	Institution  *string
	Bio          *string
	Cell         *string
	Email        *string
	Facebook     *string
	LinkedIn     *string
	Website      *string
	AnyOther     *string
}

// GetFullTree returns the materialized root-to-leaves tree. The root is the
// unique person at level 1; whole-tree reads fail when it is missing.
func (s *FamilyTreeService) GetFullTree(ctx context.Context) (*mapping.PersonResponse, error) {
	var cached mapping.PersonResponse
	if hit, _ := s.caches.GetJSON(ctx, cache.FamilyTreeFull, cache.FullTreeKey, &cached); hit {
		return &cached, nil
	}

	s.logger.Info("Fetching full family tree (cache miss)")

	root, err := s.persons.GetRoot(ctx)
	if err != nil {
		return nil, err
	}

	fullTree, err := s.persons.GetByIDWithDescendants(ctx, root.ID)
	if err != nil {
		return nil, err
	}

	resp, err := mapping.ToTree(fullTree)
	if err != nil {
		return nil, err
	}

	if err := s.caches.SetJSON(ctx, cache.FamilyTreeFull, cache.FullTreeKey, resp); err != nil {
		s.logger.Warn("Failed to cache full tree", zap.Error(err))
	}

	return resp, nil
}

// GetPersonByID returns one person with immediate children.
func (s *FamilyTreeService) GetPersonByID(ctx context.Context, id string) (*mapping.PersonResponse, error) {
	var cached mapping.PersonResponse
	if hit, _ := s.caches.GetJSON(ctx, cache.PersonByID, id, &cached); hit {
		return &cached, nil
	}

	s.logger.Info("Fetching person by ID (cache miss)", zap.String("personId", id))

	person, err := s.persons.GetByIDWithChildren(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err := mapping.ToTree(person)
	if err != nil {
		return nil, err
	}

	if err := s.caches.SetJSON(ctx, cache.PersonByID, id, resp); err != nil {
		s.logger.Warn("Failed to cache person", zap.String("personId", id), zap.Error(err))
	}

	return resp, nil
}

// GetPersonWithDescendants returns one person with its full subtree.
func (s *FamilyTreeService) GetPersonWithDescendants(ctx context.Context, id string) (*mapping.PersonResponse, error) {
	var cached mapping.PersonResponse
	if hit, _ := s.caches.GetJSON(ctx, cache.PersonDescendants, id, &cached); hit {
		return &cached, nil
	}

	s.logger.Info("Fetching person with descendants (cache miss)", zap.String("personId", id))

	person, err := s.persons.GetByIDWithDescendants(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err := mapping.ToTree(person)
	if err != nil {
		return nil, err
	}

	if err := s.caches.SetJSON(ctx, cache.PersonDescendants, id, resp); err != nil {
		s.logger.Warn("Failed to cache subtree", zap.String("personId", id), zap.Error(err))
	}

	return resp, nil
}

// SearchByName returns the persons whose name contains the term.
func (s *FamilyTreeService) SearchByName(ctx context.Context, term string) ([]*mapping.PersonResponse, error) {
	var cached []*mapping.PersonResponse
	if hit, _ := s.caches.GetJSON(ctx, cache.SearchResults, term, &cached); hit {
		return cached, nil
	}

	s.logger.Info("Searching persons by name (cache miss)", zap.String("term", term))

	persons, err := s.persons.SearchByName(ctx, term)
	if err != nil {
		return nil, err
	}

	resp := mapping.ToResponses(persons)

	if err := s.caches.SetJSON(ctx, cache.SearchResults, term, resp); err != nil {
		s.logger.Warn("Failed to cache search results", zap.String("term", term), zap.Error(err))
	}

	return resp, nil
}

// GetPersonsByLevel returns all persons at one generation level.
func (s *FamilyTreeService) GetPersonsByLevel(ctx context.Context, level int) ([]*mapping.PersonResponse, error) {
	key := strconv.Itoa(level)

	var cached []*mapping.PersonResponse
	if hit, _ := s.caches.GetJSON(ctx, cache.PersonsByLevel, key, &cached); hit {
		return cached, nil
	}

	s.logger.Info("Fetching persons by level (cache miss)", zap.Int("level", level))

	persons, err := s.persons.GetByLevel(ctx, level)
	if err != nil {
		return nil, err
	}

	resp := mapping.ToResponses(persons)

	if err := s.caches.SetJSON(ctx, cache.PersonsByLevel, key, resp); err != nil {
		s.logger.Warn("Failed to cache level results", zap.Int("level", level), zap.Error(err))
	}

	return resp, nil
}

// GetTotalCount returns the number of stored persons. Not cached.
func (s *FamilyTreeService) GetTotalCount(ctx context.Context) (int64, error) {
	return s.persons.Count(ctx)
}

// CreatePerson stores a new person and optionally links it to a parent.
func (s *FamilyTreeService) CreatePerson(ctx context.Context, input CreatePersonInput) (*mapping.PersonResponse, error) {
	s.logger.Info("Creating person", zap.String("personId", input.ID))

	exists, err := s.persons.Exists(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, pkgerrors.NewAlreadyExistsError(input.ID)
	}

	if input.ParentID != "" {
		parentExists, err := s.persons.Exists(ctx, input.ParentID)
		if err != nil {
			return nil, err
		}
		if !parentExists {
			return nil, pkgerrors.NewNotFoundError("person '" + input.ParentID + "'")
		}
	}

	gender, err := tree.ParseGender(input.Gender)
	if err != nil {
		return nil, err
	}

	person := tree.NewPerson(input.ID, input.Name)
	person.Gender = gender
	person.Avatar = input.Avatar
	person.Address = input.Address
	person.Level = input.Level
	person.Signature = input.Signature
	person.Spouse = input.Spouse
	person.PositionX = input.PositionX
	person.PositionY = input.PositionY

	saved, err := s.persons.Create(ctx, person)
	if err != nil {
		return nil, err
	}

	if input.ParentID != "" {
		if err := s.persons.CreateEdge(ctx, input.ParentID, saved.ID); err != nil {
			return nil, err
		}
		s.logger.Info("Created parent edge",
			zap.String("parentId", input.ParentID),
			zap.String("childId", saved.ID),
		)
	}

	s.invalidator.OnMutation(ctx, cache.MutationCreate, "")

	return mapping.ToResponse(saved), nil
}

// UpdatePerson applies a partial update. A patch with no recognized field is
// an InvalidMutation error; nothing is written.
func (s *FamilyTreeService) UpdatePerson(ctx context.Context, id string, input UpdatePersonInput) (*mapping.PersonResponse, error) {
	s.logger.Info("Updating person", zap.String("personId", id))

	person, err := s.persons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := false
	if input.Name != nil {
		person.Name = *input.Name
		updated = true
	}
	if input.Avatar != nil {
		person.Avatar = *input.Avatar
		updated = true
	}
	if input.Address != nil {
		person.Address = *input.Address
		updated = true
	}
	if input.Level != nil {
		person.Level = *input.Level
		updated = true
	}
	if input.Signature != nil {
		person.Signature = *input.Signature
		updated = true
	}
	if input.Spouse != nil {
		person.Spouse = *input.Spouse
		updated = true
	}
	if input.PositionX != nil {
		person.PositionX = input.PositionX
		updated = true
	}
	if input.PositionY != nil {
		person.PositionY = input.PositionY
		updated = true
	}

	if !updated {
		return nil, pkgerrors.NewValidationError("no fields to update")
	}

	person.Touch()
	saved, err := s.persons.Save(ctx, person)
	if err != nil {
		return nil, err
	}

	s.invalidator.OnMutation(ctx, cache.MutationUpdate, id)

	return mapping.ToResponse(saved), nil
}

// DeletePerson removes a person. Its subtree is detached, not deleted:
// orphaned descendants stay reachable through level and search scans.
func (s *FamilyTreeService) DeletePerson(ctx context.Context, id string) error {
	s.logger.Info("Deleting person", zap.String("personId", id))

	exists, err := s.persons.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return pkgerrors.NewNotFoundError("person '" + id + "'")
	}

	if err := s.persons.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidator.OnMutation(ctx, cache.MutationDelete, id)
	return nil
}

// ReloadData destroys all stored data and re-imports the configured seed
// document, then clears every cache.
func (s *FamilyTreeService) ReloadData(ctx context.Context) error {
	s.logger.Warn("Reloading data from seed document")

	if err := s.loader.Clear(ctx); err != nil {
		return err
	}

	if _, err := s.loader.LoadFromFile(ctx, s.loader.SeedPath()); err != nil {
		return err
	}

	s.invalidator.OnMutation(ctx, cache.MutationBulkReload, "")
	return nil
}

// ResetAllPositions clears the canvas position of every person.
func (s *FamilyTreeService) ResetAllPositions(ctx context.Context) error {
	s.logger.Info("Resetting all node positions")

	persons, err := s.persons.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, p := range persons {
		p.PositionX = nil
		p.PositionY = nil
		p.Touch()
	}

	if err := s.persons.SaveAll(ctx, persons); err != nil {
		return err
	}

	s.invalidator.OnMutation(ctx, cache.MutationPositionReset, "")

	s.logger.Info("Reset positions", zap.Int("persons", len(persons)))
	return nil
}

// AddOrUpdateDetails creates the person's detail record on first write and
// patches it afterwards.
func (s *FamilyTreeService) AddOrUpdateDetails(ctx context.Context, personID string, input DetailsInput) (*mapping.PersonDetailsResponse, error) {
	s.logger.Info("Saving person details", zap.String("personId", personID))

	exists, err := s.persons.Exists(ctx, personID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pkgerrors.NewNotFoundError("person '" + personID + "'")
	}

	details, err := s.details.FindByPersonID(ctx, personID)
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			return nil, err
		}
		details = &tree.PersonDetails{
			ID:       uuid.New().String(),
			PersonID: personID,
		}
	}

	applyDetails(details, input)
	details.Touch()

	saved, err := s.details.Save(ctx, details)
	if err != nil {
		return nil, err
	}

	s.invalidator.OnMutation(ctx, cache.MutationDetails, personID)

	return mapping.ToDetailsResponse(saved), nil
}

// GetDetails returns the person's detail record, or NotFound.
func (s *FamilyTreeService) GetDetails(ctx context.Context, personID string) (*mapping.PersonDetailsResponse, error) {
	details, err := s.details.FindByPersonID(ctx, personID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDetailsResponse(details), nil
}

// DeleteDetails removes the person's detail record.
func (s *FamilyTreeService) DeleteDetails(ctx context.Context, personID string) error {
	s.logger.Info("Deleting person details", zap.String("personId", personID))

	exists, err := s.persons.Exists(ctx, personID)
	if err != nil {
		return err
	}
	if !exists {
		return pkgerrors.NewNotFoundError("person '" + personID + "'")
	}

	if err := s.details.DeleteByPersonID(ctx, personID); err != nil {
		return err
	}

	s.invalidator.OnMutation(ctx, cache.MutationDetails, personID)
	return nil
}

func applyDetails(details *tree.PersonDetails, input DetailsInput) {
	if input.FullName != nil {
		details.FullName = *input.FullName
	}
	if input.NickName != nil {
		details.NickName = *input.NickName
	}
	if input.Title != nil {
		details.Title = *input.Title
	}
	if input.DateOfBirth != nil {
		details.DateOfBirth = *input.DateOfBirth
	}
	if input.DateOfDeath != nil {
		details.DateOfDeath = *input.DateOfDeath
	}
	if input.PlaceOfBirth != nil {
		details.PlaceOfBirth = *input.PlaceOfBirth
	}
	if input.PlaceOfDeath != nil {
		details.PlaceOfDeath = *input.PlaceOfDeath
	}
	if input.Profession != nil {
		details.Profession = *input.Profession
	}
	if input.Institution != nil {
		details.Institution = *input.Institution
	}
	if input.Bio != nil {
		details.Bio = *input.Bio
	}
	if input.Cell != nil {
		details.Cell = *input.Cell
	}
	if input.Email != nil {
		details.Email = *input.Email
	}
	if input.Facebook != nil {
		details.Facebook = *input.Facebook
	}
	if input.LinkedIn != nil {
		details.LinkedIn = *input.LinkedIn
	}
	if input.Website != nil {
		details.Website = *input.Website
	}
	if input.AnyOther != nil {
		details.AnyOther = *input.AnyOther
	}
}
