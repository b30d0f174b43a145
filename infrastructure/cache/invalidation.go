package cache

import (
	"context"

	"go.uber.org/zap"
)

// Mutation identifies a kind of store mutation for invalidation purposes.
type Mutation string

const (
	MutationCreate        Mutation = "create"
	MutationUpdate        Mutation = "update"
	MutationDelete        Mutation = "delete"
	MutationDetails       Mutation = "details"
	MutationBulkReload    Mutation = "bulk-reload"
	MutationPositionReset Mutation = "position-reset"
)

// Invalidator maps each mutation to the caches it must evict. Every mutation
// path calls it explicitly, after the store write is durable and before the
// mutation's result is returned, so no reader can observe a cache entry older
// than the mutation once the call returns.
//
// Subtree, search and level caches are keyed by values that cannot be
// enumerated from the mutation alone (an arbitrary person id, a search term,
// a level number), so they are cleared wholesale rather than risking
// staleness.
type Invalidator struct {
	registry *Registry
	logger   *zap.Logger
}

// NewInvalidator creates an invalidator over the given registry.
func NewInvalidator(registry *Registry, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{registry: registry, logger: logger}
}

// OnMutation evicts every cache affected by the mutation. personID is the
// mutated person for update/delete/details mutations and ignored otherwise.
func (i *Invalidator) OnMutation(ctx context.Context, m Mutation, personID string) {
	switch m {
	case MutationCreate:
		i.registry.Clear(ctx, FamilyTreeFull)
		i.registry.Clear(ctx, PersonDescendants)
		i.registry.Clear(ctx, SearchResults)
		i.registry.Clear(ctx, PersonsByLevel)

	case MutationUpdate, MutationDelete:
		i.registry.Clear(ctx, FamilyTreeFull)
		i.registry.Evict(ctx, PersonByID, personID)
		i.registry.Clear(ctx, PersonDescendants)
		i.registry.Clear(ctx, SearchResults)
		i.registry.Clear(ctx, PersonsByLevel)

	case MutationDetails:
		i.registry.Clear(ctx, FamilyTreeFull)
		i.registry.Evict(ctx, PersonByID, personID)
		i.registry.Clear(ctx, PersonDescendants)

	case MutationBulkReload:
		i.registry.ClearAll(ctx)

	case MutationPositionReset:
		i.registry.Clear(ctx, FamilyTreeFull)

	default:
		// Unknown mutation kinds invalidate everything rather than risk a
		// stale read.
		i.registry.ClearAll(ctx)
	}

	i.logger.Debug("Caches invalidated",
		zap.String("mutation", string(m)),
		zap.String("personId", personID),
	)
}
