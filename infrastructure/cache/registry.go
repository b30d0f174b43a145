package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Names of the fixed logical caches. Each fronts one read view of the tree.
const (
	FamilyTreeFull    = "familyTreeFull"    // the single materialized root-to-leaves tree
	PersonByID        = "personById"        // one person plus immediate children
	PersonDescendants = "personDescendants" // one person plus full descendant tree
	SearchResults     = "searchResults"     // result list per search term
	PersonsByLevel    = "personsByLevel"    // result list per generation level
)

// FullTreeKey is the single key used in the whole-tree cache.
const FullTreeKey = "fullTree"

// Settings configures one named cache.
type Settings struct {
	MaxItems int
	TTL      time.Duration
}

// DefaultSettings returns the per-cache tuning: the whole tree changes
// rarely and has exactly one entry, search results are the most volatile.
func DefaultSettings() map[string]Settings {
	return map[string]Settings{
		FamilyTreeFull:    {MaxItems: 1, TTL: 10 * time.Minute},
		PersonByID:        {MaxItems: 500, TTL: 5 * time.Minute},
		PersonDescendants: {MaxItems: 100, TTL: 5 * time.Minute},
		SearchResults:     {MaxItems: 200, TTL: 2 * time.Minute},
		PersonsByLevel:    {MaxItems: 50, TTL: 5 * time.Minute},
	}
}

// Registry is the fixed set of named caches, constructed once at startup and
// passed explicitly to every component that needs it.
type Registry struct {
	caches map[string]*MemoryCache
	names  []string
	logger *zap.Logger
}

// NewRegistry builds the registry from per-cache settings. Caches missing
// from settings fall back to the defaults.
func NewRegistry(settings map[string]Settings, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	defaults := DefaultSettings()
	names := []string{FamilyTreeFull, PersonByID, PersonDescendants, SearchResults, PersonsByLevel}

	caches := make(map[string]*MemoryCache, len(names))
	for _, name := range names {
		s, ok := settings[name]
		if !ok {
			s = defaults[name]
		}
		caches[name] = NewMemoryCache(name, s.MaxItems, s.TTL, logger)
	}

	logger.Info("Cache registry initialized", zap.Int("caches", len(names)))

	return &Registry{
		caches: caches,
		names:  names,
		logger: logger,
	}
}

// Cache returns the named cache, or false when no such cache is configured.
func (r *Registry) Cache(name string) (*MemoryCache, bool) {
	c, ok := r.caches[name]
	return c, ok
}

// Names lists the configured cache names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Stats returns counters for every cache, keyed by cache name.
func (r *Registry) Stats() map[string]Stats {
	stats := make(map[string]Stats, len(r.caches))
	for name, c := range r.caches {
		stats[name] = c.Stats()
	}
	return stats
}

// Clear empties one cache. Returns false for an unknown cache name.
func (r *Registry) Clear(ctx context.Context, name string) bool {
	c, ok := r.caches[name]
	if !ok {
		return false
	}
	c.Clear(ctx)
	return true
}

// ClearAll empties every cache.
func (r *Registry) ClearAll(ctx context.Context) {
	for _, c := range r.caches {
		c.Clear(ctx)
	}
	r.logger.Info("All caches cleared")
}

// Evict removes one key from one cache. Unknown cache names and absent keys
// are no-ops, not errors.
func (r *Registry) Evict(ctx context.Context, name, key string) bool {
	c, ok := r.caches[name]
	if !ok {
		return false
	}
	c.Evict(ctx, key)
	return true
}

// StartCleanup starts background expiry sweeps on every cache.
func (r *Registry) StartCleanup(ctx context.Context, interval time.Duration) {
	for _, c := range r.caches {
		c.StartCleanup(ctx, interval)
	}
}

// GetJSON reads key from the named cache and unmarshals it into out. The
// boolean reports a hit. An unknown cache name is a miss.
func (r *Registry) GetJSON(ctx context.Context, name, key string, out interface{}) (bool, error) {
	c, ok := r.caches[name]
	if !ok {
		return false, nil
	}

	data, found := c.Get(ctx, key)
	if !found {
		return false, nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		// A corrupt entry is treated as a miss; drop it so the next read
		// recomputes from the store.
		c.Evict(ctx, key)
		return false, err
	}

	return true, nil
}

// SetJSON marshals v and stores it under key in the named cache.
func (r *Registry) SetJSON(ctx context.Context, name, key string, v interface{}) error {
	c, ok := r.caches[name]
	if !ok {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.Set(ctx, key, data)
	return nil
}
