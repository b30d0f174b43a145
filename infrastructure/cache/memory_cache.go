// Package cache provides the named in-memory caches that front the person
// store: a bounded LRU with per-cache TTL, per-cache statistics, and the
// invalidation rules that keep every cached view consistent with mutations.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryCache is a thread-safe in-memory cache with LRU eviction and TTL
// expiry. Entries are stored as opaque byte slices; callers marshal values
// through the helpers in this package. All synchronization is internal.
type MemoryCache struct {
	mu       sync.Mutex
	name     string
	items    map[string]*cacheItem
	lruList  *list.List
	maxItems int
	ttl      time.Duration

	hits      int64
	misses    int64
	evictions int64

	// now is replaceable in tests to control TTL expiry.
	now func() time.Time

	logger *zap.Logger
}

// cacheItem represents a single cached entry
type cacheItem struct {
	key        string
	value      []byte
	expiry     time.Time
	lruElement *list.Element
}

// NewMemoryCache creates a cache holding at most maxItems entries, each
// expiring ttl after it was stored.
func NewMemoryCache(name string, maxItems int, ttl time.Duration, logger *zap.Logger) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MemoryCache{
		name:     name,
		items:    make(map[string]*cacheItem),
		lruList:  list.New(),
		maxItems: maxItems,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Name returns the cache's registered name.
func (c *MemoryCache) Name() string {
	return c.name
}

// Get retrieves a value from the cache. Expired entries are removed lazily
// and count as misses.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if c.now().After(item.expiry) {
		c.removeItem(item)
		c.evictions++
		c.misses++
		return nil, false
	}

	c.lruList.MoveToFront(item.lruElement)
	c.hits++

	// Return a copy to prevent external modifications
	value := make([]byte, len(item.value))
	copy(value, item.value)

	return value, true
}

// Set stores a value under key, evicting the least recently used entries
// once capacity is exceeded.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, exists := c.items[key]; exists {
		c.removeItem(existing)
	}

	for len(c.items) >= c.maxItems && c.lruList.Len() > 0 {
		oldest := c.lruList.Back()
		if oldest == nil {
			break
		}
		c.removeItem(oldest.Value.(*cacheItem))
		c.evictions++
	}

	item := &cacheItem{
		key:    key,
		value:  make([]byte, len(value)),
		expiry: c.now().Add(c.ttl),
	}
	copy(item.value, value)

	item.lruElement = c.lruList.PushFront(item)
	c.items[key] = item
}

// Evict removes a single key. Evicting an absent key is a no-op.
func (c *MemoryCache) Evict(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		c.removeItem(item)
		c.evictions++
	}
}

// Clear removes every entry from the cache.
func (c *MemoryCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.items)
	c.items = make(map[string]*cacheItem)
	c.lruList.Init()
	c.evictions += int64(count)

	if count > 0 {
		c.logger.Debug("Cleared cache",
			zap.String("cache", c.name),
			zap.Int("entries", count),
		)
	}
}

// removeItem removes an item from the cache (must be called with lock held)
func (c *MemoryCache) removeItem(item *cacheItem) {
	if item.lruElement != nil {
		c.lruList.Remove(item.lruElement)
	}
	delete(c.items, item.key)
}

// Stats returns a snapshot of the cache's counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := float64(0)
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Name:      c.name,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.items),
		HitRate:   hitRate,
	}
}

// Stats holds a point-in-time view of one cache's counters.
type Stats struct {
	Name      string  `json:"cacheName"`
	Hits      int64   `json:"hitCount"`
	Misses    int64   `json:"missCount"`
	Evictions int64   `json:"evictionCount"`
	Size      int     `json:"size"`
	HitRate   float64 `json:"hitRate"`
}

// StartCleanup starts a background goroutine that sweeps expired entries
// until the context is cancelled.
func (c *MemoryCache) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.cleanupExpired()
			}
		}
	}()
}

// cleanupExpired removes expired items from the cache
func (c *MemoryCache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	toRemove := make([]*cacheItem, 0)

	for _, item := range c.items {
		if now.After(item.expiry) {
			toRemove = append(toRemove, item)
		}
	}

	for _, item := range toRemove {
		c.removeItem(item)
		c.evictions++
	}

	if len(toRemove) > 0 {
		c.logger.Debug("Cleaned up expired cache items",
			zap.String("cache", c.name),
			zap.Int("count", len(toRemove)),
		)
	}
}
