package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
)

// Key identifies one cached resolution. The project ID is part of the key
// so membership changes can purge a whole project without knowing which
// entities live under it.
type Key struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Entity    entity.Ref
}

// Cache stores computed resolutions. Implementations must tolerate
// concurrent readers and writers; failed resolutions are never stored.
type Cache interface {
	// Get retrieves a cached resolution.
	Get(ctx context.Context, key Key) (Resolution, bool)

	// Set stores a resolution with the given TTL.
	Set(ctx context.Context, key Key, res Resolution, ttl time.Duration)

	// DeleteEntity removes every user's entry for one entity.
	DeleteEntity(ctx context.Context, ref entity.Ref)

	// DeleteProject removes every entry under one project.
	DeleteProject(ctx context.Context, projectID uuid.UUID)

	// DeleteAll purges the cache. Used for coarse invalidation when the
	// affected key set cannot be computed cheaply (group changes).
	DeleteAll(ctx context.Context)

	// Close releases any resources held by the cache.
	Close() error
}

// DefaultCacheSize bounds the in-memory cache.
const DefaultCacheSize = 10000

type cacheEntry struct {
	res       Resolution
	expiresAt time.Time
}

// MemoryCache is a bounded in-memory TTL cache with a background sweep for
// expired entries. Eviction at capacity drops an arbitrary entry; the TTL
// keeps the working set fresh enough that precision is not worth an LRU
// list on this path.
type MemoryCache struct {
	mu      sync.RWMutex
	items   map[Key]cacheEntry
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

// NewMemoryCache creates an in-memory cache with the default size bound.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithSize(DefaultCacheSize)
}

// NewMemoryCacheWithSize creates an in-memory cache bounded to maxSize
// entries.
func NewMemoryCacheWithSize(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	c := &MemoryCache{
		items:   make(map[Key]cacheEntry),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get retrieves a cached resolution.
func (c *MemoryCache) Get(ctx context.Context, key Key) (Resolution, bool) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return Resolution{}, false
	}
	return entry.res, true
}

// Set stores a resolution with the given TTL.
func (c *MemoryCache) Set(ctx context.Context, key Key, res Resolution, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		for k := range c.items {
			delete(c.items, k)
			break
		}
	}
	c.items[key] = cacheEntry{res: res, expiresAt: time.Now().Add(ttl)}
}

// DeleteEntity removes every user's entry for one entity.
func (c *MemoryCache) DeleteEntity(ctx context.Context, ref entity.Ref) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if key.Entity == ref {
			delete(c.items, key)
		}
	}
}

// DeleteProject removes every entry under one project.
func (c *MemoryCache) DeleteProject(ctx context.Context, projectID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if key.ProjectID == projectID {
			delete(c.items, key)
		}
	}
}

// DeleteAll purges the cache.
func (c *MemoryCache) DeleteAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}

func (c *MemoryCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.items {
				if now.After(entry.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// Close stops the sweep goroutine.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

// NoOpCache disables caching; every lookup misses.
type NoOpCache struct{}

func (NoOpCache) Get(ctx context.Context, key Key) (Resolution, bool)              { return Resolution{}, false }
func (NoOpCache) Set(ctx context.Context, key Key, res Resolution, _ time.Duration) {}
func (NoOpCache) DeleteEntity(ctx context.Context, ref entity.Ref)                  {}
func (NoOpCache) DeleteProject(ctx context.Context, projectID uuid.UUID)            {}
func (NoOpCache) DeleteAll(ctx context.Context)                                     {}
func (NoOpCache) Close() error                                                      { return nil }
