package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a fetched record stays fresh.
const DefaultTTL = 5 * time.Minute

// Store is the TTL cache contract shared by every fetcher.
//
// Get never returns stale data: an entry older than the TTL reads as absent.
// Set overwrites unconditionally. IsValid is false for missing or expired keys.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, data T)
	IsValid(ctx context.Context, key string) bool
}

type entry[T any] struct {
	data      T
	timestamp time.Time
}

// TTLCache is an in-memory Store. Expired entries are never evicted; they
// stay in the map until overwritten. Key space is the small fixed set of
// sources and symbols, so growth is bounded.
type TTLCache[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[T]
	now     func() time.Time
}

func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTLCache[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (c *TTLCache[T]) WithClock(now func() time.Time) *TTLCache[T] {
	c.now = now
	return c
}

func (c *TTLCache[T]) TTL() time.Duration { return c.ttl }

func (c *TTLCache[T]) Get(_ context.Context, key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.fresh(e) {
		var zero T
		return zero, false
	}
	return e.data, true
}

func (c *TTLCache[T]) Set(_ context.Context, key string, data T) {
	c.mu.Lock()
	c.entries[key] = entry[T]{data: data, timestamp: c.now()}
	c.mu.Unlock()
}

func (c *TTLCache[T]) IsValid(_ context.Context, key string) bool {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return ok && c.fresh(e)
}

// Len counts entries including stale ones.
func (c *TTLCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTLCache[T]) fresh(e entry[T]) bool {
	return c.now().Sub(e.timestamp) < c.ttl
}
