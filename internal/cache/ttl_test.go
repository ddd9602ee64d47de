package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type price struct {
	Price float64 `json:"price"`
}

func TestTTLCacheScenario(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTLCache[price](5 * time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	c.Set(ctx, "btc", price{Price: 50000})

	clock.Advance(4 * time.Minute)
	got, ok := c.Get(ctx, "btc")
	if !ok || got.Price != 50000 {
		t.Fatalf("expected cached price at t=4m, got %+v ok=%v", got, ok)
	}

	clock.Advance(2 * time.Minute)
	if _, ok := c.Get(ctx, "btc"); ok {
		t.Fatal("expected absence at t=6m")
	}
}

func TestTTLCacheExactTTLIsStale(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := NewTTLCache[int](time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	c.Set(ctx, "k", 1)
	clock.Advance(time.Minute - time.Nanosecond)
	if !c.IsValid(ctx, "k") {
		t.Fatal("entry should be valid just before TTL")
	}
	clock.Advance(time.Nanosecond)
	if c.IsValid(ctx, "k") {
		t.Fatal("entry should be stale when age equals TTL")
	}
}

func TestTTLCacheIsValidWithoutGet(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := NewTTLCache[string](time.Second).WithClock(clock.Now)
	ctx := context.Background()

	if c.IsValid(ctx, "missing") {
		t.Fatal("missing key must not be valid")
	}
	c.Set(ctx, "k", "v")
	clock.Advance(2 * time.Second)
	if c.IsValid(ctx, "k") {
		t.Fatal("expired entry must be invalid even if never read")
	}
	if c.Len() != 1 {
		t.Fatalf("stale entries are not evicted, expected len 1 got %d", c.Len())
	}
}

func TestTTLCacheSetOverwritesAndRefreshes(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := NewTTLCache[int](time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	c.Set(ctx, "k", 1)
	clock.Advance(50 * time.Second)
	c.Set(ctx, "k", 2)
	clock.Advance(50 * time.Second)

	got, ok := c.Get(ctx, "k")
	if !ok || got != 2 {
		t.Fatalf("expected refreshed value 2, got %d ok=%v", got, ok)
	}
}

func TestTTLCacheDefaultTTL(t *testing.T) {
	if c := NewTTLCache[int](0); c.TTL() != DefaultTTL {
		t.Fatalf("expected default ttl, got %v", c.TTL())
	}
	if DefaultTTL != 5*time.Minute {
		t.Fatalf("default ttl changed: %v", DefaultTTL)
	}
}

func TestTTLCacheConcurrentAccess(t *testing.T) {
	c := NewTTLCache[int](time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(ctx, "shared", i)
			c.Get(ctx, "shared")
			c.IsValid(ctx, "shared")
		}(i)
	}
	wg.Wait()
	if !c.IsValid(ctx, "shared") {
		t.Fatal("expected shared key to be valid")
	}
}

func TestNewPicksBackend(t *testing.T) {
	if _, ok := New[int](nil, "p:", time.Minute).(*TTLCache[int]); !ok {
		t.Fatal("expected in-memory cache without a redis client")
	}
	if _, ok := New[int](newFakeRedis(), "p:", time.Minute).(*RedisStore[int]); !ok {
		t.Fatal("expected redis store with a client")
	}
}
