package market

import (
	"context"
	"time"

	"coinpulse/internal/cache"
	"coinpulse/internal/metrics"
	"coinpulse/internal/upstream"

	"golang.org/x/sync/singleflight"
)

// Loader performs the upstream call for one cache key.
type Loader[T any] func(ctx context.Context) (T, error)

// Fetcher is the cache-first wrapper every upstream source goes through.
//
// A fresh cache entry short-circuits the network entirely. On a miss the
// loader runs; its result is cached under key and returned. Failures come
// back as *upstream.FetchError naming the source and nothing is cached, so
// the next call retries. Stale data is never returned.
//
// With coalescing on, concurrent misses for the same key share one loader
// call, which runs detached from the callers' cancellation (the upstream
// client still bounds it). With it off, each miss issues its own request.
type Fetcher[T any] struct {
	source   string
	store    cache.Store[T]
	coalesce bool
	group    singleflight.Group
	metrics  *metrics.Metrics
}

func NewFetcher[T any](source string, store cache.Store[T], coalesce bool, m *metrics.Metrics) *Fetcher[T] {
	return &Fetcher[T]{
		source:   source,
		store:    store,
		coalesce: coalesce,
		metrics:  m,
	}
}

func (f *Fetcher[T]) Source() string { return f.source }

// Key builds the cache key for a set of parameters.
func (f *Fetcher[T]) Key(params ...string) string {
	key := f.source
	for _, p := range params {
		key += ":" + p
	}
	return key
}

func (f *Fetcher[T]) Fetch(ctx context.Context, key string, load Loader[T]) (T, error) {
	if v, ok := f.store.Get(ctx, key); ok {
		f.metrics.CacheHit(f.source)
		return v, nil
	}
	f.metrics.CacheMiss(f.source)

	if !f.coalesce {
		return f.load(ctx, key, load)
	}

	// The shared load outlives any single caller; each caller stops waiting
	// when its own ctx is done.
	ch := f.group.DoChan(key, func() (any, error) {
		return f.load(context.WithoutCancel(ctx), key, load)
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			f.metrics.FetchCoalesced(f.source)
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (f *Fetcher[T]) load(ctx context.Context, key string, load Loader[T]) (T, error) {
	start := time.Now()
	v, err := load(ctx)
	f.metrics.ObserveFetch(f.source, time.Since(start))
	if err != nil {
		err = upstream.Wrap(f.source, err)
		f.metrics.FetchError(f.source, string(upstream.KindOf(err)))
		var zero T
		return zero, err
	}
	f.store.Set(ctx, key, v)
	return v, nil
}
