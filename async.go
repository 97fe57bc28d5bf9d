package segcache

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// CacheAsync wraps a Cache behind a cancellable, context-aware mutex
// instead of a plain sync.Mutex, mirroring the synchronous/asynchronous
// split in the original design: Cache is the synchronous core, CacheAsync
// is a thin facade for callers that need their acquire to respect
// context cancellation. A semaphore.Weighted with weight 1 gives exactly
// that: Acquire(ctx, 1) blocks until the single permit is free or ctx is
// done, and never mutates any cache state on the cancelled path.
type CacheAsync[K comparable, V any] struct {
	sem *semaphore.Weighted
	c   *Cache[K, V]
}

// NewAsync wraps an existing Cache. The wrapped Cache must not be used
// directly elsewhere, or its own internal mutex and this facade's
// semaphore would guard the same state through two different locks.
func NewAsync[K comparable, V any](c *Cache[K, V]) *CacheAsync[K, V] {
	return &CacheAsync[K, V]{sem: semaphore.NewWeighted(1), c: c}
}

func (a *CacheAsync[K, V]) acquire(ctx context.Context) error {
	return a.sem.Acquire(ctx, 1)
}

func (a *CacheAsync[K, V]) release() {
	a.sem.Release(1)
}

// Get behaves like Cache.Get, but returns early with ctx.Err() if ctx is
// cancelled before the permit is acquired.
func (a *CacheAsync[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	if err := a.acquire(ctx); err != nil {
		return zero, false, err
	}
	defer a.release()
	v, ok := a.c.Get(key)
	return v, ok, nil
}

// Put behaves like Cache.Put, but returns early with ctx.Err() if ctx is
// cancelled before the permit is acquired.
func (a *CacheAsync[K, V]) Put(ctx context.Context, key K, value V) error {
	if err := a.acquire(ctx); err != nil {
		return err
	}
	defer a.release()
	a.c.Put(key, value)
	return nil
}

// Evict behaves like Cache.Evict, but returns early with ctx.Err() if ctx
// is cancelled before the permit is acquired.
func (a *CacheAsync[K, V]) Evict(ctx context.Context) (int, error) {
	if err := a.acquire(ctx); err != nil {
		return 0, err
	}
	defer a.release()
	return a.c.Evict(), nil
}

// Len returns the number of live entries. It does not acquire the
// semaphore: Cache.Len takes its own internal lock and a stale-by-a-moment
// count is an acceptable read for a size query.
func (a *CacheAsync[K, V]) Len() int { return a.c.Len() }

// IsEmpty reports whether the cache currently holds no entries.
func (a *CacheAsync[K, V]) IsEmpty() bool { return a.c.IsEmpty() }

// Capacity returns the cache's current total entry capacity.
func (a *CacheAsync[K, V]) Capacity() int { return a.c.Capacity() }

// Stats returns a point-in-time snapshot of the cache's counters.
func (a *CacheAsync[K, V]) Stats() StatsSnapshot { return a.c.Stats() }

// Close stops the wrapped cache's background janitor, if any.
func (a *CacheAsync[K, V]) Close() { a.c.Close() }
