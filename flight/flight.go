// Package flight implements the single-flight guard (SFG): an optional
// layer over the cache core that collapses concurrent get-or-compute calls
// for the same key into a single in-flight computation, so a cache miss
// under concurrent load triggers the expensive fill exactly once.
//
// It is grounded directly on the original Rust implementation's
// update_intent module: a cell holds either Available(value) or
// InProgress(signal), the signal is a broadcast so every waiter on the same
// key wakes when the computation finishes, and Put rejects outright while a
// computation is in flight rather than silently racing it.
package flight

import (
	"context"
	"sync"
	"time"

	"github.com/segcache/segcache"
)

// ErrUpdateInProgress is returned by Put when a GetOrUpdate computation is
// currently in flight for the key. It is the same sentinel as
// segcache.ErrUpdateInProgress.
var ErrUpdateInProgress = segcache.ErrUpdateInProgress

// cell is the value a Guard actually stores in its underlying cache: either
// a completed value, or a signal that a computation is in flight. Its own
// mutex guards the transition from in-flight to available, independent of
// whatever lock the underlying cache takes to find the cell itself.
type cell[V any] struct {
	mu        sync.Mutex
	available bool
	value     V
	signal    chan struct{} // closed exactly once, when the computation finishes
}

func newInProgressCell[V any]() *cell[V] {
	return &cell[V]{signal: make(chan struct{})}
}

func newAvailableCell[V any](v V) *cell[V] {
	c := &cell[V]{available: true, value: v}
	return c
}

// snapshot is an immutable read of a cell's state, taken under its mutex.
type snapshot[V any] struct {
	available bool
	value     V
	signal    chan struct{}
}

func (c *cell[V]) read() snapshot[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot[V]{available: c.available, value: c.value, signal: c.signal}
}

// resolve transitions an in-flight cell to Available(value) and wakes every
// waiter subscribed to its signal. Calling it twice on the same cell would
// double-close the channel, so it must only ever be called once per cell,
// by whichever goroutine owns the computation.
func (c *cell[V]) resolve(value V) {
	c.mu.Lock()
	c.available = true
	c.value = value
	signal := c.signal
	c.mu.Unlock()
	close(signal)
}

// Guard collapses concurrent GetOrUpdate calls for the same key into one
// computation. K must be safe to use as a cache key; V is the computed
// value type.
type Guard[K comparable, V any] struct {
	mu    sync.Mutex // serializes the check-then-act in Get/GetOrUpdate/Put
	cache *segcache.Cache[K, *cell[V]]
}

// New wraps a cache core with a single-flight guard. capacity and ttl are
// forwarded to segcache.New unchanged.
func New[K comparable, V any](capacity int, ttl time.Duration) *Guard[K, V] {
	return &Guard[K, V]{cache: segcache.New[K, *cell[V]](capacity, ttl)}
}

// Get returns the available value for key, blocking until any in-flight
// computation for it resolves, or ctx is cancelled. It returns (zero,
// false, nil) if key is absent and nothing is in flight.
func (g *Guard[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	for {
		c, ok := g.lookup(key)
		if !ok {
			return zero, false, nil
		}
		snap := c.read()
		if snap.available {
			return snap.value, true, nil
		}
		select {
		case <-snap.signal:
			continue
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}
	}
}

func (g *Guard[K, V]) lookup(key K) (*cell[V], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache.Get(key)
}

// Compute is the caller-supplied fill function passed to GetOrUpdate.
type Compute[V any] func(ctx context.Context) (V, error)

// GetOrUpdate returns the available value for key if present, otherwise
// runs compute exactly once (even if many goroutines call GetOrUpdate for
// the same key concurrently) and returns its result to every caller waiting
// on that key.
//
// If compute returns an error (as a compute that honours a cancelled ctx
// does) or panics, the in-flight cell is removed rather than left stuck in
// InProgress forever — resolution (a) of the cancellation question: an
// abandoned computation must not livelock every other waiter on the same
// key. A compute that ignores ctx and returns a value still publishes it.
func (g *Guard[K, V]) GetOrUpdate(ctx context.Context, key K, compute Compute[V]) (V, error) {
	var zero V
	for {
		g.mu.Lock()
		c, ok := g.cache.Get(key)
		if !ok {
			c = newInProgressCell[V]()
			g.cache.Put(key, c)
			g.mu.Unlock()
			return g.run(ctx, key, c, compute)
		}
		g.mu.Unlock()

		snap := c.read()
		if snap.available {
			return snap.value, nil
		}
		select {
		case <-snap.signal:
			continue
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

func (g *Guard[K, V]) run(ctx context.Context, key K, c *cell[V], compute Compute[V]) (V, error) {
	var zero V
	resolved := false
	defer func() {
		if !resolved {
			g.abandon(key, c)
		}
	}()
	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	c.resolve(value)
	resolved = true
	return value, nil
}

// abandon removes an in-flight cell that will never resolve (its compute
// failed, panicked or was cancelled) and wakes any waiters, who will then see the key
// as absent and are free to start a fresh computation.
func (g *Guard[K, V]) abandon(key K, c *cell[V]) {
	g.mu.Lock()
	cur, ok := g.cache.Get(key)
	if ok && cur == c {
		g.cache.Delete(key)
	}
	g.mu.Unlock()
	c.mu.Lock()
	signal := c.signal
	already := c.available
	c.mu.Unlock()
	if !already {
		close(signal)
	}
}

// Put sets key's value outright, but is rejected with ErrUpdateInProgress
// if a GetOrUpdate computation is currently in flight for it — a caller
// racing a concurrent fill is expected to wait or retry, not clobber it.
func (g *Guard[K, V]) Put(key K, value V) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.cache.Get(key); ok {
		snap := c.read()
		if !snap.available {
			return ErrUpdateInProgress
		}
	}
	g.cache.Put(key, newAvailableCell(value))
	return nil
}

// Capacity returns the guard's current total entry capacity, summed across
// the backing store's segments.
func (g *Guard[K, V]) Capacity() int { return g.cache.Capacity() }

// Len returns the number of live cells, available or in flight.
func (g *Guard[K, V]) Len() int { return g.cache.Len() }
