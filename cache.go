// Package segcache implements the cache core (CC): an LRU-evicted,
// per-entry-TTL cache backed by the segmented node store in package store.
//
// A Cache never shrinks its own capacity U, but the backing store's segment
// count grows and shrinks with it: Put grows a new segment when every
// existing one is full, and an evict sweep reclaims any segment left
// entirely empty.
package segcache

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/segcache/segcache/store"
)

// Cache is a generic, growable, LRU + TTL cache: it has no fixed maximum
// entry count, only a segment growth unit U. All exported methods are safe
// for concurrent use; a single mutex guards the store and index, matching
// tempuscache's original synchronous design.
type Cache[K comparable, V any] struct {
	mu sync.Mutex

	ttl time.Duration
	now func() int64

	store *store.Store[K, V]
	index index[K]

	eagerGetExpiry bool

	stats  *Stats
	log    zerolog.Logger
	janitor *janitor
}

// New constructs a Cache whose backing store grows in segments of unit
// entries, with the given per-entry TTL. unit is the construction parameter
// U (§3/§6): the cache itself carries no fixed maximum entry count, since
// Put grows a fresh segment rather than evicting a live entry once every
// existing segment is full. A non-positive unit is a construction-time
// contract violation (§3) and panics rather than returning an error, since
// there is no sensible recovery for a store that could never hold anything.
func New[K comparable, V any](unit int, ttl time.Duration, opts ...Option[K, V]) *Cache[K, V] {
	if unit <= 0 {
		panic(newContractError("construction", "segment unit must be positive"))
	}

	c := &Cache[K, V]{
		ttl:   ttl,
		now:   func() int64 { return time.Now().UnixNano() },
		store: store.New[K, V](unit),
		index: make(mapIndex[K]),
		stats: newStats(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.janitor != nil {
		c.janitor.start(c.Evict)
	}
	return c
}

// logContractPanic logs a contract violation surfacing from the store
// before letting it continue unwinding. It never recovers: the panic is
// always re-raised, since a contract violation is fatal by design (§7) and
// this is diagnostics only, not error handling.
func (c *Cache[K, V]) logContractPanic() {
	if r := recover(); r != nil {
		c.log.Error().Interface("panic", r).Msg("segcache: contract violation")
		panic(r)
	}
}

// expired reports whether n's entry has gone stale: now - timestamp >= T.
// The same boundary is used for Get, Put's tail-reuse decision, and Evict's
// sweep, so a key that survives one operation at exactly its TTL boundary
// behaves consistently under the next.
func (c *Cache[K, V]) expired(n *store.Node[K, V]) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now()-n.Timestamp >= int64(c.ttl)
}

// Get returns the value stored for key and true, or the zero value and
// false if the key is absent or its entry has expired. A hit promotes the
// entry to the head of the recency list.
//
// Expiry is handled conservatively by default: an expired entry found by Get
// is reported absent but left in place for the next Put or Evict to reclaim
// (§9's recommended reading). WithEagerGetExpiry restores tempuscache's
// original behavior of removing the entry immediately on the expired read.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.logContractPanic()

	var zero V
	h, ok := c.index.get(key)
	if !ok {
		c.stats.misses.Inc()
		return zero, false
	}
	n := c.store.Deref(h)
	if c.expired(n) {
		c.stats.misses.Inc()
		if c.eagerGetExpiry {
			c.removeHandle(key, h)
		}
		return zero, false
	}
	n.Timestamp = c.now()
	c.store.Promote(h)
	c.stats.hits.Inc()
	return n.Value, true
}

// Put inserts or overwrites key's value and refreshes its timestamp,
// placing it at the head of the recency list. It returns the displaced value
// and true if key was already present (its previous value) or if an expired
// tail entry was recycled for it (that entry's value), or the zero value and
// false if a fresh slot was allocated.
//
// If key is already present, its node is reused in place. Otherwise, Put
// first tries to recycle an already-expired tail node (promoting it in place
// rather than allocating a fresh one), regardless of how full the store
// currently is; if the tail is not expired, it falls back to allocating a
// new slot, growing a fresh segment if every existing one is full. A live
// entry is never evicted to make room — the store only grows.
func (c *Cache[K, V]) Put(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.logContractPanic()
	return c.put(key, value)
}

func (c *Cache[K, V]) put(key K, value V) (V, bool) {
	now := c.now()

	if h, ok := c.index.get(key); ok {
		n := c.store.Deref(h)
		old := n.Value
		n.Value = value
		n.Timestamp = now
		c.store.Promote(h)
		return old, true
	}

	if old, ok := c.tryReuseExpiredTail(key, value, now); ok {
		c.refreshGauges()
		return old, true
	}

	var zero V
	segsBefore := c.store.SegmentCount()
	h, n := c.store.Allocate()
	if c.store.SegmentCount() > segsBefore {
		c.stats.grows.Inc()
	}
	n.Key = key
	n.Value = value
	n.Timestamp = now
	c.store.PushFront(h)
	c.index.set(key, h)
	c.refreshGauges()
	return zero, false
}

// tryReuseExpiredTail recycles the least-recently-used node in place when
// it has already expired, sparing an allocation and an eviction for what is
// effectively dead weight. Grounded in the original Rust storage's put(),
// which tempuscache itself never did (it always evicts-then-appends). The
// returned value is the expired entry's old value, matching the source
// contract that tail reuse reports the value it displaced.
func (c *Cache[K, V]) tryReuseExpiredTail(key K, value V, now int64) (V, bool) {
	var zero V
	tail := c.store.Tail()
	if tail.IsNull() {
		return zero, false
	}
	n := c.store.Deref(tail)
	if !c.expired(n) {
		return zero, false
	}
	old := n.Value
	c.index.delete(n.Key)
	c.stats.expiries.Inc()

	n.Key = key
	n.Value = value
	n.Timestamp = now
	c.store.Promote(tail)
	c.index.set(key, tail)
	return old, true
}

func (c *Cache[K, V]) removeHandle(key K, h store.Handle) {
	c.store.Unlink(h)
	c.store.Free(h)
	c.index.delete(key)
	c.refreshGauges()
}

// Delete removes key if present. It reports whether an entry was removed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.index.get(key)
	if !ok {
		return false
	}
	c.removeHandle(key, h)
	return true
}

// Len returns the number of live entries, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.len()
}

// IsEmpty reports whether the cache currently holds no entries.
func (c *Cache[K, V]) IsEmpty() bool { return c.Len() == 0 }

// Capacity returns the sum of the backing store's segment capacities, which
// grows as Put appends segments and shrinks as Evict reclaims empty ones. It
// is not the construction parameter U, which is only the size of one
// segment.
func (c *Cache[K, V]) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Capacity()
}

// Stats returns a point-in-time snapshot of the cache's counters.
func (c *Cache[K, V]) Stats() StatsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.Snapshot()
}

// Registry exposes the cache's private Prometheus registry.
func (c *Cache[K, V]) Registry() *prometheus.Registry { return c.stats.Registry() }

func (c *Cache[K, V]) refreshGauges() {
	c.stats.entries.Set(float64(c.index.len()))
	c.stats.segments.Set(float64(c.store.SegmentCount()))
}

// Close stops the background janitor goroutine, if one was configured via
// WithJanitorInterval. It is safe to call on a Cache with no janitor.
func (c *Cache[K, V]) Close() {
	if c.janitor != nil {
		c.janitor.stop()
	}
}
