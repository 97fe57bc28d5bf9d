package segcache

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// Option configures a Cache at construction time, following the functional
// options pattern: New takes a variadic list of Options instead of growing
// an ever-longer parameter list as configuration knobs are added.
type Option[K comparable, V any] func(*Cache[K, V])

// WithClock overrides the cache's notion of "now", in nanoseconds. Intended
// for tests that need to control TTL expiry deterministically; production
// callers should leave this unset.
func WithClock[K comparable, V any](now func() int64) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.now = now
	}
}

// WithJanitorInterval starts a background goroutine that calls Evict on the
// given interval. Without this option the cache relies solely on lazy
// expiration: an expired entry is only noticed the next time Get, Put, or
// Evict touches it.
func WithJanitorInterval[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.janitor = newJanitor(d)
	}
}

// WithEagerGetExpiry makes Get remove an expired entry immediately, instead
// of leaving it for the next Put or Evict sweep to reclaim. This recovers
// the original tempuscache behavior, for callers who'd rather pay the
// removal cost on the reading goroutine than risk a stale slot lingering
// until the next write or janitor tick.
func WithEagerGetExpiry[K comparable, V any]() Option[K, V] {
	return func(c *Cache[K, V]) {
		c.eagerGetExpiry = true
	}
}

// WithLogger attaches a logger used for contract-violation diagnostics
// before they panic. The zero value Cache logs nothing (zerolog.Nop).
func WithLogger[K comparable, V any](log zerolog.Logger) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.log = log
	}
}

// WithHasher swaps the default Go-map key index for a chained hash table
// driven by hash, exercising the Hasher collaborator directly instead of
// relying on the runtime's built-in map hashing.
func WithHasher[K comparable, V any](hash func(K) uint64) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.index = newHashIndex(hash)
	}
}

// NewStringCache is a convenience constructor for string-keyed caches that
// wires WithHasher to xxhash, a fast non-cryptographic hash well suited to
// cache indexing.
func NewStringCache[V any](capacity int, ttl time.Duration, opts ...Option[string, V]) *Cache[string, V] {
	all := append([]Option[string, V]{WithHasher[string, V](xxhash.Sum64String)}, opts...)
	return New[string, V](capacity, ttl, all...)
}
