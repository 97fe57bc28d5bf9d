package segcache

import "github.com/segcache/segcache/store"

// index maps keys to stable store handles. It is the "external hash index"
// the cache core composes on top of the segmented node store (§4.3/§6).
//
// The default implementation is a plain Go map, which already hashes any
// comparable K without needing an external Hasher collaborator. WithHasher
// swaps in hashIndex, a small chained hash table driven by a caller-supplied
// hash function — this is what actually exercises the Hasher collaborator
// the spec calls out, for callers who want to plug in something like
// xxhash instead of relying on the runtime's built-in map hashing.
type index[K comparable] interface {
	get(K) (store.Handle, bool)
	set(K, store.Handle)
	delete(K)
	len() int
}

type mapIndex[K comparable] map[K]store.Handle

func (m mapIndex[K]) get(k K) (store.Handle, bool) {
	h, ok := m[k]
	return h, ok
}

func (m mapIndex[K]) set(k K, h store.Handle) { m[k] = h }
func (m mapIndex[K]) delete(k K)              { delete(m, k) }
func (m mapIndex[K]) len() int                { return len(m) }

type bucketEntry[K comparable] struct {
	key    K
	handle store.Handle
}

// hashIndex is a simple chained hash table over buckets produced by a
// caller-supplied hash function, used instead of Go's built-in map when the
// caller wants to name its own Hasher (e.g. xxhash for string/byte keys).
type hashIndex[K comparable] struct {
	hash    func(K) uint64
	buckets [][]bucketEntry[K]
	count   int
}

func newHashIndex[K comparable](hash func(K) uint64) *hashIndex[K] {
	return &hashIndex[K]{hash: hash, buckets: make([][]bucketEntry[K], 16)}
}

func (h *hashIndex[K]) bucketFor(k K) uint64 {
	return h.hash(k) % uint64(len(h.buckets))
}

func (h *hashIndex[K]) get(k K) (store.Handle, bool) {
	for _, e := range h.buckets[h.bucketFor(k)] {
		if e.key == k {
			return e.handle, true
		}
	}
	return store.Null, false
}

func (h *hashIndex[K]) set(k K, handle store.Handle) {
	bi := h.bucketFor(k)
	b := h.buckets[bi]
	for i := range b {
		if b[i].key == k {
			b[i].handle = handle
			return
		}
	}
	h.buckets[bi] = append(b, bucketEntry[K]{key: k, handle: handle})
	h.count++
	if h.count > len(h.buckets)*4 {
		h.grow()
	}
}

func (h *hashIndex[K]) delete(k K) {
	bi := h.bucketFor(k)
	b := h.buckets[bi]
	for i, e := range b {
		if e.key == k {
			h.buckets[bi] = append(b[:i:i], b[i+1:]...)
			h.count--
			return
		}
	}
}

func (h *hashIndex[K]) len() int { return h.count }

func (h *hashIndex[K]) grow() {
	old := h.buckets
	h.buckets = make([][]bucketEntry[K], len(old)*2)
	h.count = 0
	for _, b := range old {
		for _, e := range b {
			h.set(e.key, e.handle)
		}
	}
}
