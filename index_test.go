package segcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/segcache/segcache/store"
)

func identityHash(k int) uint64 { return uint64(k) }

func TestHashIndexSetGetDelete(t *testing.T) {
	idx := newHashIndex[int](identityHash)

	idx.set(1, store.Handle{Seg: 1, Slot: 0})
	idx.set(2, store.Handle{Seg: 1, Slot: 1})

	h, ok := idx.get(1)
	assert.True(t, ok)
	assert.Equal(t, store.Handle{Seg: 1, Slot: 0}, h)
	assert.Equal(t, 2, idx.len())

	idx.delete(1)
	_, ok = idx.get(1)
	assert.False(t, ok)
	assert.Equal(t, 1, idx.len())
}

func TestHashIndexGrowsAndPreservesEntries(t *testing.T) {
	idx := newHashIndex[int](identityHash)
	for i := 0; i < 200; i++ {
		idx.set(i, store.Handle{Seg: 1, Slot: uint32(i)})
	}
	assert.Equal(t, 200, idx.len())
	for i := 0; i < 200; i++ {
		h, ok := idx.get(i)
		assert.True(t, ok)
		assert.Equal(t, uint32(i), h.Slot)
	}
}

func TestHashIndexSetOverwritesExisting(t *testing.T) {
	idx := newHashIndex[int](identityHash)
	idx.set(1, store.Handle{Seg: 1, Slot: 0})
	idx.set(1, store.Handle{Seg: 2, Slot: 5})

	h, ok := idx.get(1)
	assert.True(t, ok)
	assert.Equal(t, store.Handle{Seg: 2, Slot: 5}, h)
	assert.Equal(t, 1, idx.len())
}

func TestMapIndexBasics(t *testing.T) {
	idx := make(mapIndex[string])
	idx.set("a", store.Handle{Seg: 1, Slot: 0})

	h, ok := idx.get("a")
	assert.True(t, ok)
	assert.Equal(t, store.Handle{Seg: 1, Slot: 0}, h)

	idx.delete("a")
	assert.Equal(t, 0, idx.len())
}
