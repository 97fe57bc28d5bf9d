package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHasOneEmptySegmentOfUnitCapacity(t *testing.T) {
	s := New[string, int](2)
	assert.Equal(t, 2, s.Capacity())
	assert.Equal(t, 1, s.SegmentCount())
	assert.True(t, s.Head().IsNull())
	assert.True(t, s.Tail().IsNull())
}

func TestAllocateFillsFirstSegmentBeforeGrowing(t *testing.T) {
	s := New[string, int](2)

	h1, n1 := s.Allocate()
	n1.Key, n1.Value = "a", 1
	s.PushFront(h1)

	h2, n2 := s.Allocate()
	n2.Key, n2.Value = "b", 2
	s.PushFront(h2)

	assert.Equal(t, 1, s.SegmentCount())
	assert.Equal(t, 2, s.Capacity())

	// segment full: next allocation grows a new segment
	h3, n3 := s.Allocate()
	n3.Key, n3.Value = "c", 3
	s.PushFront(h3)

	assert.Equal(t, 2, s.SegmentCount())
	assert.Equal(t, 4, s.Capacity())
	assert.NotEqual(t, h1.Seg, h3.Seg)
}

func TestHandlesSurviveUnrelatedFreesAndAllocations(t *testing.T) {
	s := New[string, int](1)

	h1, n1 := s.Allocate()
	n1.Key = "first"
	s.PushFront(h1)

	h2, _ := s.Allocate() // grows a second segment
	s.PushFront(h2)

	s.Free(h2)
	s.DropEmptySegments()

	// h1 must still dereference correctly: unrelated alloc/free elsewhere
	// does not move or invalidate it.
	got := s.Deref(h1)
	assert.Equal(t, "first", got.Key)
}

func TestPushFrontUnlinkPromote(t *testing.T) {
	s := New[int, string](4)

	h1, n1 := s.Allocate()
	n1.Key = 1
	s.PushFront(h1)

	h2, n2 := s.Allocate()
	n2.Key = 2
	s.PushFront(h2)

	h3, n3 := s.Allocate()
	n3.Key = 3
	s.PushFront(h3)

	// recency order head->tail: 3, 2, 1
	require.Equal(t, []Handle{h3, h2, h1}, s.Handles())

	s.Promote(h1) // move tail to head
	assert.Equal(t, []Handle{h1, h3, h2}, s.Handles())

	s.Promote(h1) // already head: no-op
	assert.Equal(t, []Handle{h1, h3, h2}, s.Handles())

	s.Unlink(h3) // unlink middle
	assert.Equal(t, []Handle{h1, h2}, s.Handles())
	assert.True(t, s.Deref(h3).Next.IsNull())
	assert.True(t, s.Deref(h3).Prev.IsNull())
}

func TestUnlinkHeadAndTailUpdateEndpoints(t *testing.T) {
	s := New[int, int](4)
	h1, _ := s.Allocate()
	s.PushFront(h1)
	h2, _ := s.Allocate()
	s.PushFront(h2)

	s.Unlink(h2) // head
	assert.Equal(t, h1, s.Head())
	assert.True(t, s.Deref(h1).Prev.IsNull())

	s.Unlink(h1) // now sole remaining node; both ends become null
	assert.True(t, s.Head().IsNull())
	assert.True(t, s.Tail().IsNull())
}

func TestDerefNullHandlePanics(t *testing.T) {
	s := New[int, int](1)
	assert.Panics(t, func() { s.Deref(Null) })
}

func TestFreeThenAllocateReusesSlot(t *testing.T) {
	s := New[int, int](1)
	h, n := s.Allocate()
	n.Key = 7
	s.PushFront(h)
	s.Unlink(h)
	s.Free(h)

	h2, n2 := s.Allocate()
	assert.Equal(t, h, h2)
	assert.Equal(t, 0, n2.Key) // zeroed on free
}

func TestDropEmptySegmentsReclaimsCapacity(t *testing.T) {
	s := New[int, int](1)
	h1, _ := s.Allocate()
	s.PushFront(h1)
	h2, _ := s.Allocate() // grows a second segment
	s.PushFront(h2)
	require.Equal(t, 2, s.Capacity())

	s.Unlink(h2)
	s.Free(h2)
	freed := s.DropEmptySegments()

	assert.Equal(t, 1, freed)
	assert.Equal(t, 1, s.Capacity())
	assert.Equal(t, 1, s.SegmentCount())

	// h1 is unaffected
	assert.Equal(t, h1, s.Head())
}
