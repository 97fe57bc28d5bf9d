// Package store implements the segmented node store (SNS) fused with the
// intrusive recency list (RL) that threads through it.
//
// Entries live at stable (segment, slot) positions inside fixed-capacity
// segments. A segment is never reallocated once created: growth appends a
// new segment, so handles into existing segments stay valid forever. The
// recency list is "fused" into the store the way tempuscache fuses its
// container/list.List with its map — except here the list pointers are
// Handle fields on the node itself rather than a separate list.Element,
// since handles (not language pointers) are what stay stable across
// unrelated allocations and frees.
package store

import (
	"github.com/pkg/errors"
)

// Sentinel errors for handle misuse. Both are fatal contract violations per
// the cache core's error handling design: callers are expected to let the
// resulting panic propagate, never to recover and continue.
var (
	ErrNullHandle    = errors.New("store: dereference of null handle")
	ErrInvalidHandle = errors.New("store: handle does not refer to a live slot")
)

// Handle is an opaque, stable reference to a node. The zero value is the
// null handle: segment id 0 is never assigned to a real segment, so a
// freshly allocated (zero-valued) Node's Next/Prev fields are null without
// any extra initialization step.
type Handle struct {
	Seg  uint32
	Slot uint32
}

// Null is the null handle, equal to the zero value.
var Null = Handle{}

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool { return h.Seg == 0 }

// Node is one entry slot. Key/Value/Timestamp are the cache core's payload;
// Next/Prev are the recency list's intrusive links.
type Node[K comparable, V any] struct {
	Key       K
	Value     V
	Timestamp int64

	Next, Prev Handle
}

type segment[K comparable, V any] struct {
	id    uint32
	nodes []Node[K, V]
	free  []uint32 // stack of free slot indices, popped from the back
	live  int
}

func newSegment[K comparable, V any](id uint32, unit int) *segment[K, V] {
	free := make([]uint32, unit)
	for i := 0; i < unit; i++ {
		// Pushed so that popping from the back yields slot 0 first, then 1,
		// matching the allocation order a reader would expect from a fresh
		// segment (and what the original Rust storage's push-at-front test
		// fixtures assume).
		free[i] = uint32(unit - 1 - i)
	}
	return &segment[K, V]{
		id:    id,
		nodes: make([]Node[K, V], unit),
		free:  free,
	}
}

// Store is the segmented node store with the recency list threaded through
// it. Head is the most-recently-used handle, Tail the least.
type Store[K comparable, V any] struct {
	unit      int
	nextSegID uint32
	order     []*segment[K, V] // kept in ascending id order
	byID      map[uint32]*segment[K, V]

	head, tail Handle
}

// New creates a Store whose segments each have capacity unit. An initial
// empty segment is created immediately, matching the cache core's
// construction contract (one empty segment of capacity U at time zero).
func New[K comparable, V any](unit int) *Store[K, V] {
	s := &Store[K, V]{
		unit:      unit,
		nextSegID: 1,
		byID:      make(map[uint32]*segment[K, V]),
	}
	s.growSegment()
	return s
}

func (s *Store[K, V]) growSegment() *segment[K, V] {
	seg := newSegment[K, V](s.nextSegID, s.unit)
	s.nextSegID++
	s.order = append(s.order, seg)
	s.byID[seg.id] = seg
	return seg
}

func (s *Store[K, V]) segmentFor(id uint32) *segment[K, V] {
	seg, ok := s.byID[id]
	if !ok {
		panic(errors.Wrapf(ErrInvalidHandle, "segment %d not found", id))
	}
	return seg
}

// Allocate reserves a free slot, scanning segments in id order and growing
// a fresh segment of capacity unit if none has room, then returns its
// handle and a mutable pointer to it. The returned node is zero-valued
// (null Next/Prev) and must be initialized by the caller before linking it
// into the recency list.
func (s *Store[K, V]) Allocate() (Handle, *Node[K, V]) {
	for _, seg := range s.order {
		if n := len(seg.free); n > 0 {
			slot := seg.free[n-1]
			seg.free = seg.free[:n-1]
			seg.live++
			return Handle{Seg: seg.id, Slot: slot}, &seg.nodes[slot]
		}
	}
	seg := s.growSegment()
	slot := seg.free[len(seg.free)-1]
	seg.free = seg.free[:len(seg.free)-1]
	seg.live++
	return Handle{Seg: seg.id, Slot: slot}, &seg.nodes[slot]
}

// Free releases a slot back to its segment's free list. The slot's
// contents are zeroed so the store does not keep a stale key/value
// reachable for the garbage collector.
func (s *Store[K, V]) Free(h Handle) {
	if h.IsNull() {
		panic(errors.Wrap(ErrNullHandle, "free"))
	}
	seg := s.segmentFor(h.Seg)
	var zero Node[K, V]
	seg.nodes[h.Slot] = zero
	seg.free = append(seg.free, h.Slot)
	seg.live--
}

// Deref returns a mutable pointer to the node at h. Dereferencing the null
// handle, or a handle whose segment no longer exists, is a programming
// error and panics rather than returning an error value, per the contract
// violation policy in the cache core's error handling design.
func (s *Store[K, V]) Deref(h Handle) *Node[K, V] {
	if h.IsNull() {
		panic(errors.Wrap(ErrNullHandle, "deref"))
	}
	seg := s.segmentFor(h.Seg)
	if int(h.Slot) >= len(seg.nodes) {
		panic(errors.Wrapf(ErrInvalidHandle, "slot %d out of range in segment %d", h.Slot, h.Seg))
	}
	return &seg.nodes[h.Slot]
}

// Head returns the most-recently-used handle, or Null if the store is empty.
func (s *Store[K, V]) Head() Handle { return s.head }

// Tail returns the least-recently-used handle, or Null if the store is empty.
func (s *Store[K, V]) Tail() Handle { return s.tail }

// PushFront links h in at the head of the recency list. h must currently be
// detached (fresh from Allocate, or already Unlink-ed).
func (s *Store[K, V]) PushFront(h Handle) {
	n := s.Deref(h)
	n.Prev = Null
	n.Next = s.head
	if !s.head.IsNull() {
		s.Deref(s.head).Prev = h
	}
	s.head = h
	if s.tail.IsNull() {
		s.tail = h
	}
}

// Unlink detaches h from wherever it currently sits in the recency list.
func (s *Store[K, V]) Unlink(h Handle) {
	n := s.Deref(h)
	if n.Prev.IsNull() {
		s.head = n.Next
	} else {
		s.Deref(n.Prev).Next = n.Next
	}
	if n.Next.IsNull() {
		s.tail = n.Prev
	} else {
		s.Deref(n.Next).Prev = n.Prev
	}
	n.Next, n.Prev = Null, Null
}

// Promote moves h to the head of the recency list. It is a no-op if h is
// already head.
func (s *Store[K, V]) Promote(h Handle) {
	if h == s.head {
		return
	}
	s.Unlink(h)
	s.PushFront(h)
}

// Capacity returns the sum of all segment capacities.
func (s *Store[K, V]) Capacity() int {
	total := 0
	for _, seg := range s.order {
		total += len(seg.nodes)
	}
	return total
}

// SegmentCount returns the number of live segments.
func (s *Store[K, V]) SegmentCount() int { return len(s.order) }

// Unit returns the fixed capacity of a single segment, the construction
// parameter U.
func (s *Store[K, V]) Unit() int { return s.unit }

// DropEmptySegments removes every segment whose live count is zero and
// returns the total capacity reclaimed. Called after an eviction sweep;
// PushFront/Unlink never trigger it, since §3's lifecycle only destroys
// segments "during an evict sweep".
func (s *Store[K, V]) DropEmptySegments() int {
	freed := 0
	kept := s.order[:0]
	for _, seg := range s.order {
		if seg.live == 0 {
			freed += len(seg.nodes)
			delete(s.byID, seg.id)
			continue
		}
		kept = append(kept, seg)
	}
	s.order = kept
	return freed
}

// Handles returns the live handles from head to tail, for diagnostics only
// (§4.2's iter_from_head). It is not used on any hot path.
func (s *Store[K, V]) Handles() []Handle {
	out := make([]Handle, 0)
	for h := s.head; !h.IsNull(); h = s.Deref(h).Next {
		out = append(out, h)
	}
	return out
}
