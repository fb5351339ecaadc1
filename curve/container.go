package curve

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sarchlab/tempo/timing"
)

// BeforeFirst is the index Lookup reports when no keyframe is at or before
// the queried time.
const BeforeFirst = -1

var (
	// ErrOutOfOrder is returned by append-only containers when a keyframe is
	// not strictly later than the last one.
	ErrOutOfOrder = errors.New("curve: keyframe is not after the last keyframe")

	// ErrIteratorInvalidated is reported by an iterator whose container was
	// structurally modified after the iterator was created.
	ErrIteratorInvalidated = errors.New("curve: container modified during iteration")
)

// A Keyframe is a value that a curve takes at a point in time.
type Keyframe[T any] struct {
	Time  timing.VTime
	Value T
}

// KeyframeContainer stores keyframes sorted by strictly increasing time.
//
// Lookups are binary searches. Keyframes are kept in one slice, so inserting
// at the end is amortized O(1) and inserting in the middle moves the tail.
type KeyframeContainer[T any] struct {
	frames     []Keyframe[T]
	appendOnly bool
	version    uint64
}

// NewContainer creates an empty container that accepts keyframes at any
// time.
func NewContainer[T any]() *KeyframeContainer[T] {
	return &KeyframeContainer[T]{}
}

// NewAppendOnlyContainer creates an empty container for bulk loading. Its
// Insert rejects keyframes that are not later than the last keyframe.
func NewAppendOnlyContainer[T any]() *KeyframeContainer[T] {
	return &KeyframeContainer[T]{appendOnly: true}
}

// Len returns the number of keyframes.
func (c *KeyframeContainer[T]) Len() int {
	return len(c.frames)
}

// Version counts structural modifications. Overwriting the value of an
// existing keyframe does not change the version.
func (c *KeyframeContainer[T]) Version() uint64 {
	return c.version
}

// At returns the i-th keyframe. It panics if i is out of range.
func (c *KeyframeContainer[T]) At(i int) Keyframe[T] {
	return c.frames[i]
}

// First returns the earliest keyframe.
func (c *KeyframeContainer[T]) First() (Keyframe[T], bool) {
	if len(c.frames) == 0 {
		return Keyframe[T]{}, false
	}

	return c.frames[0], true
}

// Last returns the latest keyframe.
func (c *KeyframeContainer[T]) Last() (Keyframe[T], bool) {
	if len(c.frames) == 0 {
		return Keyframe[T]{}, false
	}

	return c.frames[len(c.frames)-1], true
}

// Lookup finds the keyframes around t. prev is the index of the last
// keyframe with Time <= t, or BeforeFirst. next is the index of the first
// keyframe with Time > t, which equals Len() if there is none.
func (c *KeyframeContainer[T]) Lookup(t timing.VTime) (prev, next int) {
	next = sort.Search(len(c.frames), func(i int) bool {
		return c.frames[i].Time > t
	})

	return next - 1, next
}

// lookupHint is Lookup with a cached starting index. A hint that still
// brackets t, or the interval right after it, is answered without searching.
// A stale hint only costs a search.
func (c *KeyframeContainer[T]) lookupHint(t timing.VTime, hint int) (prev, next int) {
	for _, i := range [2]int{hint, hint + 1} {
		if c.brackets(i, t) {
			return i, i + 1
		}
	}

	return c.Lookup(t)
}

func (c *KeyframeContainer[T]) brackets(i int, t timing.VTime) bool {
	n := len(c.frames)

	switch {
	case i < BeforeFirst || i >= n:
		return false
	case i == BeforeFirst:
		return n == 0 || c.frames[0].Time > t
	}

	return c.frames[i].Time <= t && (i+1 == n || c.frames[i+1].Time > t)
}

// Insert adds a keyframe and returns its index. A keyframe at an existing
// time overwrites that keyframe's value.
//
// Finding the position is O(log n). Appending and overwriting are O(1);
// inserting before the last keyframe copies the tail, O(n) in the worst
// case.
func (c *KeyframeContainer[T]) Insert(t timing.VTime, v T) (int, error) {
	n := len(c.frames)

	if n == 0 || c.frames[n-1].Time < t {
		c.frames = append(c.frames, Keyframe[T]{Time: t, Value: v})
		c.version++

		return n, nil
	}

	if c.appendOnly {
		return 0, fmt.Errorf("%w: %s <= %s",
			ErrOutOfOrder, t, c.frames[n-1].Time)
	}

	prev, next := c.Lookup(t)
	if prev != BeforeFirst && c.frames[prev].Time == t {
		c.frames[prev].Value = v
		return prev, nil
	}

	c.frames = append(c.frames, Keyframe[T]{})
	copy(c.frames[next+1:], c.frames[next:])
	c.frames[next] = Keyframe[T]{Time: t, Value: v}
	c.version++

	return next, nil
}

// EraseAfter removes all keyframes strictly after t and returns how many
// were removed.
func (c *KeyframeContainer[T]) EraseAfter(t timing.VTime) int {
	_, next := c.Lookup(t)

	removed := len(c.frames) - next
	if removed == 0 {
		return 0
	}

	clear(c.frames[next:])
	c.frames = c.frames[:next]
	c.version++

	return removed
}

// Erase removes the keyframe at exactly t. It reports whether one existed.
func (c *KeyframeContainer[T]) Erase(t timing.VTime) bool {
	prev, _ := c.Lookup(t)
	if prev == BeforeFirst || c.frames[prev].Time != t {
		return false
	}

	copy(c.frames[prev:], c.frames[prev+1:])
	c.frames[len(c.frames)-1] = Keyframe[T]{}
	c.frames = c.frames[:len(c.frames)-1]
	c.version++

	return true
}

// Clear removes all keyframes.
func (c *KeyframeContainer[T]) Clear() {
	if len(c.frames) == 0 {
		return
	}

	clear(c.frames)
	c.frames = c.frames[:0]
	c.version++
}

// Iter returns an iterator over all keyframes.
func (c *KeyframeContainer[T]) Iter() *Iterator[T] {
	return newIterator(c, 0, timing.TimeMax)
}

// IterBetween returns an iterator over the keyframes with from <= Time <= to.
func (c *KeyframeContainer[T]) IterBetween(from, to timing.VTime) *Iterator[T] {
	start := sort.Search(len(c.frames), func(i int) bool {
		return c.frames[i].Time >= from
	})

	return newIterator(c, start, to)
}
