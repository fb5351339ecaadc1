package curve

import "github.com/sarchlab/tempo/timing"

// An Iterator walks keyframes forward in time.
//
//	it := c.Iter()
//	for it.Next() {
//		kf := it.Keyframe()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
//
// An iterator cannot be rewound; request a new one instead. If the container
// is structurally modified after the iterator is created, Next returns false
// and Err returns ErrIteratorInvalidated.
type Iterator[T any] struct {
	c       *KeyframeContainer[T]
	version uint64
	pos     int
	end     timing.VTime
	filter  func(Keyframe[T]) bool

	cur Keyframe[T]
	err error
}

func newIterator[T any](
	c *KeyframeContainer[T],
	start int,
	end timing.VTime,
) *Iterator[T] {
	return &Iterator[T]{
		c:       c,
		version: c.version,
		pos:     start,
		end:     end,
	}
}

// Filter makes the iterator skip keyframes for which keep returns false. It
// returns the iterator so that it can be chained after Iter.
func (it *Iterator[T]) Filter(keep func(Keyframe[T]) bool) *Iterator[T] {
	it.filter = keep
	return it
}

// Next advances to the next keyframe and reports whether there is one.
func (it *Iterator[T]) Next() bool {
	if it.err != nil {
		return false
	}

	if it.c.version != it.version {
		it.err = ErrIteratorInvalidated
		return false
	}

	for it.pos < len(it.c.frames) {
		kf := it.c.frames[it.pos]
		if kf.Time > it.end {
			it.pos = len(it.c.frames)
			return false
		}

		it.pos++

		if it.filter == nil || it.filter(kf) {
			it.cur = kf
			return true
		}
	}

	return false
}

// Keyframe returns the keyframe that the last successful Next moved to.
func (it *Iterator[T]) Keyframe() Keyframe[T] {
	return it.cur
}

// Time is shorthand for Keyframe().Time.
func (it *Iterator[T]) Time() timing.VTime {
	return it.cur.Time
}

// Value is shorthand for Keyframe().Value.
func (it *Iterator[T]) Value() T {
	return it.cur.Value
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}
