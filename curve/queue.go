package curve

import (
	"github.com/sarchlab/tempo/instrumentation/hooking"
	"github.com/sarchlab/tempo/timing"
)

// lifetime is the time span [alive, dead) in which an entry exists.
type lifetime struct {
	alive timing.VTime
	dead  timing.VTime
}

func (l lifetime) liveAt(t timing.VTime) bool {
	return l.alive <= t && t < l.dead
}

type queueEntry[T any] struct {
	lifetime
	value T
}

// Queue is a FIFO over time. Every element is inserted at a time and stays
// in the queue until it is popped, so the queue can be asked what its front
// was at any time.
//
// Popping does not remove an element. It ends the element's lifetime at the
// pop time, and queries at earlier times still see it.
type Queue[T any] struct {
	hooking.HookableBase

	entries []queueEntry[T]
	version uint64

	// Every entry before frontStart is dead at all times >= cacheFrom.
	cacheFrom  timing.VTime
	frontStart int
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{cacheFrom: timing.TimeMin}
}

// Len returns the number of elements ever inserted, popped ones included.
func (q *Queue[T]) Len() int {
	return len(q.entries)
}

// Version counts modifications. Iterators created before a modification
// become invalid.
func (q *Queue[T]) Version() uint64 {
	return q.version
}

// Insert adds v at time t. Elements inserted at the same time keep their
// insertion order.
func (q *Queue[T]) Insert(t timing.VTime, v T) {
	at := len(q.entries)
	for at > 0 && q.entries[at-1].alive > t {
		at--
	}

	q.entries = append(q.entries, queueEntry[T]{})
	copy(q.entries[at+1:], q.entries[at:])
	q.entries[at] = queueEntry[T]{
		lifetime: lifetime{alive: t, dead: timing.TimeMax},
		value:    v,
	}

	if at < q.frontStart {
		q.frontStart = at
	}

	q.changed(t)
}

// firstAlive returns the index of the oldest element live at t, or Len.
func (q *Queue[T]) firstAlive(t timing.VTime) int {
	i := 0
	if q.cacheFrom <= t {
		i = q.frontStart
	}

	for ; i < len(q.entries) && q.entries[i].alive <= t; i++ {
		if q.entries[i].dead > t {
			return i
		}
	}

	return len(q.entries)
}

// Empty reports whether no element is live at t.
func (q *Queue[T]) Empty(t timing.VTime) bool {
	return q.firstAlive(t) == len(q.entries)
}

// Front returns the oldest element live at t.
func (q *Queue[T]) Front(t timing.VTime) (T, bool) {
	i := q.firstAlive(t)
	if i == len(q.entries) {
		var zero T
		return zero, false
	}

	return q.entries[i].value, true
}

// PopFront returns the oldest element live at t and ends its lifetime at t.
func (q *Queue[T]) PopFront(t timing.VTime) (T, bool) {
	i := q.firstAlive(t)
	if i == len(q.entries) {
		var zero T
		return zero, false
	}

	q.entries[i].dead = t
	q.cacheFrom = t
	q.frontStart = i + 1
	q.changed(t)

	return q.entries[i].value, true
}

// Clear pops every element live at t.
func (q *Queue[T]) Clear(t timing.VTime) {
	i := q.firstAlive(t)
	if i == len(q.entries) {
		return
	}

	for ; i < len(q.entries) && q.entries[i].alive <= t; i++ {
		if q.entries[i].dead > t {
			q.entries[i].dead = t
		}
	}

	q.cacheFrom = t
	q.frontStart = i
	q.changed(t)
}

// Live returns an iterator over the elements live at t, oldest first.
func (q *Queue[T]) Live(t timing.VTime) *QueueIterator[T] {
	it := q.Between(timing.TimeMin, t)
	it.keep = func(l lifetime) bool { return l.liveAt(t) }

	return it
}

// Between returns an iterator over the elements inserted in [from, to],
// popped ones included.
func (q *Queue[T]) Between(from, to timing.VTime) *QueueIterator[T] {
	return &QueueIterator[T]{
		q:       q,
		version: q.version,
		pos:     0,
		from:    from,
		to:      to,
	}
}

func (q *Queue[T]) changed(at timing.VTime) {
	q.version++

	if q.NumHooks() == 0 {
		return
	}

	q.InvokeHook(hooking.HookCtx{
		Domain: q,
		Pos:    HookPosChanged,
		Item:   q,
		Detail: Change{At: at},
	})
}

// QueueIterator walks queue elements in insertion time order. It stops with
// ErrIteratorInvalidated once the queue is modified.
type QueueIterator[T any] struct {
	q        *Queue[T]
	version  uint64
	pos      int
	from, to timing.VTime
	keep     func(lifetime) bool
	filter   func(T) bool

	cur queueEntry[T]
	err error
}

// Filter makes the iterator skip values for which keep returns false.
func (it *QueueIterator[T]) Filter(keep func(T) bool) *QueueIterator[T] {
	it.filter = keep
	return it
}

// Next advances to the next element and reports whether there is one.
func (it *QueueIterator[T]) Next() bool {
	if it.err != nil {
		return false
	}

	if it.q.version != it.version {
		it.err = ErrIteratorInvalidated
		return false
	}

	for it.pos < len(it.q.entries) {
		e := it.q.entries[it.pos]
		if e.alive > it.to {
			it.pos = len(it.q.entries)
			return false
		}

		it.pos++

		if e.alive < it.from {
			continue
		}

		if it.keep != nil && !it.keep(e.lifetime) {
			continue
		}

		if it.filter == nil || it.filter(e.value) {
			it.cur = e
			return true
		}
	}

	return false
}

// Time returns the insertion time of the current element.
func (it *QueueIterator[T]) Time() timing.VTime {
	return it.cur.alive
}

// Popped returns when the current element was popped, or TimeMax.
func (it *QueueIterator[T]) Popped() timing.VTime {
	return it.cur.dead
}

// Value returns the current element.
func (it *QueueIterator[T]) Value() T {
	return it.cur.value
}

// Err returns the error that stopped the iteration, if any.
func (it *QueueIterator[T]) Err() error {
	return it.err
}
