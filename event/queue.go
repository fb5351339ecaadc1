package event

import (
	"slices"

	"github.com/sarchlab/tempo/datastructure"
	"github.com/sarchlab/tempo/timing"
)

// Queue holds scheduled events in firing order. Events are ordered by time
// and then by the order in which they were scheduled, so events at equal
// times fire first-in first-out.
type Queue struct {
	heap    *datastructure.PairingHeap[*Event]
	seq     uint64
	version uint64
}

func eventLess(a, b *Event) bool {
	if a.time != b.time {
		return a.time < b.time
	}

	return a.seq < b.seq
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		heap: datastructure.NewPairingHeap(eventLess),
	}
}

// Len returns the number of scheduled events.
func (q *Queue) Len() int {
	return q.heap.Len()
}

// Contains reports whether evt is scheduled in this queue.
func (q *Queue) Contains(evt *Event) bool {
	if !evt.queued {
		return false
	}

	v, ok := q.heap.Get(evt.handle)

	return ok && v == evt
}

// Push schedules evt at its current time. An event that is already
// scheduled is moved to the back of the events sharing its time.
func (q *Queue) Push(evt *Event) {
	q.Reschedule(evt, evt.time)
}

// Reschedule moves evt to time t, or schedules it at t if it is not in the
// queue.
func (q *Queue) Reschedule(evt *Event, t timing.VTime) {
	q.seq++
	q.version++

	evt.time = t
	evt.seq = q.seq

	if q.Contains(evt) {
		q.heap.Update(evt.handle)
		return
	}

	evt.handle = q.heap.Push(evt)
	evt.queued = true
}

// Peek returns the next event without removing it.
func (q *Queue) Peek() (*Event, bool) {
	return q.heap.Peek()
}

// PopNext removes and returns the next event.
func (q *Queue) PopNext() (*Event, error) {
	evt, err := q.heap.Pop()
	if err != nil {
		return nil, ErrEmptyQueue
	}

	q.version++
	evt.queued = false
	evt.handle = datastructure.Handle{}

	return evt, nil
}

// Cancel removes evt from the queue. Cancelling an event that is not
// scheduled does nothing.
func (q *Queue) Cancel(evt *Event) {
	if !q.Contains(evt) {
		return
	}

	q.heap.Remove(evt.handle)
	q.version++
	evt.queued = false
	evt.handle = datastructure.Handle{}
}

// Clear removes every event.
func (q *Queue) Clear() {
	q.heap.Each(func(_ datastructure.Handle, evt *Event) bool {
		evt.queued = false
		evt.handle = datastructure.Handle{}
		return true
	})

	q.heap.Clear()
	q.version++
}

// Events returns the scheduled events in firing order.
func (q *Queue) Events() []*Event {
	events := make([]*Event, 0, q.heap.Len())
	q.heap.Each(func(_ datastructure.Handle, evt *Event) bool {
		events = append(events, evt)
		return true
	})

	slices.SortFunc(events, func(a, b *Event) int {
		if eventLess(a, b) {
			return -1
		}
		if eventLess(b, a) {
			return 1
		}
		return 0
	})

	return events
}

// Iter returns an iterator over the scheduled events in firing order. The
// iterator is invalidated when the queue changes.
func (q *Queue) Iter() *QueueIterator {
	return &QueueIterator{
		q:       q,
		version: q.version,
		events:  q.Events(),
		pos:     -1,
	}
}

// QueueIterator walks the events of a Queue in firing order.
type QueueIterator struct {
	q       *Queue
	version uint64
	events  []*Event
	pos     int
	err     error
}

// Next advances to the next event and reports whether there is one.
func (it *QueueIterator) Next() bool {
	if it.err != nil {
		return false
	}

	if it.q.version != it.version {
		it.err = ErrIteratorInvalidated
		return false
	}

	if it.pos+1 >= len(it.events) {
		it.pos = len(it.events)
		return false
	}

	it.pos++

	return true
}

// Event returns the event the last successful Next moved to.
func (it *QueueIterator) Event() *Event {
	if it.pos < 0 || it.pos >= len(it.events) {
		return nil
	}

	return it.events[it.pos]
}

// Err returns ErrIteratorInvalidated if the queue changed during the
// iteration.
func (it *QueueIterator) Err() error {
	return it.err
}
