package event

import (
	"errors"

	"github.com/sarchlab/tempo/curve"
)

var (
	// ErrEmptyQueue is returned when popping from an empty queue.
	ErrEmptyQueue = errors.New("event: queue is empty")

	// ErrDanglingTarget reports an event whose target no longer exists.
	ErrDanglingTarget = errors.New("event: target of event does not exist")

	// ErrUnknownClass is returned when creating an event of a class that was
	// never registered.
	ErrUnknownClass = errors.New("event: unknown event class")

	// ErrUnknownTarget is returned when creating an event for a target that
	// is not in the loop's target arena.
	ErrUnknownTarget = errors.New("event: unknown target")

	// ErrNotSettling is returned when events keep firing at the same time
	// without the loop making progress.
	ErrNotSettling = errors.New("event: events do not settle")

	// ErrIteratorInvalidated is reported by a queue iterator whose queue was
	// modified after the iterator was created.
	ErrIteratorInvalidated = curve.ErrIteratorInvalidated
)
