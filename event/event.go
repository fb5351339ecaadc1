package event

import (
	"slices"

	"github.com/sarchlab/tempo/datastructure"
	"github.com/sarchlab/tempo/idgen"
	"github.com/sarchlab/tempo/timing"
)

// An Event is an instance of a Class acting on a target. Events are created
// by the Loop and must not be copied.
type Event struct {
	loop   *Loop
	id     idgen.ID
	target TargetID
	class  *Class
	params ParamMap
	deps   []TargetID

	time      timing.VTime
	lastFired timing.VTime

	seq    uint64
	handle datastructure.Handle
	queued bool
	alive  bool

	pending   bool
	pendingAt timing.VTime
}

// ID returns the id of the event, unique within its loop.
func (e *Event) ID() idgen.ID {
	return e.id
}

// Target returns the id of the entity the event acts on.
func (e *Event) Target() TargetID {
	return e.target
}

// Class returns the class of the event.
func (e *Event) Class() *Class {
	return e.class
}

// Params returns the parameters the event was created with.
func (e *Event) Params() ParamMap {
	return e.params
}

// Time returns the time the event is scheduled at. It is only meaningful
// while Scheduled returns true.
func (e *Event) Time() timing.VTime {
	return e.time
}

// LastFired returns the last time the event fired, or TimeMin.
func (e *Event) LastFired() timing.VTime {
	return e.lastFired
}

// Scheduled reports whether the event is in the queue.
func (e *Event) Scheduled() bool {
	return e.queued
}

// Cancelled reports whether the event was cancelled or finished. Cancelled
// events never fire again.
func (e *Event) Cancelled() bool {
	return !e.alive
}

// Dependencies returns the targets whose changes affect the event, in
// ascending id order.
func (e *Event) Dependencies() []TargetID {
	return slices.Clone(e.deps)
}

// DependsOn reports whether the event depends on id.
func (e *Event) DependsOn(id TargetID) bool {
	_, found := slices.BinarySearch(e.deps, id)
	return found
}

// DependOn adds a dependency, usually from Class.Setup. Adding the same
// dependency twice has no effect.
func (e *Event) DependOn(id TargetID) {
	i, found := slices.BinarySearch(e.deps, id)
	if found || !e.alive {
		return
	}

	e.deps = slices.Insert(e.deps, i, id)
	e.loop.addDependent(id, e)
}

func (e *Event) dropDependency(id TargetID) {
	i, found := slices.BinarySearch(e.deps, id)
	if found {
		e.deps = slices.Delete(e.deps, i, i+1)
	}
}
