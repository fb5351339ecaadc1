package event

import (
	"fmt"

	"github.com/sarchlab/tempo/timing"
)

// TriggerType decides when the events of a class are scheduled.
type TriggerType int

const (
	// Once events fire at the predicted time and are then discarded. A
	// change on a dependency predicts the time again.
	Once TriggerType = iota

	// Repeat events are scheduled again after firing, at the time predicted
	// from the firing time. Changes do not affect them.
	Repeat

	// Dependency events wait until a dependency changes. The time is then
	// predicted from the change time.
	Dependency

	// DependencyImmediately events fire at the time of a dependency change,
	// without prediction.
	DependencyImmediately

	// Trigger events only fire when Loop.Trigger is called on one of their
	// dependencies.
	Trigger
)

func (t TriggerType) String() string {
	switch t {
	case Once:
		return "Once"
	case Repeat:
		return "Repeat"
	case Dependency:
		return "Dependency"
	case DependencyImmediately:
		return "DependencyImmediately"
	case Trigger:
		return "Trigger"
	}

	return fmt.Sprintf("TriggerType(%d)", int(t))
}

// An Invocation is what class functions receive.
type Invocation struct {
	Loop  *Loop
	Event *Event

	// Target is the entity stored in the target arena under Event.Target().
	Target any

	// At is the reference time when predicting, and the firing time when
	// running an effect.
	At timing.VTime

	Params ParamMap
}

// Class describes a kind of event. Classes are registered with a Loop by
// name.
type Class struct {
	Name    string
	Trigger TriggerType

	// Setup declares the dependencies of a new event through
	// Event.DependOn. If Setup is nil, the event depends on its own target.
	Setup func(inv *Invocation)

	// Predict returns the time the event should fire, given the reference
	// time inv.At. TimeMin cancels a Once event; TimeMax leaves the event
	// waiting. If Predict is nil, the reference time is used.
	Predict func(inv *Invocation) timing.VTime

	// Effect applies the event. Errors abort Loop.RunUntil.
	Effect func(inv *Invocation) error
}

func (c *Class) setup(inv *Invocation) {
	if c.Setup == nil {
		inv.Event.DependOn(inv.Event.Target())
		return
	}

	c.Setup(inv)
}

func (c *Class) predict(inv *Invocation) timing.VTime {
	if c.Predict == nil {
		return inv.At
	}

	return c.Predict(inv)
}

func (c *Class) effect(inv *Invocation) error {
	if c.Effect == nil {
		return nil
	}

	return c.Effect(inv)
}

// reactsToChanges reports whether a dependency change affects events of
// the class.
func (c *Class) reactsToChanges() bool {
	switch c.Trigger {
	case Once, Dependency, DependencyImmediately:
		return true
	}

	return false
}
