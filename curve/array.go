package curve

import (
	"github.com/sarchlab/tempo/instrumentation/hooking"
	"github.com/sarchlab/tempo/timing"
)

// Array is a fixed number of discrete slots that change over time, such as
// the inventory cells of a unit. Each slot steps from keyframe to keyframe
// like a Discrete curve.
type Array[T any] struct {
	hooking.HookableBase

	slots []*KeyframeContainer[T]
	defs  []T
}

// NewArray creates an array with one slot per default value.
func NewArray[T any](defaults ...T) *Array[T] {
	a := &Array[T]{
		slots: make([]*KeyframeContainer[T], len(defaults)),
		defs:  append([]T(nil), defaults...),
	}

	for i := range a.slots {
		a.slots[i] = NewContainer[T]()
	}

	return a
}

// Size returns the number of slots.
func (a *Array[T]) Size() int {
	return len(a.slots)
}

// Get returns the value of slot i at t.
func (a *Array[T]) Get(t timing.VTime, i int) T {
	_, v := a.Frame(t, i)
	return v
}

// Frame returns the keyframe of slot i in effect at t. Before the first
// keyframe it returns TimeMin and the slot default.
func (a *Array[T]) Frame(t timing.VTime, i int) (timing.VTime, T) {
	prev, _ := a.slots[i].Lookup(t)
	if prev == BeforeFirst {
		return timing.TimeMin, a.defs[i]
	}

	kf := a.slots[i].At(prev)

	return kf.Time, kf.Value
}

// NextFrame returns the first keyframe of slot i strictly after t.
func (a *Array[T]) NextFrame(t timing.VTime, i int) (timing.VTime, T, bool) {
	_, next := a.slots[i].Lookup(t)
	if next >= a.slots[i].Len() {
		var zero T
		return timing.TimeMax, zero, false
	}

	kf := a.slots[i].At(next)

	return kf.Time, kf.Value, true
}

// Set writes v into slot i at t, overwriting a keyframe at the same time.
func (a *Array[T]) Set(t timing.VTime, i int, v T) {
	_, _ = a.slots[i].Insert(t, v)
	a.changed(t)
}

// SetLast discards the keyframes of slot i after t and then writes v at t.
func (a *Array[T]) SetLast(t timing.VTime, i int, v T) {
	a.slots[i].EraseAfter(t)
	_, _ = a.slots[i].Insert(t, v)
	a.changed(t)
}

// Values returns the value of every slot at t.
func (a *Array[T]) Values(t timing.VTime) []T {
	out := make([]T, len(a.slots))
	for i := range a.slots {
		out[i] = a.Get(t, i)
	}

	return out
}

func (a *Array[T]) changed(at timing.VTime) {
	if a.NumHooks() == 0 {
		return
	}

	a.InvokeHook(hooking.HookCtx{
		Domain: a,
		Pos:    HookPosChanged,
		Item:   a,
		Detail: Change{At: at},
	})
}
