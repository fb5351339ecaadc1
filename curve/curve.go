// Package curve represents state as a function of simulated time.
//
// A curve stores keyframes and answers "what was the value at t" for any t,
// past or future. Discrete curves step from keyframe to keyframe. Continuous
// curves interpolate between neighboring keyframes. Every write raises
// HookPosChanged, which is how the event loop learns that targets changed.
package curve

import (
	"github.com/sarchlab/tempo/instrumentation/hooking"
	"github.com/sarchlab/tempo/timing"
)

// HookPosChanged marks a curve mutation. The hook detail is a Change.
var HookPosChanged = &hooking.HookPos{Name: "Curve Changed"}

// Change describes a mutation. Values at times before At are unaffected.
type Change struct {
	At timing.VTime
}

// A Curve is the common interface of Discrete and Continuous.
type Curve[T any] interface {
	hooking.Hookable

	Get(t timing.VTime) T
	Set(t timing.VTime, v T)
	SetLast(t timing.VTime, v T)
	EraseAfter(t timing.VTime)
	Frame(t timing.VTime) (timing.VTime, T)
	NextFrame(t timing.VTime) (timing.VTime, T, bool)
	Iter() *Iterator[T]
	IterBetween(from, to timing.VTime) *Iterator[T]
}

type base[T any] struct {
	hooking.HookableBase

	domain    hooking.Hookable
	container *KeyframeContainer[T]
	def       T
	hint      int
}

func (b *base[T]) init(domain hooking.Hookable, def T) {
	b.domain = domain
	b.container = NewContainer[T]()
	b.def = def
	b.hint = BeforeFirst
}

func (b *base[T]) lookup(t timing.VTime) (prev, next int) {
	prev, next = b.container.lookupHint(t, b.hint)
	b.hint = prev

	return prev, next
}

// Default returns the value reported before the first keyframe.
func (b *base[T]) Default() T {
	return b.def
}

// Container exposes the keyframes for read access. Writing to the container
// directly bypasses change notification.
func (b *base[T]) Container() *KeyframeContainer[T] {
	return b.container
}

// Len returns the number of keyframes.
func (b *base[T]) Len() int {
	return b.container.Len()
}

// Set writes a keyframe. A keyframe already at t is overwritten. Writing
// into the past is allowed; later keyframes are kept.
func (b *base[T]) Set(t timing.VTime, v T) {
	// The insert result cannot fail for a regular container.
	_, _ = b.container.Insert(t, v)
	b.notify(t)
}

// SetLast discards every keyframe after t and then writes v at t. It is the
// write used to correct a prediction.
func (b *base[T]) SetLast(t timing.VTime, v T) {
	b.container.EraseAfter(t)
	_, _ = b.container.Insert(t, v)
	b.notify(t)
}

// EraseAfter discards every keyframe after t.
func (b *base[T]) EraseAfter(t timing.VTime) {
	if b.container.EraseAfter(t) > 0 {
		b.notify(t)
	}
}

// Frame returns the keyframe in effect at t. Before the first keyframe it
// returns TimeMin and the default value.
func (b *base[T]) Frame(t timing.VTime) (timing.VTime, T) {
	prev, _ := b.lookup(t)
	if prev == BeforeFirst {
		return timing.TimeMin, b.def
	}

	kf := b.container.frames[prev]

	return kf.Time, kf.Value
}

// NextFrame returns the first keyframe strictly after t.
func (b *base[T]) NextFrame(t timing.VTime) (timing.VTime, T, bool) {
	_, next := b.lookup(t)
	if next >= b.container.Len() {
		var zero T
		return timing.TimeMax, zero, false
	}

	kf := b.container.frames[next]

	return kf.Time, kf.Value, true
}

// Iter returns an iterator over all keyframes.
func (b *base[T]) Iter() *Iterator[T] {
	return b.container.Iter()
}

// IterBetween returns an iterator over the keyframes with from <= Time <= to.
func (b *base[T]) IterBetween(from, to timing.VTime) *Iterator[T] {
	return b.container.IterBetween(from, to)
}

func (b *base[T]) notify(at timing.VTime) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(hooking.HookCtx{
		Domain: b.domain,
		Pos:    HookPosChanged,
		Item:   b.domain,
		Detail: Change{At: at},
	})
}

// Discrete is a step function of time: the value of the latest keyframe at
// or before the queried time.
type Discrete[T any] struct {
	base[T]
}

// NewDiscrete creates a discrete curve that reports def before its first
// keyframe.
func NewDiscrete[T any](def T) *Discrete[T] {
	c := &Discrete[T]{}
	c.init(c, def)

	return c
}

// Get returns the value at t.
func (c *Discrete[T]) Get(t timing.VTime) T {
	prev, _ := c.lookup(t)
	if prev == BeforeFirst {
		return c.def
	}

	return c.container.frames[prev].Value
}

// Continuous interpolates between neighboring keyframes. After the last
// keyframe it holds the last value.
type Continuous[T any] struct {
	base[T]

	interp Interpolator[T]
}

// NewContinuous creates a continuous curve with the given interpolation
// policy. It reports def before its first keyframe.
func NewContinuous[T any](def T, interp Interpolator[T]) *Continuous[T] {
	if interp == nil {
		panic("curve: interpolator must not be nil")
	}

	c := &Continuous[T]{interp: interp}
	c.init(c, def)

	return c
}

// NewLinearInt64 creates a continuous integer curve with linear
// interpolation.
func NewLinearInt64(def int64) *Continuous[int64] {
	return NewContinuous(def, LerpInt64)
}

// Get returns the value at t.
func (c *Continuous[T]) Get(t timing.VTime) T {
	prev, next := c.lookup(t)

	switch {
	case prev == BeforeFirst:
		return c.def
	case next >= c.container.Len():
		return c.container.frames[prev].Value
	}

	a := c.container.frames[prev]
	if a.Time == t {
		return a.Value
	}

	b := c.container.frames[next]

	return c.interp(a.Value, b.Value, int64(t-a.Time), int64(b.Time-a.Time))
}

var (
	_ Curve[int] = (*Discrete[int])(nil)
	_ Curve[int] = (*Continuous[int])(nil)
)
