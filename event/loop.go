package event

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/tempo/idgen"
	"github.com/sarchlab/tempo/instrumentation/hooking"
	"github.com/sarchlab/tempo/timing"
)

// State is the run state of a Loop.
type State int

// The states of a Loop.
const (
	Idle State = iota
	Advancing
)

func (s State) String() string {
	if s == Advancing {
		return "Advancing"
	}

	return "Idle"
}

var (
	// HookPosBeforeEvent is invoked right before an effect runs. The item is
	// the event and the detail is its Record.
	HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

	// HookPosAfterEvent is invoked right after an effect returns.
	HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}

	// HookPosAfterRun is invoked when RunUntil reached its time. The item is
	// the current time.
	HookPosAfterRun = &hooking.HookPos{Name: "AfterRun"}

	// HookPosReset is invoked after Reset cleared the loop. The item is the
	// loop.
	HookPosReset = &hooking.HookPos{Name: "Reset"}
)

// Loop advances simulated time and fires events in time order. It is the
// only place where time moves forward. A Loop is not safe for concurrent
// use.
type Loop struct {
	hooking.HookableBase

	log         logrus.FieldLogger
	strict      bool
	maxSameTime int

	ids        idgen.Generator
	classes    map[string]*Class
	targets    *Targets
	queue      *Queue
	store      *Store
	events     map[idgen.ID]*Event
	dependents map[TargetID][]*Event
	pending    []*Event

	now           timing.VTime
	state         State
	sameTimeAt    timing.VTime
	sameTimeCount int
}

// NewLoop creates a loop at TimeZero.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		log:         logrus.StandardLogger(),
		maxSameTime: DefaultMaxSameTimeFirings,
		ids:         idgen.New(),
		classes:     make(map[string]*Class),
		queue:       NewQueue(),
		store:       NewStore(),
		events:      make(map[idgen.ID]*Event),
		dependents:  make(map[TargetID][]*Event),
		sameTimeAt:  timing.TimeMin,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.targets == nil {
		l.targets = NewTargets()
	}

	return l
}

// CurrentTime returns the time of the loop.
func (l *Loop) CurrentTime() timing.VTime {
	return l.now
}

// State returns whether the loop is inside RunUntil.
func (l *Loop) State() State {
	return l.state
}

// Queue returns the queue of scheduled events. Callers should only read it.
func (l *Loop) Queue() *Queue {
	return l.queue
}

// Store returns the log of fired events.
func (l *Loop) Store() *Store {
	return l.store
}

// Targets returns the target arena.
func (l *Loop) Targets() *Targets {
	return l.targets
}

// Logger returns the logger of the loop.
func (l *Loop) Logger() logrus.FieldLogger {
	return l.log
}

// NumEvents returns the number of live events, scheduled or waiting.
func (l *Loop) NumEvents() int {
	return len(l.events)
}

// Event returns the live event with the given id.
func (l *Loop) Event(id idgen.ID) (*Event, bool) {
	evt, ok := l.events[id]
	return evt, ok
}

// AddClass registers a class. Registering two classes with the same name
// panics.
func (l *Loop) AddClass(cls *Class) {
	if cls == nil || cls.Name == "" {
		panic("event: class must have a name")
	}

	if existing, ok := l.classes[cls.Name]; ok && existing != cls {
		panic(fmt.Sprintf("event: duplicated event class %q", cls.Name))
	}

	l.classes[cls.Name] = cls
}

// Class returns the registered class with the given name.
func (l *Loop) Class(name string) (*Class, bool) {
	cls, ok := l.classes[name]
	return cls, ok
}

// CreateEvent creates an event of a registered class on target. ref is the
// reference time passed to Predict for Once and Repeat classes.
//
// If the class predicts TimeMin, the returned event is already cancelled.
func (l *Loop) CreateEvent(
	className string,
	target TargetID,
	ref timing.VTime,
	params ParamMap,
) (*Event, error) {
	cls, ok := l.classes[className]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, className)
	}

	return l.CreateEventFromClass(cls, target, ref, params)
}

// CreateEventFromClass is like CreateEvent but registers cls if needed.
func (l *Loop) CreateEventFromClass(
	cls *Class,
	target TargetID,
	ref timing.VTime,
	params ParamMap,
) (*Event, error) {
	l.AddClass(cls)

	entity, ok := l.targets.Get(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}

	evt := &Event{
		loop:      l,
		id:        l.ids.Generate(),
		target:    target,
		class:     cls,
		params:    params.clone(),
		alive:     true,
		lastFired: timing.TimeMin,
	}
	l.events[evt.id] = evt

	inv := l.invocation(evt, entity, ref)
	cls.setup(inv)

	switch cls.Trigger {
	case Once, Repeat:
		t := cls.predict(inv)
		switch t {
		case timing.TimeMin:
			l.log.Debugf("[t=%s] event %d (%s) is obsolete at creation",
				l.now, evt.id, cls.Name)
			l.Cancel(evt)
		case timing.TimeMax:
		default:
			l.schedule(evt, t)
		}
	}

	return evt, nil
}

// Cancel discards an event. It never fires again. Cancelling twice does
// nothing.
func (l *Loop) Cancel(evt *Event) {
	if evt == nil || evt.loop != l || !evt.alive {
		return
	}

	evt.alive = false
	evt.pending = false
	l.queue.Cancel(evt)

	for _, dep := range evt.deps {
		l.removeDependent(dep, evt)
	}

	delete(l.events, evt.id)
}

// NotifyChange reports that target changed at time at. Events depending on
// target are rescheduled before the next event fires.
func (l *Loop) NotifyChange(target TargetID, at timing.VTime) {
	for _, evt := range l.dependents[target] {
		if !evt.alive || !evt.class.reactsToChanges() {
			continue
		}

		if evt.pending {
			evt.pendingAt = timing.Min(evt.pendingAt, at)
			continue
		}

		evt.pending = true
		evt.pendingAt = at
		l.pending = append(l.pending, evt)
	}
}

// Trigger schedules, at time at, every Trigger event that depends on
// target.
func (l *Loop) Trigger(target TargetID, at timing.VTime) {
	for _, evt := range l.dependents[target] {
		if evt.alive && evt.class.Trigger == Trigger {
			l.schedule(evt, at)
		}
	}
}

// DestroyTarget cancels the events acting on target, removes target from
// all dependencies and then removes it from the arena. It reports whether
// the target existed.
func (l *Loop) DestroyTarget(target TargetID) bool {
	if !l.targets.Contains(target) {
		return false
	}

	var doomed []*Event
	for _, evt := range l.events {
		if evt.target == target {
			doomed = append(doomed, evt)
		}
	}

	slices.SortFunc(doomed, func(a, b *Event) int {
		return cmp.Compare(a.id, b.id)
	})

	for _, evt := range doomed {
		l.Cancel(evt)
	}

	for _, evt := range l.dependents[target] {
		evt.dropDependency(target)
	}
	delete(l.dependents, target)

	l.targets.Destroy(target)

	return true
}

// Reset discards all events and fired records and moves the loop back to
// TimeZero. Classes and targets are kept. Event ids start over, so a
// scenario replayed after Reset produces the same records.
func (l *Loop) Reset() {
	l.mustBeIdle("Reset")

	for _, evt := range l.events {
		evt.alive = false
		evt.pending = false
	}

	l.queue.Clear()
	l.store.clear()
	l.ids = idgen.New()
	l.events = make(map[idgen.ID]*Event)
	l.dependents = make(map[TargetID][]*Event)
	l.pending = nil
	l.now = timing.TimeZero
	l.sameTimeAt = timing.TimeMin
	l.sameTimeCount = 0

	l.InvokeHook(hooking.HookCtx{
		Domain: l,
		Pos:    HookPosReset,
		Item:   l,
	})
}

// RunUntil fires, in order, every event scheduled at or before until and
// then moves the current time to until if it is not there yet.
//
// An error returned by an effect stops the run. Events that fired before
// stay fired, and the failing event is scheduled again as its class
// demands.
func (l *Loop) RunUntil(until timing.VTime) error {
	l.mustBeIdle("RunUntil")

	l.state = Advancing
	defer func() { l.state = Idle }()

	l.sameTimeAt = timing.TimeMin
	l.applyChanges()

	fired := 0
	for {
		evt, ok := l.queue.Peek()
		if !ok || evt.time > until {
			break
		}

		if err := l.checkSettling(evt.time); err != nil {
			return err
		}

		if _, err := l.queue.PopNext(); err != nil {
			return err
		}

		fired++

		if err := l.fire(evt); err != nil {
			return err
		}
	}

	if until > l.now {
		l.now = until
	}

	l.log.Debugf("[t=%s] reached, %d events fired, %d scheduled",
		l.now, fired, l.queue.Len())

	l.InvokeHook(hooking.HookCtx{
		Domain: l,
		Pos:    HookPosAfterRun,
		Item:   l.now,
	})

	return nil
}

func (l *Loop) mustBeIdle(op string) {
	if l.state != Idle {
		panic(fmt.Sprintf("event: %s called while the loop is advancing", op))
	}
}

func (l *Loop) checkSettling(t timing.VTime) error {
	if t != l.sameTimeAt {
		l.sameTimeAt = t
		l.sameTimeCount = 0
	}

	if l.sameTimeCount >= l.maxSameTime {
		return fmt.Errorf("%w: more than %d events fired at t=%s",
			ErrNotSettling, l.maxSameTime, t)
	}

	l.sameTimeCount++

	return nil
}

func (l *Loop) fire(evt *Event) error {
	if evt.time > l.now {
		l.now = evt.time
	}

	entity, ok := l.targets.Get(evt.target)
	if !ok {
		l.dropDangling(evt)
		return nil
	}

	firedAt := evt.time
	evt.lastFired = firedAt
	rec := l.store.append(evt)

	l.log.Debugf("[t=%s] firing event %d (%s) on %s",
		firedAt, evt.id, evt.class.Name, evt.target)

	ctx := hooking.HookCtx{
		Domain: l,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
		Detail: rec,
	}
	l.InvokeHook(ctx)

	err := evt.class.effect(l.invocation(evt, entity, firedAt))

	ctx.Pos = HookPosAfterEvent
	l.InvokeHook(ctx)

	l.requeue(evt, entity, firedAt)
	l.applyChanges()

	if err != nil {
		return fmt.Errorf("event: effect of event %d (%s) at t=%s failed: %w",
			evt.id, evt.class.Name, firedAt, err)
	}

	return nil
}

func (l *Loop) dropDangling(evt *Event) {
	err := fmt.Errorf("%w: event %d (%s) at t=%s refers to %s",
		ErrDanglingTarget, evt.id, evt.class.Name, evt.time, evt.target)
	if l.strict {
		panic(err)
	}

	l.log.WithField("event", evt.id).Warn(err)
	l.Cancel(evt)
}

func (l *Loop) requeue(evt *Event, entity any, firedAt timing.VTime) {
	if !evt.alive || evt.queued {
		return
	}

	switch evt.class.Trigger {
	case Once:
		l.Cancel(evt)
	case Repeat:
		t := evt.class.predict(l.invocation(evt, entity, firedAt))
		if t == timing.TimeMin || t == timing.TimeMax {
			l.log.Debugf("[t=%s] repeating event %d (%s) stops",
				l.now, evt.id, evt.class.Name)
			l.Cancel(evt)

			return
		}

		l.schedule(evt, t)
	}
}

// applyChanges reschedules the events affected by pending changes. A
// Dependency or DependencyImmediately event that is scheduled before its
// change keeps the change until it has fired.
func (l *Loop) applyChanges() {
	if len(l.pending) == 0 {
		return
	}

	pending := l.pending
	l.pending = nil

	var deferred []*Event
	for _, evt := range pending {
		if !evt.alive || !evt.pending {
			continue
		}

		if !l.applyChange(evt) {
			deferred = append(deferred, evt)
			continue
		}

		evt.pending = false
	}

	l.pending = append(deferred, l.pending...)
}

func (l *Loop) applyChange(evt *Event) bool {
	at := l.clamp(evt.pendingAt)

	switch evt.class.Trigger {
	case Once:
		l.predictAgain(evt, at)
	case Dependency:
		if evt.queued && at > evt.time {
			return false
		}
		l.predictAgain(evt, at)
	case DependencyImmediately:
		if evt.queued && at > evt.time {
			return false
		}
		l.schedule(evt, at)
	}

	return true
}

func (l *Loop) predictAgain(evt *Event, at timing.VTime) {
	entity, _ := l.targets.Get(evt.target)
	t := evt.class.predict(l.invocation(evt, entity, at))

	switch t {
	case timing.TimeMin:
		l.log.Debugf("[t=%s] change at t=%s cancels event %d (%s)",
			l.now, at, evt.id, evt.class.Name)
		l.Cancel(evt)
	case timing.TimeMax:
		l.queue.Cancel(evt)
	default:
		l.schedule(evt, t)
	}
}

func (l *Loop) schedule(evt *Event, t timing.VTime) {
	t = l.clamp(t)
	l.queue.Reschedule(evt, t)

	l.log.Debugf("[t=%s] event %d (%s) scheduled at t=%s",
		l.now, evt.id, evt.class.Name, t)
}

func (l *Loop) clamp(t timing.VTime) timing.VTime {
	if t < l.now {
		return l.now
	}

	return t
}

func (l *Loop) invocation(evt *Event, entity any, at timing.VTime) *Invocation {
	return &Invocation{
		Loop:   l,
		Event:  evt,
		Target: entity,
		At:     at,
		Params: evt.params,
	}
}

func (l *Loop) addDependent(target TargetID, evt *Event) {
	l.dependents[target] = append(l.dependents[target], evt)
}

func (l *Loop) removeDependent(target TargetID, evt *Event) {
	list := l.dependents[target]

	i := slices.Index(list, evt)
	if i < 0 {
		return
	}

	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(l.dependents, target)
		return
	}

	l.dependents[target] = list
}
