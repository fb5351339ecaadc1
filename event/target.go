package event

import "fmt"

// TargetID refers to an entity in a Targets arena. The low 32 bits hold the
// slot, the high 32 bits the generation of the slot. The zero TargetID never
// refers to an entity.
type TargetID uint64

// NoTarget is the zero TargetID.
const NoTarget = TargetID(0)

func makeTargetID(slot int, gen uint32) TargetID {
	return TargetID(uint64(gen)<<32 | uint64(slot+1))
}

func (id TargetID) slot() int {
	return int(uint32(id)) - 1
}

func (id TargetID) gen() uint32 {
	return uint32(uint64(id) >> 32)
}

func (id TargetID) String() string {
	if id == NoTarget {
		return "target(none)"
	}

	return fmt.Sprintf("target(%d#%d)", id.slot(), id.gen())
}

type targetSlot struct {
	entity any
	gen    uint32
	used   bool
}

// Targets is an arena of the entities that events act on. Events hold
// TargetIDs instead of the entities, so an entity can go away while events
// still refer to it.
type Targets struct {
	slots []targetSlot
	free  []int
	count int
}

// NewTargets creates an empty arena.
func NewTargets() *Targets {
	return &Targets{}
}

// Add stores an entity and returns its id.
func (t *Targets) Add(entity any) TargetID {
	var i int
	if n := len(t.free); n > 0 {
		i = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, targetSlot{})
		i = len(t.slots) - 1
	}

	s := &t.slots[i]
	s.entity = entity
	s.gen++
	s.used = true
	t.count++

	return makeTargetID(i, s.gen)
}

// Get returns the entity of id. The second value is false if the entity was
// destroyed or never existed.
func (t *Targets) Get(id TargetID) (any, bool) {
	s := t.lookup(id)
	if s == nil {
		return nil, false
	}

	return s.entity, true
}

// Contains reports whether id refers to a live entity.
func (t *Targets) Contains(id TargetID) bool {
	return t.lookup(id) != nil
}

// Destroy removes the entity of id from the arena. It reports whether the
// entity existed. Events are not touched; use Loop.DestroyTarget to also
// cancel them.
func (t *Targets) Destroy(id TargetID) bool {
	s := t.lookup(id)
	if s == nil {
		return false
	}

	s.entity = nil
	s.used = false
	t.free = append(t.free, id.slot())
	t.count--

	return true
}

// Len returns the number of live entities.
func (t *Targets) Len() int {
	return t.count
}

// Each visits the live entities in slot order until fn returns false.
func (t *Targets) Each(fn func(id TargetID, entity any) bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.used {
			continue
		}

		if !fn(makeTargetID(i, s.gen), s.entity) {
			return
		}
	}
}

func (t *Targets) lookup(id TargetID) *targetSlot {
	i := id.slot()
	if i < 0 || i >= len(t.slots) {
		return nil
	}

	s := &t.slots[i]
	if !s.used || s.gen != id.gen() {
		return nil
	}

	return s
}

// GetAs returns the entity of id if it exists and has type T.
func GetAs[T any](t *Targets, id TargetID) (T, bool) {
	entity, ok := t.Get(id)
	if !ok {
		var zero T
		return zero, false
	}

	typed, ok := entity.(T)

	return typed, ok
}
