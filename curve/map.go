package curve

import (
	"github.com/sarchlab/tempo/instrumentation/hooking"
	"github.com/sarchlab/tempo/timing"
)

type mapEntry[K comparable, V any] struct {
	lifetime
	key   K
	value V
}

// Map holds values that exist for a span of time. Each key has one value
// with a birth and a kill time; looking a key up at t finds it only while
// birth <= t < kill.
//
// Keys are meant to be used once. Inserting a key again replaces its value
// and lifetime.
type Map[K comparable, V any] struct {
	hooking.HookableBase

	index   map[K]int
	entries []mapEntry[K, V]
	version uint64
}

// NewMap creates an empty map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{index: make(map[K]int)}
}

// Len returns the number of keys, dead ones included.
func (m *Map[K, V]) Len() int {
	return len(m.entries)
}

// Version counts modifications. Iterators created before a modification
// become invalid.
func (m *Map[K, V]) Version() uint64 {
	return m.version
}

// Insert adds key with a value that is born at birth and never killed.
func (m *Map[K, V]) Insert(birth timing.VTime, key K, v V) {
	m.InsertBetween(birth, timing.TimeMax, key, v)
}

// InsertBetween adds key with a value that lives in [birth, kill).
func (m *Map[K, V]) InsertBetween(birth, kill timing.VTime, key K, v V) {
	e := mapEntry[K, V]{
		lifetime: lifetime{alive: birth, dead: kill},
		key:      key,
		value:    v,
	}

	at := birth
	if i, ok := m.index[key]; ok {
		at = timing.Min(at, m.entries[i].alive)
		m.entries[i] = e
	} else {
		m.index[key] = len(m.entries)
		m.entries = append(m.entries, e)
	}

	m.changed(at)
}

// At returns the value of key if it is alive at t.
func (m *Map[K, V]) At(t timing.VTime, key K) (V, bool) {
	i, ok := m.index[key]
	if !ok || !m.entries[i].liveAt(t) {
		var zero V
		return zero, false
	}

	return m.entries[i].value, true
}

// Contains reports whether key is alive at t.
func (m *Map[K, V]) Contains(t timing.VTime, key K) bool {
	_, ok := m.At(t, key)
	return ok
}

// Birth moves the birth time of key to t. It returns false if there is no
// such key.
func (m *Map[K, V]) Birth(t timing.VTime, key K) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}

	at := timing.Min(t, m.entries[i].alive)
	m.entries[i].alive = t
	m.changed(at)

	return true
}

// Kill ends the life of key at t. It returns false if there is no such key.
func (m *Map[K, V]) Kill(t timing.VTime, key K) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}

	at := timing.Min(t, m.entries[i].dead)
	m.entries[i].dead = t
	m.changed(at)

	return true
}

// Live returns an iterator over the entries alive at t, in the order the
// keys were first inserted.
func (m *Map[K, V]) Live(t timing.VTime) *MapIterator[K, V] {
	return m.Between(t, t.Add(timing.Epsilon))
}

// Between returns an iterator over the entries alive at some time in
// [from, to).
func (m *Map[K, V]) Between(from, to timing.VTime) *MapIterator[K, V] {
	return &MapIterator[K, V]{
		m:       m,
		version: m.version,
		from:    from,
		to:      to,
	}
}

func (m *Map[K, V]) changed(at timing.VTime) {
	m.version++

	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(hooking.HookCtx{
		Domain: m,
		Pos:    HookPosChanged,
		Item:   m,
		Detail: Change{At: at},
	})
}

// MapIterator walks map entries in first insertion order. It stops with
// ErrIteratorInvalidated once the map is modified.
type MapIterator[K comparable, V any] struct {
	m        *Map[K, V]
	version  uint64
	pos      int
	from, to timing.VTime

	cur mapEntry[K, V]
	err error
}

// Next advances to the next entry and reports whether there is one.
func (it *MapIterator[K, V]) Next() bool {
	if it.err != nil {
		return false
	}

	if it.m.version != it.version {
		it.err = ErrIteratorInvalidated
		return false
	}

	for it.pos < len(it.m.entries) {
		e := it.m.entries[it.pos]
		it.pos++

		if e.alive < it.to && e.dead > it.from {
			it.cur = e
			return true
		}
	}

	return false
}

// Key returns the key of the current entry.
func (it *MapIterator[K, V]) Key() K {
	return it.cur.key
}

// Value returns the value of the current entry.
func (it *MapIterator[K, V]) Value() V {
	return it.cur.value
}

// Birth returns when the current entry was born.
func (it *MapIterator[K, V]) Birth() timing.VTime {
	return it.cur.alive
}

// Killed returns when the current entry was killed, or TimeMax.
func (it *MapIterator[K, V]) Killed() timing.VTime {
	return it.cur.dead
}

// Err returns the error that stopped the iteration, if any.
func (it *MapIterator[K, V]) Err() error {
	return it.err
}
