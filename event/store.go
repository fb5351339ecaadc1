package event

import (
	"slices"

	"github.com/sarchlab/tempo/idgen"
	"github.com/sarchlab/tempo/timing"
)

// A Record is an entry in the Store.
type Record struct {
	Seq     uint64
	EventID idgen.ID
	Class   string
	Target  TargetID
	Time    timing.VTime
}

// Store is the log of fired events in firing order. Only the Loop appends to
// it.
type Store struct {
	records []Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// At returns the i-th record.
func (s *Store) At(i int) Record {
	return s.records[i]
}

// Records returns a copy of all records.
func (s *Store) Records() []Record {
	return slices.Clone(s.records)
}

// Since returns a copy of the records with sequence numbers greater than
// seq.
func (s *Store) Since(seq uint64) []Record {
	i, _ := slices.BinarySearchFunc(s.records, seq+1,
		func(r Record, target uint64) int {
			switch {
			case r.Seq < target:
				return -1
			case r.Seq > target:
				return 1
			}
			return 0
		})

	return slices.Clone(s.records[i:])
}

// Iter returns an iterator over the records that exist now. Records added
// later are not visited.
func (s *Store) Iter() *StoreIterator {
	return &StoreIterator{records: s.records[:len(s.records):len(s.records)], pos: -1}
}

func (s *Store) append(evt *Event) Record {
	r := Record{
		Seq:     uint64(len(s.records)) + 1,
		EventID: evt.id,
		Class:   evt.class.Name,
		Target:  evt.target,
		Time:    evt.time,
	}
	s.records = append(s.records, r)

	return r
}

func (s *Store) clear() {
	s.records = nil
}

// StoreIterator walks store records in firing order.
type StoreIterator struct {
	records []Record
	pos     int
}

// Next advances to the next record and reports whether there is one.
func (it *StoreIterator) Next() bool {
	if it.pos+1 >= len(it.records) {
		it.pos = len(it.records)
		return false
	}

	it.pos++

	return true
}

// Record returns the record the last successful Next moved to.
func (it *StoreIterator) Record() Record {
	return it.records[it.pos]
}
