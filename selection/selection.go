// Package selection keeps the records picked for comparison. A Set holds at
// most two records and behaves like a ring buffer: picking a third record
// drops the one picked first.
//
// Sets are values; every operation returns a new Set and never mutates the
// receiver, so a selection can be rebuilt from a key list at any time.
package selection

import "github.com/giygas/smpc-comparator/record"

// Capacity is the number of records that can be compared at once
const Capacity = 2

// Set is an ordered selection, oldest first
type Set struct {
	records []record.Record
}

// Of builds a set by toggling each record in turn
func Of(records ...record.Record) Set {
	var s Set
	for _, r := range records {
		s = s.Toggle(r)
	}
	return s
}

// FromKeys replays a list of keys through Toggle. Keys that lookup does not
// resolve are ignored.
func FromKeys(keys []string, lookup func(key string) (record.Record, bool)) Set {
	var s Set
	for _, key := range keys {
		if r, ok := lookup(key); ok {
			s = s.Toggle(r)
		}
	}
	return s
}

// Toggle removes r when it is already selected, appends it when there is room,
// and otherwise evicts the oldest selection before appending.
func (s Set) Toggle(r record.Record) Set {
	if i := s.indexOf(r.Key); i >= 0 {
		next := make([]record.Record, 0, Capacity)
		next = append(next, s.records[:i]...)
		next = append(next, s.records[i+1:]...)
		return Set{records: next}
	}

	kept := s.records
	if len(kept) >= Capacity {
		kept = kept[len(kept)-Capacity+1:]
	}

	next := make([]record.Record, 0, Capacity)
	next = append(next, kept...)
	next = append(next, r)
	return Set{records: next}
}

// Clear returns an empty set
func (s Set) Clear() Set {
	return Set{}
}

func (s Set) Len() int   { return len(s.records) }
func (s Set) Full() bool { return len(s.records) >= Capacity }

// Contains reports whether the record with key is selected
func (s Set) Contains(key string) bool {
	return s.indexOf(key) >= 0
}

// Records returns the selection, oldest first
func (s Set) Records() []record.Record {
	out := make([]record.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Keys returns the selected keys, oldest first
func (s Set) Keys() []string {
	keys := make([]string, len(s.records))
	for i, r := range s.records {
		keys[i] = r.Key
	}
	return keys
}

// At returns the i-th selected record
func (s Set) At(i int) (record.Record, bool) {
	if i < 0 || i >= len(s.records) {
		return record.Record{}, false
	}
	return s.records[i], true
}

func (s Set) indexOf(key string) int {
	for i, r := range s.records {
		if r.Key == key {
			return i
		}
	}
	return -1
}
