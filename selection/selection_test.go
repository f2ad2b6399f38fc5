package selection

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/giygas/smpc-comparator/record"
)

func rec(key string) record.Record {
	return record.New(key, map[string]string{record.FieldID: key})
}

func TestToggle(t *testing.T) {
	tests := []struct {
		name  string
		start []string
		pick  string
		want  []string
	}{
		{"append to empty", nil, "a", []string{"a"}},
		{"append second", []string{"a"}, "b", []string{"a", "b"}},
		{"deselect only", []string{"a"}, "a", []string{}},
		{"deselect first of two", []string{"a", "b"}, "a", []string{"b"}},
		{"deselect second of two", []string{"a", "b"}, "b", []string{"a"}},
		{"third evicts oldest", []string{"a", "b"}, "c", []string{"b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Set
			for _, k := range tt.start {
				s = s.Toggle(rec(k))
			}

			got := s.Toggle(rec(tt.pick)).Keys()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Toggle() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToggleTwiceRestoresSelection(t *testing.T) {
	starts := [][]string{nil, {"a"}}
	for _, start := range starts {
		var s Set
		for _, k := range start {
			s = s.Toggle(rec(k))
		}
		before := s.Keys()

		for _, pick := range []string{"a", "z"} {
			after := s.Toggle(rec(pick)).Toggle(rec(pick)).Keys()
			if diff := cmp.Diff(before, after); diff != "" {
				t.Errorf("start %v pick %s: toggle twice changed selection (-want +got):\n%s", start, pick, diff)
			}
		}
	}
}

func TestThirdSelectionAlwaysEvictsEarliest(t *testing.T) {
	s := Of(rec("a"), rec("b"))
	for i, next := range []string{"c", "d", "e"} {
		oldest, _ := s.At(0)
		newest, _ := s.At(1)
		s = s.Toggle(rec(next))

		if s.Contains(oldest.Key) {
			t.Errorf("step %d: %s should have been evicted", i, oldest.Key)
		}
		if diff := cmp.Diff([]string{newest.Key, next}, s.Keys()); diff != "" {
			t.Errorf("step %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestToggleDoesNotMutateReceiver(t *testing.T) {
	s := Of(rec("a"), rec("b"))
	_ = s.Toggle(rec("c"))
	_ = s.Toggle(rec("a"))
	if diff := cmp.Diff([]string{"a", "b"}, s.Keys()); diff != "" {
		t.Errorf("receiver changed (-want +got):\n%s", diff)
	}
}

func TestClearAndAccessors(t *testing.T) {
	s := Of(rec("a"), rec("b"))
	if !s.Full() || s.Len() != 2 {
		t.Fatalf("expected a full set, got len %d", s.Len())
	}
	if _, ok := s.At(2); ok {
		t.Error("At out of range should fail")
	}

	s = s.Clear()
	if s.Len() != 0 || s.Full() {
		t.Errorf("Clear left %d records", s.Len())
	}
}

func TestFromKeys(t *testing.T) {
	index := map[string]record.Record{"a": rec("a"), "b": rec("b"), "c": rec("c")}
	lookup := func(k string) (record.Record, bool) {
		r, ok := index[k]
		return r, ok
	}

	tests := []struct {
		keys []string
		want []string
	}{
		{[]string{"a", "b"}, []string{"a", "b"}},
		{[]string{"a", "missing", "b"}, []string{"a", "b"}},
		{[]string{"a", "b", "c"}, []string{"b", "c"}},
		{[]string{"a", "a"}, []string{}},
	}

	for _, tt := range tests {
		got := FromKeys(tt.keys, lookup).Keys()
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("FromKeys(%v) mismatch (-want +got):\n%s", tt.keys, diff)
		}
	}
}
