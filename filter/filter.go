// Package filter narrows a record set down by product name and authorisation number.
package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/giygas/smpc-comparator/record"
)

// State holds the two search predicates. Both match case-insensitively as
// substrings and are combined with AND.
type State struct {
	Name string `json:"name"`
	Auth string `json:"auth"`
}

// IsEmpty reports whether neither predicate is set
func (s State) IsEmpty() bool {
	return s.Name == "" && s.Auth == ""
}

// Apply returns the records matching state, in input order. The result never
// aliases the input slice.
func Apply(records []record.Record, state State) []record.Record {
	m := newMatcher(state)

	results := make([]record.Record, 0, len(records))
	for _, r := range records {
		if m.matches(r) {
			results = append(results, r)
		}
	}
	return results
}

// Matches reports whether a single record passes the filter
func Matches(r record.Record, state State) bool {
	return newMatcher(state).matches(r)
}

type matcher struct {
	fold cases.Caser
	name string
	auth string
}

func newMatcher(state State) *matcher {
	// a Caser is stateful, so each matcher gets its own
	m := &matcher{fold: cases.Fold()}
	m.name = m.fold.String(state.Name)
	m.auth = m.fold.String(state.Auth)
	return m
}

func (m *matcher) matches(r record.Record) bool {
	// a record without a product name never matches, even an empty name filter
	name := r.Name()
	if name.IsMissing() || !strings.Contains(m.fold.String(name.Text), m.name) {
		return false
	}

	if m.auth == "" {
		return true
	}

	auth := r.AuthorisationNumber()
	return !auth.IsMissing() && strings.Contains(m.fold.String(auth.Text), m.auth)
}
