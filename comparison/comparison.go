// Package comparison builds the side by side view of two selected records.
package comparison

import (
	"fmt"
	"slices"

	"github.com/giygas/smpc-comparator/fieldnames"
	"github.com/giygas/smpc-comparator/record"
	"github.com/giygas/smpc-comparator/selection"
)

// PromptMessage is shown while only one record is selected
const PromptMessage = "Select another item to compare"

// Mode tells what the comparison area shows
type Mode int

const (
	ModeNone   Mode = iota // nothing selected
	ModePrompt             // one record selected
	ModeTable              // two records selected
)

func (m Mode) String() string {
	switch m {
	case ModePrompt:
		return "prompt"
	case ModeTable:
		return "table"
	}
	return "none"
}

// Tint is the highlight class of a row or value cell
type Tint string

const (
	TintNone  Tint = ""
	TintRow   Tint = "differs"
	TintLeft  Tint = "differs-left"
	TintRight Tint = "differs-right"
)

// Namer resolves field keys to display labels
type Namer interface {
	DisplayName(key string) string
}

type defaultNamer struct{}

func (defaultNamer) DisplayName(key string) string { return fieldnames.DisplayName(key) }

// Row compares one field of the two records
type Row struct {
	Field     string
	Label     string
	Left      record.Value
	Right     record.Value
	Different bool
}

func (r Row) RowTint() Tint {
	if r.Different {
		return TintRow
	}
	return TintNone
}

func (r Row) LeftTint() Tint {
	if r.Different {
		return TintLeft
	}
	return TintNone
}

func (r Row) RightTint() Tint {
	if r.Different {
		return TintRight
	}
	return TintNone
}

// Result is the comparison area content
type Result struct {
	Mode  Mode
	Count int
	Left  record.Record
	Right record.Record
	Rows  []Row
}

// Build derives the comparison for a selection. With one record the result
// only carries the prompt; with two it carries one row per field key present
// on either record, sorted by key.
func Build(sel selection.Set, namer Namer) Result {
	if namer == nil {
		namer = defaultNamer{}
	}

	res := Result{Count: sel.Len()}
	switch sel.Len() {
	case 0:
		res.Mode = ModeNone
		return res
	case 1:
		res.Mode = ModePrompt
		res.Left, _ = sel.At(0)
		return res
	}

	res.Mode = ModeTable
	res.Left, _ = sel.At(0)
	res.Right, _ = sel.At(1)
	res.Rows = Rows(res.Left, res.Right, namer)
	return res
}

// Rows compares two records field by field. Values are different unless they
// are strictly equal, so a missing field never equals an empty string.
func Rows(left, right record.Record, namer Namer) []Row {
	if namer == nil {
		namer = defaultNamer{}
	}

	keys := FieldUnion(left, right)
	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		l, r := left.Get(key), right.Get(key)
		rows = append(rows, Row{
			Field:     key,
			Label:     namer.DisplayName(key),
			Left:      l,
			Right:     r,
			Different: !l.Equal(r),
		})
	}
	return rows
}

// FieldUnion returns every key present on either record, sorted
func FieldUnion(left, right record.Record) []string {
	seen := make(map[string]struct{}, len(left.Fields)+len(right.Fields))
	for k := range left.Fields {
		seen[k] = struct{}{}
	}
	for k := range right.Fields {
		seen[k] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// LeftHeader is the first column title: the product name, or "Item 1"
func (r Result) LeftHeader() string {
	return header(r.Left, "Item 1")
}

// RightHeader is the second column title: the product name, or "Item 2"
func (r Result) RightHeader() string {
	return header(r.Right, "Item 2")
}

func header(rec record.Record, fallback string) string {
	if name := rec.Name(); name.Truthy() {
		return name.Text
	}
	return fallback
}

// DifferentCount returns how many rows differ
func (r Result) DifferentCount() int {
	n := 0
	for _, row := range r.Rows {
		if row.Different {
			n++
		}
	}
	return n
}

// OnlyDifferent returns the differing rows
func (r Result) OnlyDifferent() []Row {
	rows := make([]Row, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.Different {
			rows = append(rows, row)
		}
	}
	return rows
}

// Title is the heading of the comparison area, e.g. "Comparison View (2 items)"
func (r Result) Title() string {
	if r.Count == 1 {
		return "Comparison View (1 item)"
	}
	return fmt.Sprintf("Comparison View (%d items)", r.Count)
}
