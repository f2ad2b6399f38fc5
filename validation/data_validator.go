// Package validation checks loaded SmPC records and user supplied query values.
package validation

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/giygas/smpc-comparator/interfaces"
	"github.com/giygas/smpc-comparator/record"
)

const (
	// MaxFilterLength is the longest accepted filter, in characters
	MaxFilterLength = 200
	// MaxKeyLength is the longest accepted record key, in characters
	MaxKeyLength = 256
	// maxListedDuplicates caps the keys kept in a quality report
	maxListedDuplicates = 10
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() *DataValidatorImpl {
	return &DataValidatorImpl{}
}

var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// ValidateRecord checks that a record carries a usable id and a product name
func (v *DataValidatorImpl) ValidateRecord(r record.Record) error {
	if len(r.Fields) == 0 {
		return fmt.Errorf("record %s has no fields", r.Key)
	}

	id := r.Get(record.FieldID)
	if (id.Kind != record.KindString && id.Kind != record.KindNumber) || id.Text == "" {
		return fmt.Errorf("record %s has no usable %s", r.Key, record.FieldID)
	}

	if name := r.Name(); name.IsMissing() {
		return fmt.Errorf("record %s has no %s", r.Key, record.FieldName)
	}

	return nil
}

// ReportDataQuality counts the records that cannot be fully used
func (v *DataValidatorImpl) ReportDataQuality(records []record.Record, decoded record.DecodeReport) interfaces.DataQualityReport {
	report := interfaces.DataQualityReport{
		TotalRecords:    len(records),
		SkippedElements: decoded.Skipped,
		DuplicateKeys:   []string{},
	}

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.Key] && len(report.DuplicateKeys) < maxListedDuplicates {
			report.DuplicateKeys = append(report.DuplicateKeys, r.Key)
		}
		seen[r.Key] = true

		if id := r.Get(record.FieldID); id.IsMissing() || id.Text == "" {
			report.RecordsWithoutID++
		}
		if r.Name().IsMissing() {
			report.RecordsWithoutName++
		}
		if r.AuthorisationNumber().IsMissing() {
			report.RecordsWithoutAuthNumber++
		}
	}

	return report
}

// ValidateFilter accepts empty filters and free text up to MaxFilterLength
// characters without control characters. Filters are only matched as
// substrings and the page escapes them on output.
func (v *DataValidatorImpl) ValidateFilter(input string) error {
	if input == "" {
		return nil
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("filter is not valid UTF-8")
	}

	if utf8.RuneCountInString(input) > MaxFilterLength {
		return fmt.Errorf("filter too long: maximum %d characters", MaxFilterLength)
	}

	if hasControl(input) {
		return fmt.Errorf("filter contains control characters")
	}

	return nil
}

// ValidateKey bounds a record key taken from a URL. Keys are upstream ids,
// so any printable text is allowed; whether it exists is up to the store.
func (v *DataValidatorImpl) ValidateKey(input string) error {
	if input == "" || !utf8.ValidString(input) ||
		utf8.RuneCountInString(input) > MaxKeyLength || hasControl(input) {
		return fmt.Errorf("invalid record key %q", input)
	}
	return nil
}

func hasControl(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
