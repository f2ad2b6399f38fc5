package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/giygas/smpc-comparator/interfaces"
	"github.com/giygas/smpc-comparator/record"
)

func withID(id string, fields map[string]string) record.Record {
	r := record.New(id, fields)
	r.Fields[record.FieldID] = record.Number(id)
	return r
}

func TestValidateRecord(t *testing.T) {
	v := NewDataValidator()

	nullName := withID("3", nil)
	nullName.Fields[record.FieldName] = record.Null()

	tests := []struct {
		name    string
		rec     record.Record
		wantErr string
	}{
		{"valid", withID("1", map[string]string{record.FieldName: "Paracetamol"}), ""},
		{"no fields", record.Record{Key: "row-0"}, "no fields"},
		{"no id", record.New("row-1", map[string]string{record.FieldName: "X"}), "no usable id"},
		{"null name", nullName, "no S1_Name_of_Medicinal_product"},
		{"empty name is still a name", withID("4", map[string]string{record.FieldName: ""}), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRecord(tt.rec)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReportDataQuality(t *testing.T) {
	v := NewDataValidator()

	nullAuth := withID("2", map[string]string{record.FieldName: "Ibuprofen"})
	nullAuth.Fields[record.FieldAuthorisationNumber] = record.Null()

	records := []record.Record{
		withID("1", map[string]string{record.FieldName: "Paracetamol", record.FieldAuthorisationNumber: "A1"}),
		nullAuth,
		withID("1", map[string]string{record.FieldAuthorisationNumber: "A3"}),
		record.New("row-3", map[string]string{record.FieldName: "No id", record.FieldAuthorisationNumber: "A4"}),
	}

	got := v.ReportDataQuality(records, record.DecodeReport{Elements: 5, Skipped: 1})
	want := interfaces.DataQualityReport{
		TotalRecords:             4,
		SkippedElements:          1,
		DuplicateKeys:            []string{"1"},
		RecordsWithoutID:         1,
		RecordsWithoutName:       1,
		RecordsWithoutAuthNumber: 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateFilter(t *testing.T) {
	v := NewDataValidator()

	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"paracetamol", false},
		{"Ébastine 10 mg", false},
		{"PA 1234/5/6", false},
		{"amoxicillin (as trihydrate) 50%", false},
		{strings.Repeat("a", MaxFilterLength), false},
		{strings.Repeat("a", MaxFilterLength+1), true},
		{strings.Repeat("é", MaxFilterLength), false},
		{"para\x00cetamol", true},
		{"line\nbreak", true},
		{"\xff\xfe", true},
		{"<script>alert(1)</script>", false},
		{`" onerror="x`, false},
	}

	for _, tt := range tests {
		err := v.ValidateFilter(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFilter(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateKey(t *testing.T) {
	v := NewDataValidator()

	tests := []struct {
		input   string
		wantErr bool
	}{
		{"1", false},
		{"row-12", false},
		{"EU.1.23:45_b", false},
		{"1.5e+21", false},
		{"EU/1/96/001", false},
		{"B 2", false},
		{"Médicament 7", false},
		{strings.Repeat("9", MaxKeyLength), false},
		{"", true},
		{strings.Repeat("9", MaxKeyLength+1), true},
		{"a\nb", true},
		{"\xff", true},
	}

	for _, tt := range tests {
		err := v.ValidateKey(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
