// Package record holds the SmPC product record model and its JSON decoding.
// Records are schemaless: every field the upstream API sends is kept, and the
// few fields the comparator relies on are addressed through the constants below.
package record

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Known field keys
const (
	FieldID                  = "id"
	FieldName                = "S1_Name_of_Medicinal_product"
	FieldComposition         = "S2_Composition"
	FieldCompositionCleaned  = "S2_Composition_cleaned"
	FieldPharmaceuticalForm  = "S3_pharmaceutical_form"
	FieldAuthorisationNumber = "s_8_authorisation_number"
)

// Record is one medicinal product dossier
type Record struct {
	// Key identifies the record inside a loaded data set
	Key    string
	Fields map[string]Value
}

// New builds a record from plain strings, mostly useful in tests and tools.
func New(key string, fields map[string]string) Record {
	r := Record{Key: key, Fields: make(map[string]Value, len(fields))}
	for k, v := range fields {
		r.Fields[k] = String(v)
	}
	return r
}

// Get returns the field value, absent when the record does not carry it
func (r Record) Get(field string) Value {
	v, ok := r.Fields[field]
	if !ok {
		return Value{}
	}
	return v
}

// Has reports whether the field key is present, even with a null value
func (r Record) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// FieldKeys returns the record's keys in lexicographic order
func (r Record) FieldKeys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (r Record) Name() Value                { return r.Get(FieldName) }
func (r Record) AuthorisationNumber() Value { return r.Get(FieldAuthorisationNumber) }
func (r Record) PharmaceuticalForm() Value  { return r.Get(FieldPharmaceuticalForm) }

// Composition returns the composition text, falling back to the cleaned
// composition and then to the placeholder.
func (r Record) Composition() string {
	if v := r.Get(FieldComposition); v.Truthy() {
		return v.Text
	}
	if v := r.Get(FieldCompositionCleaned); v.Truthy() {
		return v.Text
	}
	return Placeholder
}

// MarshalJSON encodes the record as the flat object it was decoded from
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Fields)
}

// AssignKeys sets each record's Key from its id field. Records without a usable
// id are keyed by position.
func AssignKeys(records []Record) {
	for i := range records {
		id := records[i].Get(FieldID)
		if (id.Kind == KindString || id.Kind == KindNumber) && id.Text != "" {
			records[i].Key = id.Text
			continue
		}
		records[i].Key = fmt.Sprintf("row-%d", i)
	}
}
