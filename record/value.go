package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Placeholder is rendered for absent and null values
const Placeholder = "N/A"

// Kind tells how a value appeared on the wire
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindJSON:
		return "json"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a single field value of a record. The zero value is an absent field.
type Value struct {
	Kind Kind
	Text string
}

// Null returns a JSON null value
func Null() Value { return Value{Kind: KindNull} }

// String returns a string value
func String(s string) Value { return Value{Kind: KindString, Text: s} }

// Number returns a number value from its textual form
func Number(text string) Value { return Value{Kind: KindNumber, Text: text} }

// IsMissing reports whether the value is absent or null
func (v Value) IsMissing() bool {
	return v.Kind == KindAbsent || v.Kind == KindNull
}

// Equal is strict equality: absent, null and "" are three different values.
func (v Value) Equal(other Value) bool {
	return v.Kind == other.Kind && v.Text == other.Text
}

// Display returns the text shown to users
func (v Value) Display() string {
	if v.IsMissing() {
		return Placeholder
	}
	return v.Text
}

// Truthy mirrors how the UI decides between a value and its fallback.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindString:
		return v.Text != ""
	case KindNumber:
		return v.Text != "0" && v.Text != "NaN"
	case KindBool:
		return v.Text == "true"
	case KindJSON:
		return true
	}
	return false
}

// MarshalJSON writes the value back in its wire form
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Text)
	case KindNumber, KindBool, KindJSON:
		return []byte(v.Text), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON classifies a raw JSON token
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := parseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func parseValue(raw []byte) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Value{}, fmt.Errorf("empty JSON value")
	}

	switch raw[0] {
	case 'n':
		return Null(), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, fmt.Errorf("invalid boolean %q: %w", raw, err)
		}
		return Value{Kind: KindBool, Text: strconv.FormatBool(b)}, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("invalid string: %w", err)
		}
		return String(s), nil
	case '{', '[':
		text, err := canonicalJSON(raw)
		if err != nil {
			return Value{}, fmt.Errorf("invalid nested JSON: %w", err)
		}
		return Value{Kind: KindJSON, Text: text}, nil
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return Number(formatNumber(f)), nil
}

// canonicalJSON re-encodes nested JSON with sorted object keys and browser
// style numbers, so equal documents have equal text.
func canonicalJSON(raw []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Interface returns the value as encoding/json would decode it: nil, string,
// float64, bool, or nested maps and slices. Absent values return nil too.
func (v Value) Interface() (any, error) {
	switch v.Kind {
	case KindString:
		return v.Text, nil
	case KindNumber:
		return strconv.ParseFloat(v.Text, 64)
	case KindBool:
		return v.Text == "true", nil
	case KindJSON:
		var doc any
		if err := json.Unmarshal([]byte(v.Text), &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return nil, nil
}

// formatNumber renders a float the way a browser would print it, so 1 and 1.0
// compare equal.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	s = strings.Replace(s, "e-0", "e-", 1)
	return strings.Replace(s, "e+0", "e+", 1)
}
