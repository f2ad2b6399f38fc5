package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedPayload is returned when the payload is neither an object nor an array
var ErrUnexpectedPayload = errors.New("unexpected JSON payload: expected an array or an object")

// DecodeReport counts what Decode had to drop
type DecodeReport struct {
	Elements int // array elements seen, 1 for a single object
	Skipped  int // elements that were not JSON objects
}

// Decode parses the upstream payload. An array yields one record per object
// element; a single object is normalised into a one-element slice.
func Decode(payload []byte) ([]Record, DecodeReport, error) {
	var report DecodeReport

	payload = bytes.TrimPrefix(bytes.TrimSpace(payload), []byte("\xef\xbb\xbf"))
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, report, ErrUnexpectedPayload
	}

	switch payload[0] {
	case '{':
		rec, err := decodeObject(payload)
		if err != nil {
			return nil, report, err
		}
		report.Elements = 1
		records := []Record{rec}
		AssignKeys(records)
		return records, report, nil

	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(payload, &elements); err != nil {
			return nil, report, fmt.Errorf("failed to decode record array: %w", err)
		}

		report.Elements = len(elements)
		records := make([]Record, 0, len(elements))
		for i, element := range elements {
			element = bytes.TrimSpace(element)
			if len(element) == 0 || element[0] != '{' {
				report.Skipped++
				continue
			}
			rec, err := decodeObject(element)
			if err != nil {
				return nil, report, fmt.Errorf("record %d: %w", i, err)
			}
			records = append(records, rec)
		}
		AssignKeys(records)
		return records, report, nil
	}

	return nil, report, ErrUnexpectedPayload
}

func decodeObject(raw []byte) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Record{}, fmt.Errorf("failed to decode record: %w", err)
	}

	rec := Record{Fields: make(map[string]Value, len(fields))}
	for key, rawValue := range fields {
		if len(rawValue) == 0 {
			rec.Fields[key] = Null()
			continue
		}
		v, err := parseValue(rawValue)
		if err != nil {
			return Record{}, fmt.Errorf("field %q: %w", key, err)
		}
		rec.Fields[key] = v
	}
	return rec, nil
}
