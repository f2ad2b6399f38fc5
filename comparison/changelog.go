package comparison

import (
	"fmt"

	"github.com/r3labs/diff/v2"

	"github.com/giygas/smpc-comparator/record"
)

// Changelog lists what changes from left to right as create/update/delete
// entries keyed by field path. Values keep their JSON types, so a number and
// its string form are an update, and null is reported as nil.
func Changelog(left, right record.Record) (diff.Changelog, error) {
	l, err := typed(left)
	if err != nil {
		return nil, err
	}
	r, err := typed(right)
	if err != nil {
		return nil, err
	}

	cl, err := diff.Diff(l, r, diff.DiscardComplexOrigin(), diff.AllowTypeMismatch(true), diff.SliceOrdering(true))
	if err != nil {
		return nil, fmt.Errorf("failed to diff records %s and %s: %w", left.Key, right.Key, err)
	}
	return cl, nil
}

func typed(r record.Record) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(r.Fields))
	for k, v := range r.Fields {
		if v.Kind == record.KindAbsent {
			continue
		}
		val, err := v.Interface()
		if err != nil {
			return nil, fmt.Errorf("record %s field %s: %w", r.Key, k, err)
		}
		out[k] = val
	}
	return out, nil
}
