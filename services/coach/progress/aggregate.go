// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package progress implements the cross-turn state aggregator and the
// loop detector. Both are pure functions over the ordered reflection
// history: no wall clock, no randomness, no hidden state. Re-running
// either on identical input yields identical output.
package progress

import (
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/Zee159/coachflux/services/coach/datatypes"
)

// Aggregate folds every reflection belonging to the given step, in
// turn order, into a single captured-field map.
//
// # Description
//
// Merge rules, per field:
//
//   - arrays: set union under deep equality (later turns add, never
//     duplicate or erase)
//   - strings: overwritten only by the most recent non-empty value
//   - numbers and booleans: overwritten by the most recent value
//   - everything else (nested objects): first write wins
//
// The invariant is monotonic non-erasure: once a field holds a
// meaningful value, a later turn in the same step cannot erase it.
//
// History order is taken as creation order; callers read reflections
// from the store already ordered.
func Aggregate(history []datatypes.Reflection, step string) datatypes.Payload {
	captured := datatypes.Payload{}
	for i := range history {
		if history[i].Step != step || history[i].Payload == nil {
			continue
		}
		for field, incoming := range history[i].Payload {
			captured[field] = mergeField(captured[field], incoming)
		}
	}
	return captured
}

// MergeTurn folds one more payload into already-aggregated state,
// applying the same per-field merge rules as Aggregate. Used to
// evaluate a candidate turn payload before it is persisted.
func MergeTurn(captured datatypes.Payload, payload datatypes.Payload) datatypes.Payload {
	for field, incoming := range payload {
		captured[field] = mergeField(captured[field], incoming)
	}
	return captured
}

// mergeField applies the per-type merge rule for a single field.
func mergeField(existing, incoming any) any {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		return incoming
	}

	switch current := existing.(type) {
	case []any:
		next, ok := incoming.([]any)
		if !ok {
			// Type drift across turns; keep the established array.
			return current
		}
		return unionArrays(current, next)
	case string:
		next, ok := incoming.(string)
		if ok && strings.TrimSpace(next) != "" {
			return next
		}
		return current
	case bool:
		if next, ok := incoming.(bool); ok {
			return next
		}
		return current
	case float64, float32, int, int32, int64:
		if isNumber(incoming) {
			return incoming
		}
		return current
	default:
		// Objects and anything else: first write wins.
		return existing
	}
}

// unionArrays appends elements of next that are not already present in
// current, comparing by deep equality. Order is stable: established
// elements first, new elements in arrival order.
func unionArrays(current, next []any) []any {
	merged := make([]any, len(current), len(current)+len(next))
	copy(merged, current)
	for _, candidate := range next {
		seen := false
		for _, existing := range merged {
			if reflect.DeepEqual(existing, candidate) {
				seen = true
				break
			}
		}
		if !seen {
			merged = append(merged, candidate)
		}
	}
	return merged
}

// isNumber reports whether v is any numeric type a JSON decode or a
// caller-constructed payload can produce.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return true
	default:
		return false
	}
}

// IsCaptured reports whether a field value counts as meaningfully
// captured: a non-empty string, a non-empty array, any number
// (including zero), or any boolean (including false).
func IsCaptured(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(value) != ""
	case []any:
		return len(value) > 0
	case bool:
		return true
	default:
		if isNumber(v) {
			return true
		}
		// Nested objects count once they hold anything.
		if m, ok := v.(map[string]any); ok {
			return len(m) > 0
		}
		return false
	}
}

// Completion computes the captured/missing split and the completion
// percentage for a step's required field list.
//
// Percentage is round(100 * captured-required / required), or 0 when
// the step has no required fields. Field lists are sorted for
// deterministic output.
func Completion(captured datatypes.Payload, required []string) (capturedFields, missingFields []string, percent int) {
	capturedFields = make([]string, 0, len(required))
	missingFields = make([]string, 0)
	for _, field := range required {
		if IsCaptured(captured[field]) {
			capturedFields = append(capturedFields, field)
		} else {
			missingFields = append(missingFields, field)
		}
	}
	sort.Strings(capturedFields)
	sort.Strings(missingFields)
	if len(required) == 0 {
		return capturedFields, missingFields, 0
	}
	percent = int(math.Round(100 * float64(len(capturedFields)) / float64(len(required))))
	return capturedFields, missingFields, percent
}

// NumberAt reads a numeric field from an aggregated payload, coercing
// the numeric types a JSON decode can produce. Used by frameworks that
// branch on a value captured in an earlier step.
func NumberAt(captured datatypes.Payload, field string) (float64, bool) {
	switch value := captured[field].(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int32:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}
