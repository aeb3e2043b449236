// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package progress

import (
	"testing"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(step string, payload datatypes.Payload) datatypes.Reflection {
	return datatypes.Reflection{Step: step, Payload: payload}
}

func TestAggregateMergeRules(t *testing.T) {
	tests := []struct {
		name    string
		history []datatypes.Reflection
		field   string
		want    any
	}{
		{
			name: "string overwritten by most recent non-empty",
			history: []datatypes.Reflection{
				turn("goal", datatypes.Payload{"goal_statement": "be better"}),
				turn("goal", datatypes.Payload{"goal_statement": "delegate the Q3 launch"}),
			},
			field: "goal_statement",
			want:  "delegate the Q3 launch",
		},
		{
			name: "empty string does not erase",
			history: []datatypes.Reflection{
				turn("goal", datatypes.Payload{"goal_statement": "delegate the Q3 launch"}),
				turn("goal", datatypes.Payload{"goal_statement": ""}),
			},
			field: "goal_statement",
			want:  "delegate the Q3 launch",
		},
		{
			name: "arrays union under deep equality",
			history: []datatypes.Reflection{
				turn("options", datatypes.Payload{"options": []any{map[string]any{"a": 1.0}}}),
				turn("options", datatypes.Payload{"options": []any{map[string]any{"a": 1.0}, map[string]any{"a": 2.0}}}),
			},
			field: "options",
			want:  []any{map[string]any{"a": 1.0}, map[string]any{"a": 2.0}},
		},
		{
			name: "number overwritten by most recent value including zero",
			history: []datatypes.Reflection{
				turn("goal", datatypes.Payload{"confidence": 4.0}),
				turn("goal", datatypes.Payload{"confidence": 0.0}),
			},
			field: "confidence",
			want:  0.0,
		},
		{
			name: "object first write wins",
			history: []datatypes.Reflection{
				turn("goal", datatypes.Payload{"meta": map[string]any{"source": "user"}}),
				turn("goal", datatypes.Payload{"meta": map[string]any{"source": "model"}}),
			},
			field: "meta",
			want:  map[string]any{"source": "user"},
		},
		{
			name: "other steps are ignored",
			history: []datatypes.Reflection{
				turn("reality", datatypes.Payload{"goal_statement": "wrong step"}),
				turn("goal", datatypes.Payload{"goal_statement": "right step"}),
			},
			field: "goal_statement",
			want:  "right step",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			captured := Aggregate(tc.history, tc.history[len(tc.history)-1].Step)
			assert.Equal(t, tc.want, captured[tc.field])
		})
	}
}

func TestAggregateIdempotent(t *testing.T) {
	history := []datatypes.Reflection{
		turn("goal", datatypes.Payload{"goal_statement": "x", "obstacles": []any{"time"}}),
		turn("goal", datatypes.Payload{"obstacles": []any{"time", "budget"}, "confidence": 5.0}),
	}
	first := Aggregate(history, "goal")
	second := Aggregate(history, "goal")
	assert.Equal(t, first, second)
}

func TestAggregateMonotonicNonErasure(t *testing.T) {
	history := []datatypes.Reflection{
		turn("goal", datatypes.Payload{"goal_statement": "delegate", "confidence": 6.0}),
	}
	captured := Aggregate(history, "goal")
	require.True(t, IsCaptured(captured["goal_statement"]))

	// Later turns omitting the field must not erase it.
	history = append(history,
		turn("goal", datatypes.Payload{"obstacles": []any{"time"}}),
		turn("goal", datatypes.Payload{}),
	)
	captured = Aggregate(history, "goal")
	assert.True(t, IsCaptured(captured["goal_statement"]))
	assert.True(t, IsCaptured(captured["confidence"]))
}

func TestIsCaptured(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"whitespace string", "  ", false},
		{"non-empty string", "x", true},
		{"empty array", []any{}, false},
		{"non-empty array", []any{"a"}, true},
		{"zero number", 0.0, true},
		{"integer", 3, true},
		{"false boolean", false, true},
		{"true boolean", true, true},
		{"empty object", map[string]any{}, false},
		{"non-empty object", map[string]any{"k": "v"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsCaptured(tc.value))
		})
	}
}

func TestCompletion(t *testing.T) {
	captured := datatypes.Payload{
		"goal_statement": "delegate",
		"confidence":     7.0,
		"empty":          "",
	}

	capturedFields, missingFields, percent := Completion(captured, []string{"goal_statement", "confidence", "timeframe"})
	assert.Equal(t, []string{"confidence", "goal_statement"}, capturedFields)
	assert.Equal(t, []string{"timeframe"}, missingFields)
	assert.Equal(t, 67, percent) // round(100*2/3)

	_, _, zero := Completion(captured, nil)
	assert.Equal(t, 0, zero)
}

func TestNumberAt(t *testing.T) {
	captured := datatypes.Payload{"confidence": 8.0, "count": 3, "name": "x"}

	v, ok := NumberAt(captured, "confidence")
	require.True(t, ok)
	assert.Equal(t, 8.0, v)

	v, ok = NumberAt(captured, "count")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = NumberAt(captured, "name")
	assert.False(t, ok)

	_, ok = NumberAt(captured, "missing")
	assert.False(t, ok)
}
