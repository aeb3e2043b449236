// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"strings"
	"time"
)

// CoachReflectionField is the payload field holding the coach-facing
// text shown to the user for a turn.
const CoachReflectionField = "coach_reflection"

// Payload is the structured field map extracted from one turn. Values
// are strings, numbers, booleans, or arrays of primitives/objects, as
// decoded from model JSON output.
type Payload map[string]any

// Reflection is one recorded exchange within a step.
//
// # Description
//
// A reflection belongs to exactly one session and step and is
// append-only: it is never mutated after creation and readers rely on
// creation order. UserInput is empty for coach-authored turns
// (transition and opener text emitted by the progression controller).
type Reflection struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Step      string    `json:"step"`
	UserInput string    `json:"user_input,omitempty"`
	Payload   Payload   `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// CoachText returns the coach_reflection text for this turn, or ""
// when the payload carries none.
func (r *Reflection) CoachText() string {
	if r.Payload == nil {
		return ""
	}
	text, _ := r.Payload[CoachReflectionField].(string)
	return text
}

// CoachAuthored reports whether this turn was emitted by the coach:
// it carries non-empty coach text and no user input was attached.
func (r *Reflection) CoachAuthored() bool {
	return strings.TrimSpace(r.CoachText()) != "" && r.UserInput == ""
}

// StepCompletionResult is the per-turn advance/hold verdict produced by
// a framework policy. It is consumed immediately by the progression
// controller and never persisted.
type StepCompletionResult struct {
	ShouldAdvance bool `json:"should_advance"`

	// Reason is a human-readable explanation, set when the result is
	// diagnostic (unknown step, consent missing, critical field gate).
	Reason string `json:"reason,omitempty"`

	CapturedFields []string `json:"captured_fields"`
	MissingFields  []string `json:"missing_fields"`

	// CompletionPercent is round(100 * captured-required / required),
	// an integer in [0,100]. Zero when the step has no required fields.
	CompletionPercent int `json:"completion_percent"`
}
