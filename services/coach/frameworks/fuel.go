// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package frameworks

import (
	"fmt"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/Zee159/coachflux/services/coach/progress"
)

// fuelHighClarity is the understand-step clarity rating at or above
// which the planning step drops its scaffolding fields.
const fuelHighClarity = 8

// Fuel implements the FUEL framework (frame, understand, explore
// options, lay out plan, wrap).
type Fuel struct {
	base
}

func newFuel() *Fuel {
	f := &Fuel{base{
		name:     "fuel",
		steps:    []string{"frame", "understand", "explore_options", "lay_out_plan", "wrap"},
		terminal: "wrap",
	}}
	f.rules = map[string]stepRule{
		"frame": {
			consentField: "frame_agreed",
		},
		"understand": {
			required:      []string{"current_reality", "impact", "underlying_factors", "clarity_rating"},
			relaxedCounts: []int{4, 3, 2},
			loopCount:     2,
		},
		"explore_options": {
			required:      []string{"possible_paths", "preferred_direction", "tradeoffs"},
			critical:      []string{"possible_paths"},
			relaxedCounts: []int{3, 2, 1},
			loopCount:     1,
		},
		"lay_out_plan": {
			required:  []string{"chosen_path", "milestones", "success_measures", "obstacle_plan"},
			loopCount: -1,
			custom:    fuelPlanRule,
		},
		"wrap": {
			required: []string{"energy_check"},
			terminal: true,
		},
	}
	f.text = StepText{
		Transitions: map[string]string{
			"frame":           "The frame for our conversation is set.",
			"understand":      "That's an honest read of where things are.",
			"explore_options": "You've opened up real choices instead of a single track.",
			"lay_out_plan":    "The plan is laid out - it's yours to run now.",
		},
		Openers: map[string]string{
			"understand":      "Walk me through the current reality. What's the impact of it staying as it is, and how clear does the situation feel on a 1-10 scale?",
			"explore_options": "What paths could you take from here? Don't filter yet.",
			"lay_out_plan":    "Which path are you choosing, and what are the milestones that will tell you it's working?",
			"wrap":            "How's your energy about this compared to when we started?",
		},
	}
	return f
}

// fuelPlanRule adapts the planning field set to the clarity rating
// captured in the understand step: a client who already sees the
// situation clearly plans with fewer scaffolding fields. The rating is
// read from the understand step's aggregated state.
func fuelPlanRule(captured datatypes.Payload, earlier func(string) datatypes.Payload,
	skipCount int, loopDetected bool) datatypes.StepCompletionResult {

	required := []string{"chosen_path", "milestones", "success_measures", "obstacle_plan"}
	if clarity, ok := progress.NumberAt(earlier("understand"), "clarity_rating"); ok &&
		clarity >= fuelHighClarity {
		required = []string{"chosen_path", "success_measures"}
	}

	rule := stepRule{
		required:      required,
		critical:      []string{"chosen_path"},
		relaxedCounts: relaxationLadder(len(required)),
		loopCount:     1,
	}

	capturedFields, missingFields, percent := progress.Completion(captured, required)
	result := datatypes.StepCompletionResult{
		CapturedFields:    capturedFields,
		MissingFields:     missingFields,
		CompletionPercent: percent,
	}

	needed := rule.neededCount(skipCount, loopDetected)
	if len(capturedFields) < needed {
		result.Reason = fmt.Sprintf("captured %d of %d required fields, need %d",
			len(capturedFields), len(required), needed)
		return result
	}
	if missing := missingCritical(rule.critical, captured); len(missing) > 0 {
		result.Reason = fmt.Sprintf("missing critical fields: %v", missing)
		return result
	}
	result.ShouldAdvance = true
	return result
}
