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

// compassHighConfidence is the clarity-step confidence at or above
// which the practice step switches to its short field set.
const compassHighConfidence = 8

// Compass implements the COMPASS framework. Two revisions exist: the
// current one (welcome, clarity, obstacles, mapping, practice, anchor,
// success) and the legacy one without the practice step and with a
// shallower mapping table. The revision is an explicit construction
// option threaded through New, not a shared toggle.
type Compass struct {
	base
	legacy bool
}

func newCompass(legacy bool) *Compass {
	c := &Compass{legacy: legacy}
	c.name = "compass"
	c.terminal = "success"

	mappingFields := []string{
		"priorities", "stakeholders", "resources_available", "constraints",
		"quick_wins", "long_term_moves", "risks", "support_network",
	}

	c.rules = map[string]stepRule{
		"welcome": {
			consentField: "coaching_agreement",
		},
		"clarity": {
			required:      []string{"focus_area", "desired_outcome", "current_confidence", "why_now"},
			critical:      []string{"desired_outcome"},
			relaxedCounts: []int{4, 3, 2},
			loopCount:     2,
		},
		"obstacles": {
			required:      []string{"main_obstacles", "obstacle_impact", "past_attempts"},
			relaxedCounts: []int{3, 2, 1},
			loopCount:     2,
		},
		"mapping": {
			required: mappingFields,
			// The 7/8 -> 5/8 -> 3/8 production table.
			relaxedCounts: []int{7, 5, 3},
			loopCount:     4,
		},
		"anchor": {
			required:      []string{"commitment_statement", "first_action", "accountability_partner"},
			critical:      []string{"first_action"},
			relaxedCounts: []int{3, 2, 1},
			loopCount:     2,
		},
		"success": {
			required: []string{"session_reflection"},
			terminal: true,
		},
	}

	if legacy {
		c.steps = []string{"welcome", "clarity", "obstacles", "mapping", "anchor", "success"}
		// Legacy mapping captured fewer dimensions; its table shifts
		// down with the shorter field list.
		legacyMapping := c.rules["mapping"]
		legacyMapping.required = mappingFields[:6]
		legacyMapping.relaxedCounts = []int{5, 4, 2}
		legacyMapping.loopCount = 3
		c.rules["mapping"] = legacyMapping
	} else {
		c.steps = []string{"welcome", "clarity", "obstacles", "mapping", "practice", "anchor", "success"}
		c.rules["practice"] = stepRule{
			required:  []string{"practice_plan", "skill_focus", "rehearsal_notes", "check_in_date"},
			loopCount: -1,
			custom:    compassPracticeRule,
		}
	}

	c.text = StepText{
		Transitions: map[string]string{
			"welcome":   "Thanks - we're set up and ready to go.",
			"clarity":   "That's a clear picture of what you want from this.",
			"obstacles": "Naming the obstacles is half the work of moving past them.",
			"mapping":   "You now have a map of the terrain, not just a destination.",
			"practice":  "Good - you've got a concrete way to build the muscle.",
			"anchor":    "That commitment is anchored to a real first action.",
		},
		Openers: map[string]string{
			"clarity":   "What do you want to be different by the end of this work, and how confident do you feel about getting there on a 1-10 scale?",
			"obstacles": "What tends to get in the way when you've tried to make progress on this before?",
			"mapping":   "Let's map this out properly: who's involved, what you can draw on, and where the quick wins are.",
			"practice":  "You rated your confidence at [X] earlier. What's one way you could practice this before we next speak?",
			"anchor":    "What exactly will you do first, and who will know you've committed to it?",
			"success":   "Looking back over the session, what's changed in how you see this?",
		},
	}
	return c
}

// compassPracticeRule is the confidence-adaptive practice policy: a
// client who already reported high confidence in the clarity step gets
// the short field set (plan plus check-in), everyone else the full
// rehearsal set. The lookup reads the clarity step's aggregated state,
// never the practice payload.
func compassPracticeRule(captured datatypes.Payload, earlier func(string) datatypes.Payload,
	skipCount int, loopDetected bool) datatypes.StepCompletionResult {

	required := []string{"practice_plan", "skill_focus", "rehearsal_notes", "check_in_date"}
	if confidence, ok := progress.NumberAt(earlier("clarity"), "current_confidence"); ok &&
		confidence >= compassHighConfidence {
		required = []string{"practice_plan", "check_in_date"}
	}

	rule := stepRule{
		required:      required,
		critical:      []string{"practice_plan"},
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

// relaxationLadder builds the default full/minus-one/minus-two count
// table for a field set, never dropping below one field.
func relaxationLadder(n int) []int {
	ladder := []int{n, n - 1, n - 2}
	for i := range ladder {
		if ladder[i] < 1 {
			ladder[i] = 1
		}
	}
	return ladder
}

// GenerateContext feeds the captured outcome and confidence back into
// the prompt for the later COMPASS steps.
func (c *Compass) GenerateContext(step string, captured datatypes.Payload) (string, bool) {
	switch step {
	case "mapping", "practice", "anchor":
		outcome, _ := captured["desired_outcome"].(string)
		if outcome == "" {
			return "", false
		}
		context := fmt.Sprintf("The client's desired outcome is: %s.", outcome)
		if confidence, ok := progress.NumberAt(captured, "current_confidence"); ok {
			context += fmt.Sprintf(" Their stated confidence is %.0f/10.", confidence)
		}
		return context, true
	default:
		return "", false
	}
}
