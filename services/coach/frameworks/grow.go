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
	"strings"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/Zee159/coachflux/services/coach/progress"
)

// GROW options-step thresholds. The default bar is three options with
// two explored (non-empty pros and cons). The skip ladder relaxes in
// two rungs: one skip keeps three options but needs only one explored,
// two skips drop to two options with none explored. A detected loop
// accepts two options with one explored regardless of skips.
// Production-tuned constants.
const (
	growOptionsDefault       = 3
	growExploredDefault      = 2
	growOptionsSkipOne       = 3
	growExploredSkipOne      = 1
	growOptionsRelaxed       = 2
	growExploredRelaxed      = 0
	growOptionsLoopOverride  = 2
	growExploredLoopOverride = 1
)

// Grow implements the GROW framework (intro, goal, reality, options,
// will, review).
type Grow struct {
	base
}

func newGrow() *Grow {
	g := &Grow{base{
		name:     "grow",
		steps:    []string{"intro", "goal", "reality", "options", "will", "review"},
		terminal: "review",
	}}
	g.rules = map[string]stepRule{
		"intro": {
			consentField: "consent",
		},
		"goal": {
			required:      []string{"goal_statement", "success_criteria", "importance", "timeframe", "confidence"},
			critical:      []string{"goal_statement"},
			relaxedCounts: []int{5, 4, 3},
			loopCount:     3,
		},
		"reality": {
			required:      []string{"current_situation", "obstacles", "resources", "attempted_solutions"},
			relaxedCounts: []int{4, 3, 2},
			loopCount:     2,
		},
		"options": {
			required:  []string{"options"},
			loopCount: -1,
			custom:    growOptionsRule,
		},
		"will": {
			required:      []string{"chosen_option", "action_steps", "commitment_level", "support_needed"},
			critical:      []string{"chosen_option"},
			relaxedCounts: []int{4, 3, 2},
			loopCount:     2,
		},
		"review": {
			required: []string{"key_takeaway", "final_confidence"},
			terminal: true,
		},
	}
	g.text = StepText{
		Transitions: map[string]string{
			"intro":   "Great, let's get started.",
			"goal":    "That gives us a clear goal to work towards.",
			"reality": "Thanks - that's a solid picture of where things stand today.",
			"options": "You've put some real choices on the table.",
			"will":    "You've turned a goal into a commitment. Nice work.",
		},
		Openers: map[string]string{
			"goal":    "What would you like to focus on in this session, and what would a good outcome look like?",
			"reality": "Let's look at where things are right now. What's actually happening at the moment?",
			"options": "What are some different ways you could approach this? Let's get at least three on the table before judging any of them.",
			"will":    "Earlier you rated your confidence at [X]. Which of these options are you going to commit to?",
			"review":  "Before we wrap up: what's the single most useful thing you're taking away from this session?",
		},
	}
	return g
}

// growOptionsRule implements the options-step completion policy: count
// the options in the aggregated array and how many of them have been
// explored (non-empty pros and cons), then compare against the bar for
// the current skip/loop state.
func growOptionsRule(captured datatypes.Payload, _ func(string) datatypes.Payload,
	skipCount int, loopDetected bool) datatypes.StepCompletionResult {

	options, _ := captured["options"].([]any)
	explored := 0
	for _, raw := range options {
		option, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if nonEmptyString(option["pros"]) && nonEmptyString(option["cons"]) {
			explored++
		}
	}

	neededOptions, neededExplored := growOptionsDefault, growExploredDefault
	switch {
	case loopDetected:
		neededOptions, neededExplored = growOptionsLoopOverride, growExploredLoopOverride
	case skipCount >= 2:
		neededOptions, neededExplored = growOptionsRelaxed, growExploredRelaxed
	case skipCount == 1:
		neededOptions, neededExplored = growOptionsSkipOne, growExploredSkipOne
	}

	result := datatypes.StepCompletionResult{
		CapturedFields: []string{},
		MissingFields:  []string{},
	}
	if len(options) > 0 {
		result.CapturedFields = []string{"options"}
	} else {
		result.MissingFields = []string{"options"}
	}
	result.CompletionPercent = optionsPercent(len(options), explored, neededOptions, neededExplored)

	if len(options) < neededOptions {
		result.Reason = fmt.Sprintf("have %d options, need %d", len(options), neededOptions)
		return result
	}
	if explored < neededExplored {
		result.Reason = fmt.Sprintf("%d options explored with pros and cons, need %d", explored, neededExplored)
		return result
	}
	result.ShouldAdvance = true
	return result
}

// optionsPercent folds the two option-step counters into the single
// completion percentage the result shape expects.
func optionsPercent(have, explored, neededOptions, neededExplored int) int {
	total := neededOptions + neededExplored
	if total == 0 {
		return 100
	}
	done := min(have, neededOptions) + min(explored, neededExplored)
	return int(100 * float64(done) / float64(total))
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// GenerateContext summarizes captured goal state for the prompt
// builder. Only the goal and will steps benefit from extra context.
func (g *Grow) GenerateContext(step string, captured datatypes.Payload) (string, bool) {
	switch step {
	case "reality", "options", "will":
		goal, _ := captured["goal_statement"].(string)
		if strings.TrimSpace(goal) == "" {
			return "", false
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "The client's stated goal is: %s.", goal)
		if confidence, ok := progress.NumberAt(captured, "confidence"); ok {
			fmt.Fprintf(&sb, " Their self-rated confidence is %.0f/10.", confidence)
		}
		return sb.String(), true
	default:
		return "", false
	}
}
