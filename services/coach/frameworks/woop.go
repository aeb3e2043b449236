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

// Woop implements the WOOP framework (commit, wish, outcome, obstacle,
// plan, review). WOOP steps are short, so the relaxation tables are
// fixed small counts rather than percentages.
type Woop struct {
	base
}

func newWoop() *Woop {
	w := &Woop{base{
		name:     "woop",
		steps:    []string{"commit", "wish", "outcome", "obstacle", "plan", "review"},
		terminal: "review",
	}}
	w.rules = map[string]stepRule{
		"commit": {
			consentField: "ready_to_start",
		},
		"wish": {
			required:      []string{"wish_statement", "wish_importance"},
			critical:      []string{"wish_statement"},
			relaxedCounts: []int{2, 1, 1},
			loopCount:     1,
		},
		"outcome": {
			required:      []string{"best_outcome", "outcome_feeling"},
			relaxedCounts: []int{2, 1, 1},
			loopCount:     1,
		},
		"obstacle": {
			required:      []string{"inner_obstacle", "obstacle_trigger"},
			critical:      []string{"inner_obstacle"},
			relaxedCounts: []int{2, 1, 1},
			loopCount:     1,
		},
		"plan": {
			required:      []string{"if_then_plan", "backup_plan"},
			critical:      []string{"if_then_plan"},
			relaxedCounts: []int{2, 1, 1},
			loopCount:     1,
		},
		"review": {
			required: []string{"commitment_check"},
			terminal: true,
		},
	}
	w.text = StepText{
		Transitions: map[string]string{
			"commit":   "Let's do this properly.",
			"wish":     "That's a wish worth working for.",
			"outcome":  "Holding that outcome in mind makes the obstacle easier to face.",
			"obstacle": "Naming the inner obstacle is the heart of this method.",
			"plan":     "Your if-then plan is set.",
		},
		Openers: map[string]string{
			"wish":     "What's the wish you want to work on - something challenging but feasible?",
			"outcome":  "If the wish came true, what's the very best outcome? How would it feel?",
			"obstacle": "What is it within you that most gets in the way? Not circumstances - the inner obstacle.",
			"plan":     "Let's make it automatic: when the obstacle shows up, then what will you do?",
			"review":   "Say your if-then plan back to me one more time.",
		},
	}
	return w
}
