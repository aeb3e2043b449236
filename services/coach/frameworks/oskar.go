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

// oskarPercents is the percentage relaxation ladder shared by the
// solution-focused frameworks: full bar, then 75, 66, and 50 percent
// of the required fields as skips accumulate.
var oskarPercents = []int{100, 75, 66, 50}

// Oskar implements the OSKAR framework (kickoff, outcome, scaling,
// know-how, affirm+action, review). OSKAR is solution-focused: every
// step leans on what already works rather than on gaps.
type Oskar struct {
	base
}

func newOskar() *Oskar {
	o := &Oskar{base{
		name:     "oskar",
		steps:    []string{"kickoff", "outcome", "scaling", "know_how", "affirm_action", "review"},
		terminal: "review",
	}}
	o.rules = map[string]stepRule{
		"kickoff": {
			consentField: "session_agreement",
		},
		"outcome": {
			required:        []string{"ideal_outcome", "first_signs", "benefit_to_others"},
			critical:        []string{"ideal_outcome"},
			relaxedPercents: oskarPercents,
			loopCount:       1,
		},
		"scaling": {
			required:        []string{"current_position", "reason_not_lower", "one_point_higher"},
			critical:        []string{"current_position"},
			relaxedPercents: oskarPercents,
			loopCount:       2,
		},
		"know_how": {
			required:        []string{"existing_skills", "past_successes", "transferable_strengths"},
			relaxedPercents: oskarPercents,
			loopCount:       1,
		},
		"affirm_action": {
			required:        []string{"affirmation", "small_next_step", "review_date"},
			critical:        []string{"small_next_step"},
			relaxedPercents: oskarPercents,
			loopCount:       2,
		},
		"review": {
			required: []string{"progress_noticed"},
			terminal: true,
		},
	}
	o.text = StepText{
		Transitions: map[string]string{
			"kickoff": "Let's begin.",
			"outcome": "That's a vivid picture of the future you're after.",
			"scaling": "Knowing where you stand on the scale makes the next point concrete.",
			"know_how": "You've got more working for you than you might have given yourself credit for.",
		},
		Openers: map[string]string{
			"outcome":       "Suppose this works out exactly as you'd hope. What does that look like, and who else notices?",
			"scaling":       "On a scale of 0 to 10, where are you today - and what puts you there rather than lower?",
			"know_how":      "What skills and past successes can you draw on here, even from other parts of your life?",
			"affirm_action": "Given everything you've just said, what's the smallest next step you could take this week?",
			"review":        "When we next talk, what progress would you want to report?",
		},
	}
	return o
}
