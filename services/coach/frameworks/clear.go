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

// Clear implements the CLEAR framework (contract, listen, explore,
// action, review). It shares the percentage relaxation ladder with
// OSKAR.
type Clear struct {
	base
}

func newClear() *Clear {
	c := &Clear{base{
		name:     "clear",
		steps:    []string{"contract", "listen", "explore", "action", "review"},
		terminal: "review",
	}}
	c.rules = map[string]stepRule{
		"contract": {
			consentField: "contract_agreed",
		},
		"listen": {
			required:        []string{"topic_summary", "emotions_present", "key_themes"},
			critical:        []string{"topic_summary"},
			relaxedPercents: oskarPercents,
			loopCount:       1,
		},
		"explore": {
			required:        []string{"new_perspectives", "assumptions_challenged", "insights"},
			relaxedPercents: oskarPercents,
			loopCount:       2,
		},
		"action": {
			required:        []string{"action_plan", "first_step", "review_date"},
			critical:        []string{"first_step"},
			relaxedPercents: oskarPercents,
			loopCount:       2,
		},
		"review": {
			required: []string{"session_value"},
			terminal: true,
		},
	}
	c.text = StepText{
		Transitions: map[string]string{
			"contract": "We have a clear contract for the session.",
			"listen":   "Thank you - I've got a good sense of what's going on for you.",
			"explore":  "Some genuinely new angles came out of that.",
			"action":   "You're leaving with a plan, not just a conversation.",
		},
		Openers: map[string]string{
			"listen":  "Tell me what's been happening. I'm listening for what matters most to you in it.",
			"explore": "Of everything you've described, what assumption would be most useful to challenge?",
			"action":  "What are you actually going to do, and what's the very first step?",
			"review":  "What was most valuable about how we worked on this today?",
		},
	}
	return c
}
