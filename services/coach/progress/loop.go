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
	"strings"

	"github.com/Zee159/coachflux/services/coach/datatypes"
)

// Loop detection constants. These are empirically tuned values carried
// over from production behavior; do not re-derive them.
const (
	// loopWindow is how many recent coach-authored turns are examined.
	loopWindow = 4

	// loopMinQualifying is the minimum number of consecutive
	// question-like coach turns required to call the conversation stuck.
	loopMinQualifying = 3
)

// questionTokens are the substrings that mark a coach turn as
// question-like.
var questionTokens = []string{"what", "why", "how", "?"}

// DetectLoop reports whether the coach appears stuck asking repetitive
// questions within the current step.
//
// # Description
//
// The detector takes the last loopWindow coach-authored turns for the
// step (turns carrying non-empty coach text and no user input) and
// returns true only when at least loopMinQualifying such turns exist
// and every one of them contains a question-like token. Requiring
// every examined turn to qualify keeps the heuristic conservative: a
// single declarative coach turn resets the signal.
func DetectLoop(history []datatypes.Reflection, step string) bool {
	var recent []string
	for i := len(history) - 1; i >= 0 && len(recent) < loopWindow; i-- {
		if history[i].Step != step {
			continue
		}
		if !history[i].CoachAuthored() {
			continue
		}
		recent = append(recent, strings.ToLower(history[i].CoachText()))
	}

	if len(recent) < loopMinQualifying {
		return false
	}
	for _, text := range recent {
		if !containsQuestionToken(text) {
			return false
		}
	}
	return true
}

func containsQuestionToken(text string) bool {
	for _, token := range questionTokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}
