// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package progression turns a positive step-completion result into an
// ordered list of side-effect commands. The decision here is pure; the
// host executes the commands against its store, in order, and is
// responsible for serializing turns per session.
package progression

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/Zee159/coachflux/services/coach/frameworks"
	"github.com/Zee159/coachflux/services/coach/progress"
)

// CommandKind identifies one side effect the host must perform.
type CommandKind string

const (
	// AppendCoachTurn writes a coach-authored reflection carrying Text
	// under Step.
	AppendCoachTurn CommandKind = "append_coach_turn"
	// SetStep moves the session's step pointer to Step.
	SetStep CommandKind = "set_step"
	// CloseSession closes the session. Terminal, one-way.
	CloseSession CommandKind = "close_session"
)

// Command is one ordered side effect.
type Command struct {
	Kind CommandKind
	Step string
	Text string
}

// Decision is the outcome of a progression check.
type Decision struct {
	Advanced bool
	Closed   bool
	NextStep string
	Commands []Command
}

// confidence field names looked up, in order, when an opener carries a
// confidence placeholder.
var confidenceFields = []string{"confidence", "current_confidence", "clarity_rating"}

var curlyPlaceholder = regexp.MustCompile(`\{(\w+)\}`)

// Decide maps a completion result onto the commands that realize it.
//
// On a positive result at the framework's terminal step the session
// closes instead of advancing. Otherwise the pointer moves one step
// forward in the framework's fixed order, emitting the outgoing step's
// transition text and the incoming step's opener text as coach-authored
// turns. Placeholders in opener text are substituted from earlier
// steps' aggregated state. A step with no mapped text emits no turn;
// that is expected, not an error.
func Decide(fw frameworks.Framework, currentStep string,
	result datatypes.StepCompletionResult, history []datatypes.Reflection) Decision {

	if !result.ShouldAdvance {
		return Decision{}
	}
	if currentStep == fw.TerminalStep() {
		return Decision{
			Closed:   true,
			Commands: []Command{{Kind: CloseSession}},
		}
	}

	next := frameworks.NextStep(fw, currentStep)
	if next == "" {
		// Steps() always ends at the terminal step, so a missing
		// successor means the step name was not part of the framework.
		return Decision{}
	}

	decision := Decision{Advanced: true, NextStep: next}
	text := fw.StepText()

	if transition := text.Transitions[currentStep]; transition != "" {
		decision.Commands = append(decision.Commands, Command{
			Kind: AppendCoachTurn,
			Step: currentStep,
			Text: transition,
		})
	}
	decision.Commands = append(decision.Commands, Command{Kind: SetStep, Step: next})
	if opener := text.Openers[next]; opener != "" {
		decision.Commands = append(decision.Commands, Command{
			Kind: AppendCoachTurn,
			Step: next,
			Text: substitutePlaceholders(opener, fw, next, history),
		})
	}
	return decision
}

// substitutePlaceholders fills opener placeholders from earlier steps'
// aggregated state. The literal token "[X]" stands for a previously
// captured confidence value; "{name}" looks up the named field. A
// placeholder with no captured value is left in place.
func substitutePlaceholders(opener string, fw frameworks.Framework, upTo string,
	history []datatypes.Reflection) string {

	earlier := earlierSteps(fw, upTo)

	if strings.Contains(opener, "[X]") {
		if n, ok := lookupNumber(earlier, history, confidenceFields...); ok {
			opener = strings.ReplaceAll(opener, "[X]", formatNumber(n))
		}
	}
	return curlyPlaceholder.ReplaceAllStringFunc(opener, func(match string) string {
		field := match[1 : len(match)-1]
		names := []string{field}
		if field == "confidence" {
			names = confidenceFields
		}
		if n, ok := lookupNumber(earlier, history, names...); ok {
			return formatNumber(n)
		}
		if s, ok := lookupString(earlier, history, field); ok {
			return s
		}
		return match
	})
}

// earlierSteps lists the framework's steps strictly before upTo, most
// recent first.
func earlierSteps(fw frameworks.Framework, upTo string) []string {
	steps := fw.Steps()
	var earlier []string
	for _, step := range steps {
		if step == upTo {
			break
		}
		earlier = append([]string{step}, earlier...)
	}
	return earlier
}

func lookupNumber(steps []string, history []datatypes.Reflection, fields ...string) (float64, bool) {
	for _, step := range steps {
		state := progress.Aggregate(history, step)
		for _, field := range fields {
			if n, ok := progress.NumberAt(state, field); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func lookupString(steps []string, history []datatypes.Reflection, field string) (string, bool) {
	for _, step := range steps {
		state := progress.Aggregate(history, step)
		if s, ok := state[field].(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
