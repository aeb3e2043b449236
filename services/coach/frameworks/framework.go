// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package frameworks implements the per-framework step-completion
// policies: GROW, COMPASS, OSKAR, CLEAR, FUEL, and WOOP.
//
// Each framework is a table of pure per-step rules evaluated against
// the aggregated captured state. The shared machinery lives in this
// file; each framework file only declares its step order, required
// fields, relaxation tables, and any custom rules. Selection happens
// through a single dispatch lookup (New), not inheritance.
//
// # Progressive Relaxation
//
// The number of captured required fields needed to advance decreases
// as the user's skip count grows, and a detected question loop
// substitutes a fixed, usually more lenient, requirement. Loop and
// skip relaxation are alternative overrides, never cumulative. The
// concrete tables (3/4, 5/8, 7/8, percentage ladders) are empirically
// tuned production constants; do not re-derive them.
//
// # Gates
//
// Critical-field gates refuse advancement when a named field is
// missing even if the relaxed count is met, so a payload cannot game
// the percentage by filling unimportant fields. Consent-gated steps
// advance only on an explicit boolean and ignore relaxation entirely.
// Terminal steps never auto-advance; they are closed by an explicit
// external trigger.
package frameworks

import (
	"fmt"
	"math"
	"sort"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/Zee159/coachflux/services/coach/progress"
)

// =============================================================================
// Contract
// =============================================================================

// Framework is the policy contract, one implementation per coaching
// framework. Implementations are stateless and safe for concurrent use.
type Framework interface {
	// Name returns the framework identifier ("grow", "compass", ...).
	Name() string

	// Steps returns the framework's fixed linear step order.
	Steps() []string

	// TerminalStep returns the step whose closing action ends the
	// session instead of advancing.
	TerminalStep() string

	// RequiredFields returns the declared required fields for a step
	// (nil for unknown steps and consent/terminal steps without one).
	RequiredFields(step string) []string

	// CheckStepCompletion evaluates whether enough structured state
	// has been captured to advance past the step. payload is the
	// candidate turn payload not yet persisted; history is the
	// session's ordered reflection record.
	CheckStepCompletion(step string, payload datatypes.Payload, history []datatypes.Reflection,
		skipCount int, loopDetected bool) datatypes.StepCompletionResult

	// StepText returns the static transition and opener text consumed
	// by the progression controller.
	StepText() StepText
}

// ContextGenerator is an opt-in capability: frameworks that can build
// extra prompt context from captured state implement it. Callers query
// it with a type assertion rather than assuming every framework has it.
type ContextGenerator interface {
	// GenerateContext returns prompt context for the step, or false
	// when the framework has nothing to add for that step.
	GenerateContext(step string, captured datatypes.Payload) (string, bool)
}

// StepText holds static conversation text keyed by step name.
// Transitions are keyed by the outgoing step, openers by the incoming
// step. A missing entry means no turn is emitted, which is expected.
type StepText struct {
	Transitions map[string]string
	Openers     map[string]string
}

// =============================================================================
// Dispatch
// =============================================================================

// Config carries framework construction options threaded explicitly
// through calls; there are no mutable singletons.
type Config struct {
	// LegacyCompass selects the pre-revision COMPASS step order and
	// field sets for orgs that have not migrated.
	LegacyCompass bool
}

// Names lists the supported framework identifiers.
func Names() []string {
	return []string{"grow", "compass", "oskar", "clear", "fuel", "woop"}
}

// New returns the policy implementation for a framework identifier.
func New(name string, cfg Config) (Framework, error) {
	switch name {
	case "grow":
		return newGrow(), nil
	case "compass":
		return newCompass(cfg.LegacyCompass), nil
	case "oskar":
		return newOskar(), nil
	case "clear":
		return newClear(), nil
	case "fuel":
		return newFuel(), nil
	case "woop":
		return newWoop(), nil
	default:
		return nil, fmt.Errorf("unknown coaching framework %q", name)
	}
}

// =============================================================================
// Shared Rule Machinery
// =============================================================================

// customRule is a step-specific completion function for steps whose
// policy is not a plain field count (the GROW options rule, the
// confidence-adaptive sets). earlier exposes the aggregated state of
// any earlier step.
type customRule func(captured datatypes.Payload, earlier func(step string) datatypes.Payload,
	skipCount int, loopDetected bool) datatypes.StepCompletionResult

// stepRule declares one step's completion policy.
type stepRule struct {
	// required lists the fields the step tries to capture.
	required []string

	// critical fields must be present regardless of relaxation.
	critical []string

	// relaxedCounts is the skip-count table of needed field counts:
	// index min(skipCount, len-1). Empty means "all required fields".
	relaxedCounts []int

	// relaxedPercents is the percentage ladder alternative to
	// relaxedCounts (needed = ceil(pct/100 * len(required))).
	relaxedPercents []int

	// loopCount is the fixed needed count substituted when a question
	// loop is detected; -1 disables the loop override.
	loopCount int

	// consentField, when set, makes this a consent-gated step: advance
	// only on an explicit true boolean, skip/loop ignored.
	consentField string

	// terminal steps never auto-advance.
	terminal bool

	// custom, when set, fully replaces count evaluation.
	custom customRule
}

// base provides the shared Framework behavior; each framework embeds
// it with its own rule table.
type base struct {
	name     string
	steps    []string
	rules    map[string]stepRule
	text     StepText
	terminal string
}

func (b *base) Name() string         { return b.name }
func (b *base) Steps() []string      { return b.steps }
func (b *base) TerminalStep() string { return b.terminal }
func (b *base) StepText() StepText   { return b.text }

func (b *base) RequiredFields(step string) []string {
	rule, ok := b.rules[step]
	if !ok {
		return nil
	}
	return rule.required
}

// CheckStepCompletion implements the shared evaluation order: unknown
// step -> consent gate -> terminal -> custom rule -> relaxed count +
// critical gate.
func (b *base) CheckStepCompletion(step string, payload datatypes.Payload,
	history []datatypes.Reflection, skipCount int, loopDetected bool) datatypes.StepCompletionResult {

	rule, ok := b.rules[step]
	if !ok {
		return datatypes.StepCompletionResult{
			ShouldAdvance:  false,
			Reason:         fmt.Sprintf("unknown step %q for framework %s", step, b.name),
			CapturedFields: []string{},
			MissingFields:  []string{},
		}
	}

	captured := progress.Aggregate(history, step)
	captured = progress.MergeTurn(captured, payload)

	if rule.consentField != "" {
		return checkConsent(rule, captured)
	}

	capturedFields, missingFields, percent := progress.Completion(captured, rule.required)

	if rule.terminal {
		return datatypes.StepCompletionResult{
			ShouldAdvance:     false,
			Reason:            "terminal step: session closes by explicit action",
			CapturedFields:    capturedFields,
			MissingFields:     missingFields,
			CompletionPercent: percent,
		}
	}

	if rule.custom != nil {
		earlier := func(s string) datatypes.Payload { return progress.Aggregate(history, s) }
		return rule.custom(captured, earlier, skipCount, loopDetected)
	}

	needed := rule.neededCount(skipCount, loopDetected)
	result := datatypes.StepCompletionResult{
		CapturedFields:    capturedFields,
		MissingFields:     missingFields,
		CompletionPercent: percent,
	}

	if len(capturedFields) < needed {
		result.Reason = fmt.Sprintf("captured %d of %d required fields, need %d",
			len(capturedFields), len(rule.required), needed)
		return result
	}

	if missing := missingCritical(rule.critical, captured); len(missing) > 0 {
		result.Reason = fmt.Sprintf("missing critical fields: %v", missing)
		return result
	}

	result.ShouldAdvance = true
	return result
}

// neededCount resolves the field count required to advance for the
// current skip count and loop state.
func (r stepRule) neededCount(skipCount int, loopDetected bool) int {
	if loopDetected && r.loopCount >= 0 {
		return r.loopCount
	}
	if len(r.relaxedCounts) > 0 {
		idx := skipCount
		if idx >= len(r.relaxedCounts) {
			idx = len(r.relaxedCounts) - 1
		}
		return r.relaxedCounts[idx]
	}
	if len(r.relaxedPercents) > 0 {
		idx := skipCount
		if idx >= len(r.relaxedPercents) {
			idx = len(r.relaxedPercents) - 1
		}
		pct := r.relaxedPercents[idx]
		return int(math.Ceil(float64(pct) / 100 * float64(len(r.required))))
	}
	return len(r.required)
}

// checkConsent evaluates a consent-gated step: an explicit boolean
// true advances, everything else holds. Relaxation never applies.
func checkConsent(rule stepRule, captured datatypes.Payload) datatypes.StepCompletionResult {
	consent, _ := captured[rule.consentField].(bool)
	if consent {
		return datatypes.StepCompletionResult{
			ShouldAdvance:     true,
			CapturedFields:    []string{rule.consentField},
			MissingFields:     []string{},
			CompletionPercent: 100,
		}
	}
	return datatypes.StepCompletionResult{
		ShouldAdvance:     false,
		Reason:            fmt.Sprintf("explicit consent (%s) not yet given", rule.consentField),
		CapturedFields:    []string{},
		MissingFields:     []string{rule.consentField},
		CompletionPercent: 0,
	}
}

// missingCritical returns the critical fields not meaningfully
// captured, sorted for deterministic reasons.
func missingCritical(critical []string, captured datatypes.Payload) []string {
	var missing []string
	for _, field := range critical {
		if !progress.IsCaptured(captured[field]) {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return missing
}

// NextStep returns the step following current in the framework order,
// or "" when current is last or unknown.
func NextStep(fw Framework, current string) string {
	steps := fw.Steps()
	for i, step := range steps {
		if step == current && i+1 < len(steps) {
			return steps[i+1]
		}
	}
	return ""
}
