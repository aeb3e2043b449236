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
	"testing"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDispatch(t *testing.T) {
	for _, name := range Names() {
		fw, err := New(name, Config{})
		require.NoError(t, err, "framework %s", name)
		assert.Equal(t, name, fw.Name())
		assert.NotEmpty(t, fw.Steps())
		assert.Contains(t, fw.Steps(), fw.TerminalStep())
		// The terminal step is always the last configured step.
		assert.Equal(t, fw.Steps()[len(fw.Steps())-1], fw.TerminalStep())
	}

	_, err := New("socratic", Config{})
	assert.Error(t, err)
}

func TestCompassLegacyToggle(t *testing.T) {
	current, err := New("compass", Config{})
	require.NoError(t, err)
	legacy, err := New("compass", Config{LegacyCompass: true})
	require.NoError(t, err)

	assert.Contains(t, current.Steps(), "practice")
	assert.NotContains(t, legacy.Steps(), "practice")
	assert.Len(t, current.RequiredFields("mapping"), 8)
	assert.Len(t, legacy.RequiredFields("mapping"), 6)
}

func TestUnknownStepIsDiagnosticNotFatal(t *testing.T) {
	fw, err := New("grow", Config{})
	require.NoError(t, err)

	result := fw.CheckStepCompletion("enlightenment", datatypes.Payload{}, nil, 0, false)
	assert.False(t, result.ShouldAdvance)
	assert.Contains(t, result.Reason, "unknown step")
	assert.NotNil(t, result.CapturedFields)
	assert.NotNil(t, result.MissingFields)
}

func TestConsentGateIgnoresRelaxation(t *testing.T) {
	fw, err := New("grow", Config{})
	require.NoError(t, err)

	// Without consent, no amount of skipping or looping advances.
	for _, skip := range []int{0, 1, 5} {
		for _, loop := range []bool{false, true} {
			result := fw.CheckStepCompletion("intro", datatypes.Payload{"small_talk": "hello"}, nil, skip, loop)
			assert.False(t, result.ShouldAdvance, "skip=%d loop=%v", skip, loop)
			assert.Contains(t, result.MissingFields, "consent")
		}
	}

	granted := fw.CheckStepCompletion("intro", datatypes.Payload{"consent": true}, nil, 0, false)
	assert.True(t, granted.ShouldAdvance)
	assert.Equal(t, 100, granted.CompletionPercent)

	// An explicit false is not consent.
	denied := fw.CheckStepCompletion("intro", datatypes.Payload{"consent": false}, nil, 0, false)
	assert.False(t, denied.ShouldAdvance)
}

func TestTerminalStepNeverAutoAdvances(t *testing.T) {
	for _, name := range Names() {
		fw, err := New(name, Config{})
		require.NoError(t, err)
		terminal := fw.TerminalStep()

		// Saturate every required field and still expect a hold.
		payload := datatypes.Payload{}
		for _, field := range fw.RequiredFields(terminal) {
			payload[field] = "filled"
		}
		result := fw.CheckStepCompletion(terminal, payload, nil, 3, true)
		assert.False(t, result.ShouldAdvance, "framework %s terminal step advanced", name)
	}
}

func TestRelaxationMonotonicity(t *testing.T) {
	// For a fixed payload, advancing at skipCount=0 implies advancing
	// at skipCount=2 for every framework and non-terminal step.
	payloads := []datatypes.Payload{
		{},
		{"goal_statement": "x", "success_criteria": "y"},
		{"topic_summary": "a", "emotions_present": "b", "key_themes": "c"},
		{"wish_statement": "w"},
		{"ideal_outcome": "o", "first_signs": "s", "benefit_to_others": "b"},
	}
	for _, name := range Names() {
		fw, err := New(name, Config{})
		require.NoError(t, err)
		for _, step := range fw.Steps() {
			if step == fw.TerminalStep() {
				continue
			}
			for _, payload := range payloads {
				strict := fw.CheckStepCompletion(step, payload, nil, 0, false)
				relaxed := fw.CheckStepCompletion(step, payload, nil, 2, false)
				if strict.ShouldAdvance {
					assert.True(t, relaxed.ShouldAdvance,
						"%s/%s: advanced at skip=0 but not skip=2", name, step)
				}
			}
		}
	}
}

func TestPercentageLadder(t *testing.T) {
	fw, err := New("oskar", Config{})
	require.NoError(t, err)

	// outcome has 3 required fields; ideal_outcome is critical.
	twoOfThree := datatypes.Payload{"ideal_outcome": "calm launches", "first_signs": "fewer escalations"}

	strict := fw.CheckStepCompletion("outcome", twoOfThree, nil, 0, false)
	assert.False(t, strict.ShouldAdvance) // needs all 3

	skipOne := fw.CheckStepCompletion("outcome", twoOfThree, nil, 1, false)
	assert.False(t, skipOne.ShouldAdvance) // ceil(75% of 3) is still 3

	skipTwo := fw.CheckStepCompletion("outcome", twoOfThree, nil, 2, false)
	assert.True(t, skipTwo.ShouldAdvance) // ceil(66% of 3) = 2

	// The critical field still gates at any relaxation.
	noCritical := datatypes.Payload{"first_signs": "fewer escalations", "benefit_to_others": "team relaxes"}
	gated := fw.CheckStepCompletion("outcome", noCritical, nil, 3, false)
	assert.False(t, gated.ShouldAdvance)
	assert.Contains(t, gated.Reason, "ideal_outcome")
}

func TestLoopOverrideIsAlternative(t *testing.T) {
	fw, err := New("grow", Config{})
	require.NoError(t, err)

	// reality: 4 required, relaxed [4,3,2], loop override 2.
	twoFields := datatypes.Payload{"current_situation": "busy", "obstacles": []any{"time"}}

	noLoop := fw.CheckStepCompletion("reality", twoFields, nil, 0, false)
	assert.False(t, noLoop.ShouldAdvance)

	loop := fw.CheckStepCompletion("reality", twoFields, nil, 0, true)
	assert.True(t, loop.ShouldAdvance)

	// Loop override substitutes, it does not stack with skip count.
	loopAndSkip := fw.CheckStepCompletion("reality", twoFields, nil, 2, true)
	assert.True(t, loopAndSkip.ShouldAdvance)

	oneField := datatypes.Payload{"current_situation": "busy"}
	stillShort := fw.CheckStepCompletion("reality", oneField, nil, 5, true)
	assert.False(t, stillShort.ShouldAdvance)
}

func TestContextGeneratorCapability(t *testing.T) {
	grow, err := New("grow", Config{})
	require.NoError(t, err)
	oskar, err := New("oskar", Config{})
	require.NoError(t, err)

	gen, ok := grow.(ContextGenerator)
	require.True(t, ok, "grow should expose context generation")
	context, ok := gen.GenerateContext("will", datatypes.Payload{"goal_statement": "delegate Q3", "confidence": 6.0})
	require.True(t, ok)
	assert.Contains(t, context, "delegate Q3")
	assert.Contains(t, context, "6/10")

	_, ok = oskar.(ContextGenerator)
	assert.False(t, ok, "oskar should not expose context generation")
}
