// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInputs() Inputs {
	return Inputs{
		InitialConfidence:    5,
		FinalConfidence:      7,
		InitialActionClarity: 5,
		FinalActionClarity:   7,
		InitialMindset:       MindsetNeutral,
		FinalMindset:         MindsetOpen,
		Satisfaction:         7,
	}
}

func TestComputeValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Inputs)
	}{
		{"confidence below range", func(in *Inputs) { in.InitialConfidence = 0 }},
		{"confidence above range", func(in *Inputs) { in.FinalConfidence = 11 }},
		{"NaN clarity", func(in *Inputs) { in.FinalActionClarity = math.NaN() }},
		{"infinite satisfaction", func(in *Inputs) { in.Satisfaction = math.Inf(1) }},
		{"unknown mindset", func(in *Inputs) { in.FinalMindset = "enlightened" }},
		{"empty mindset", func(in *Inputs) { in.InitialMindset = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInputs()
			tc.mutate(&in)
			_, err := Compute(in, DefaultConfig())
			assert.Error(t, err)
		})
	}
}

func TestComputeBoundaryInputs(t *testing.T) {
	// All scalars at 10. Initial confidence 10 takes the clarity proxy
	// branch, so every sub-score lands at exactly 100.
	high := Inputs{
		InitialConfidence:    10,
		FinalConfidence:      10,
		InitialActionClarity: 10,
		FinalActionClarity:   10,
		InitialMindset:       MindsetEngaged,
		FinalMindset:         MindsetEngaged,
		Satisfaction:         10,
	}
	score, err := Compute(high, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 100, score.Confidence, 1e-9)
	assert.InDelta(t, 100, score.Action, 1e-9)
	assert.InDelta(t, 100, score.Satisfaction, 1e-9)
	assert.Equal(t, LevelExcellent, score.Level)

	// All scalars at 1. Rescaled sub-scores are exactly 0; confidence is
	// a zero delta centered at 50.
	low := Inputs{
		InitialConfidence:    1,
		FinalConfidence:      1,
		InitialActionClarity: 1,
		FinalActionClarity:   1,
		InitialMindset:       MindsetResistant,
		FinalMindset:         MindsetResistant,
		Satisfaction:         1,
	}
	score, err = Compute(low, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0, score.Action, 1e-9)
	assert.InDelta(t, 0, score.Satisfaction, 1e-9)
	assert.InDelta(t, 50, score.Confidence, 1e-9)
	assert.Equal(t, LevelInsufficient, score.Level)
}

func TestComputeAdaptiveConfidenceBranch(t *testing.T) {
	in := baseInputs()
	in.InitialConfidence = 9
	in.FinalConfidence = 9 // zero delta would score 50
	in.FinalActionClarity = 10

	score, err := Compute(in, DefaultConfig())
	require.NoError(t, err)

	// At or above the threshold the raw delta is ignored; final action
	// clarity stands in.
	assert.InDelta(t, 100, score.Confidence, 1e-9)

	// Just below the threshold the delta formula applies.
	in.InitialConfidence = 7
	in.FinalConfidence = 9
	score, err = Compute(in, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 70, score.Confidence, 1e-9)
}

func TestComputeConfidenceDeltaClamps(t *testing.T) {
	in := baseInputs()
	in.InitialConfidence = 1
	in.FinalConfidence = 10
	score, err := Compute(in, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 100, score.Confidence, 1e-9)

	in.InitialConfidence = 7
	in.FinalConfidence = 1
	score, err = Compute(in, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0, score.Confidence, 1e-9)
}

func TestComputeMindsetMapping(t *testing.T) {
	expected := map[Mindset]float64{
		MindsetResistant: 25,
		MindsetNeutral:   50,
		MindsetOpen:      75,
		MindsetEngaged:   100,
	}
	for mindset, want := range expected {
		in := baseInputs()
		in.FinalMindset = mindset
		score, err := Compute(in, DefaultConfig())
		require.NoError(t, err)
		assert.InDelta(t, want, score.Mindset, 1e-9, "mindset %s", mindset)
	}
}

func TestComputeEndToEndScenario(t *testing.T) {
	in := Inputs{
		InitialConfidence:    3,
		FinalConfidence:      7,
		InitialActionClarity: 5,
		FinalActionClarity:   8,
		InitialMindset:       MindsetResistant,
		FinalMindset:         MindsetEngaged,
		Satisfaction:         9,
	}
	score, err := Compute(in, DefaultConfig())
	require.NoError(t, err)

	// confidence 50 + 4*10 = 90; action (8-1)*100/9; mindset 100;
	// satisfaction (9-1)*100/9.
	assert.InDelta(t, 90, score.Confidence, 1e-9)
	assert.InDelta(t, 700.0/9.0, score.Action, 1e-9)
	assert.InDelta(t, 100, score.Mindset, 1e-9)
	assert.InDelta(t, 800.0/9.0, score.Satisfaction, 1e-9)

	want := 0.4*90 + 0.3*(700.0/9.0) + 0.2*100 + 0.1*(800.0/9.0)
	assert.InDelta(t, want, score.Composite, 1e-9)
	assert.Equal(t, LevelExcellent, score.Level)

	// Deterministic: same inputs, same score.
	again, err := Compute(in, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, score, again)
}

func TestLevelCutPoints(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		composite float64
		want      Level
	}{
		{85, LevelExcellent},
		{84.9, LevelGood},
		{70, LevelGood},
		{69.9, LevelFair},
		{50, LevelFair},
		{49.9, LevelMarginal},
		{30, LevelMarginal},
		{29.9, LevelInsufficient},
		{0, LevelInsufficient},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, level(tc.composite, cfg), "composite %g", tc.composite)
	}
}
