// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring computes the confidence-success score, the end-of-
// session composite outcome metric. The scorer is a pure function of
// its inputs and configuration.
package scoring

import (
	"fmt"
	"math"
)

// =============================================================================
// Types
// =============================================================================

// Mindset is the client's self-reported stance, a fixed ordered enum.
type Mindset string

const (
	MindsetResistant Mindset = "resistant"
	MindsetNeutral   Mindset = "neutral"
	MindsetOpen      Mindset = "open"
	MindsetEngaged   Mindset = "engaged"
)

// mindsetScores is the ordinal mapping onto the 0-100 scale.
var mindsetScores = map[Mindset]float64{
	MindsetResistant: 25,
	MindsetNeutral:   50,
	MindsetOpen:      75,
	MindsetEngaged:   100,
}

// confidencePointsPerStep converts one point of confidence movement on
// the 1-10 scale into composite points. A five-step swing saturates the
// sub-score.
const confidencePointsPerStep = 10

// Level is the categorical score band.
type Level string

const (
	LevelExcellent    Level = "EXCELLENT"
	LevelGood         Level = "GOOD"
	LevelFair         Level = "FAIR"
	LevelMarginal     Level = "MARGINAL"
	LevelInsufficient Level = "INSUFFICIENT"
)

// Inputs are the end-of-session measurements. Scalar fields are on a
// 1-10 scale.
type Inputs struct {
	InitialConfidence    float64
	FinalConfidence      float64
	InitialActionClarity float64
	FinalActionClarity   float64
	InitialMindset       Mindset
	FinalMindset         Mindset
	Satisfaction         float64
}

// Config holds the tunable weights and thresholds. The values are
// empirically tuned; change them only with outcome data in hand.
type Config struct {
	// HighConfidenceThreshold switches the confidence sub-score to the
	// clarity proxy when initial confidence is already at or above it.
	HighConfidenceThreshold float64

	// Weights over the four sub-scores. They should sum to 1.0; this is
	// not enforced.
	ConfidenceWeight   float64
	ActionWeight       float64
	MindsetWeight      float64
	SatisfactionWeight float64

	// Descending composite cut points for the level bands.
	ExcellentCut float64
	GoodCut      float64
	FairCut      float64
	MarginalCut  float64
}

// DefaultConfig returns the standard scoring configuration.
func DefaultConfig() Config {
	return Config{
		HighConfidenceThreshold: 8,
		ConfidenceWeight:        0.4,
		ActionWeight:            0.3,
		MindsetWeight:           0.2,
		SatisfactionWeight:      0.1,
		ExcellentCut:            85,
		GoodCut:                 70,
		FairCut:                 50,
		MarginalCut:             30,
	}
}

// Score is the computed result with its sub-scores, all on 0-100.
type Score struct {
	Composite    float64 `json:"composite"`
	Level        Level   `json:"level"`
	Confidence   float64 `json:"confidence_subscore"`
	Action       float64 `json:"action_subscore"`
	Mindset      float64 `json:"mindset_subscore"`
	Satisfaction float64 `json:"satisfaction_subscore"`
}

// =============================================================================
// Scorer
// =============================================================================

// Compute scores a completed session. All scalar inputs must be finite
// and in [1,10] and both mindsets must be enum members, otherwise an
// error is returned and no score is produced.
func Compute(in Inputs, cfg Config) (Score, error) {
	if err := validate(in); err != nil {
		return Score{}, err
	}

	score := Score{
		Confidence:   confidenceSubscore(in, cfg),
		Action:       rescale(in.FinalActionClarity),
		Mindset:      mindsetScores[in.FinalMindset],
		Satisfaction: rescale(in.Satisfaction),
	}
	score.Composite = cfg.ConfidenceWeight*score.Confidence +
		cfg.ActionWeight*score.Action +
		cfg.MindsetWeight*score.Mindset +
		cfg.SatisfactionWeight*score.Satisfaction
	score.Level = level(score.Composite, cfg)
	return score, nil
}

// confidenceSubscore measures confidence growth. When the client walked
// in already confident (at or above the threshold), the raw delta has
// no room to move, so final action clarity stands in as the better
// signal. Otherwise the sub-score is a signed delta centered at 50, not
// an absolute level.
func confidenceSubscore(in Inputs, cfg Config) float64 {
	if in.InitialConfidence >= cfg.HighConfidenceThreshold {
		return rescale(in.FinalActionClarity)
	}
	return clamp(50+(in.FinalConfidence-in.InitialConfidence)*confidencePointsPerStep, 0, 100)
}

// rescale maps the 1-10 input scale onto 0-100.
func rescale(v float64) float64 {
	return (v - 1) * (100.0 / 9.0)
}

func level(composite float64, cfg Config) Level {
	switch {
	case composite >= cfg.ExcellentCut:
		return LevelExcellent
	case composite >= cfg.GoodCut:
		return LevelGood
	case composite >= cfg.FairCut:
		return LevelFair
	case composite >= cfg.MarginalCut:
		return LevelMarginal
	default:
		return LevelInsufficient
	}
}

func validate(in Inputs) error {
	scalars := map[string]float64{
		"initial_confidence":     in.InitialConfidence,
		"final_confidence":       in.FinalConfidence,
		"initial_action_clarity": in.InitialActionClarity,
		"final_action_clarity":   in.FinalActionClarity,
		"satisfaction":           in.Satisfaction,
	}
	for name, v := range scalars {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite", name)
		}
		if v < 1 || v > 10 {
			return fmt.Errorf("%s must be between 1 and 10, got %g", name, v)
		}
	}
	for name, m := range map[string]Mindset{
		"initial_mindset": in.InitialMindset,
		"final_mindset":   in.FinalMindset,
	} {
		if _, ok := mindsetScores[m]; !ok {
			return fmt.Errorf("%s has unknown value %q", name, m)
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
