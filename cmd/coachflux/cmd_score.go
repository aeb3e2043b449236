// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zee159/coachflux/services/coach/scoring"
)

var scoreInputs struct {
	initialConfidence float64
	finalConfidence   float64
	initialClarity    float64
	finalClarity      float64
	initialMindset    string
	finalMindset      string
	satisfaction      float64
	jsonOutput        bool
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute a confidence-success score from session measurements",
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := scoring.Compute(scoring.Inputs{
			InitialConfidence:    scoreInputs.initialConfidence,
			FinalConfidence:      scoreInputs.finalConfidence,
			InitialActionClarity: scoreInputs.initialClarity,
			FinalActionClarity:   scoreInputs.finalClarity,
			InitialMindset:       scoring.Mindset(scoreInputs.initialMindset),
			FinalMindset:         scoring.Mindset(scoreInputs.finalMindset),
			Satisfaction:         scoreInputs.satisfaction,
		}, scoring.DefaultConfig())
		if err != nil {
			return err
		}

		if scoreInputs.jsonOutput {
			encoded, err := json.MarshalIndent(score, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		}
		fmt.Printf("composite: %.1f (%s)\n", score.Composite, score.Level)
		fmt.Printf("  confidence:   %.1f\n", score.Confidence)
		fmt.Printf("  action:       %.1f\n", score.Action)
		fmt.Printf("  mindset:      %.1f\n", score.Mindset)
		fmt.Printf("  satisfaction: %.1f\n", score.Satisfaction)
		return nil
	},
}

func init() {
	flags := scoreCmd.Flags()
	flags.Float64Var(&scoreInputs.initialConfidence, "initial-confidence", 0, "initial confidence, 1-10")
	flags.Float64Var(&scoreInputs.finalConfidence, "final-confidence", 0, "final confidence, 1-10")
	flags.Float64Var(&scoreInputs.initialClarity, "initial-clarity", 0, "initial action clarity, 1-10")
	flags.Float64Var(&scoreInputs.finalClarity, "final-clarity", 0, "final action clarity, 1-10")
	flags.StringVar(&scoreInputs.initialMindset, "initial-mindset", "", "resistant|neutral|open|engaged")
	flags.StringVar(&scoreInputs.finalMindset, "final-mindset", "", "resistant|neutral|open|engaged")
	flags.Float64Var(&scoreInputs.satisfaction, "satisfaction", 0, "user satisfaction, 1-10")
	flags.BoolVar(&scoreInputs.jsonOutput, "json", false, "emit the score as JSON")

	for _, name := range []string{
		"initial-confidence", "final-confidence", "initial-clarity",
		"final-clarity", "initial-mindset", "final-mindset", "satisfaction",
	} {
		_ = scoreCmd.MarkFlagRequired(name)
	}
}
