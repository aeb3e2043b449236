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
	"os"

	"github.com/spf13/cobra"

	"github.com/Zee159/coachflux/services/coach/safety"
)

// Exit codes for safety check.
const (
	SafetyExitSafe    = 0
	SafetyExitFlagged = 1
	SafetyExitStop    = 2
	SafetyExitError   = 3
)

var (
	safetyCountryCode string
	safetyJSONOutput  bool
)

var safetyCmd = &cobra.Command{
	Use:   "safety",
	Short: "Safety classification utilities",
}

var safetyCheckCmd = &cobra.Command{
	Use:   "check <message>",
	Short: "Classify a message against the risk keyword policy",
	Long: "Classifies a message and prints the matched level, keyword hits, and " +
		"response text. Exit code 0 means safe, 1 flagged, 2 stop-the-session.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		classifier, err := safety.NewClassifier()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load the risk policy: %v\n", err)
			os.Exit(SafetyExitError)
		}

		check := classifier.Check(args[0], safetyCountryCode)
		if safetyJSONOutput {
			encoded, err := json.MarshalIndent(check, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
				os.Exit(SafetyExitError)
			}
			fmt.Println(string(encoded))
		} else {
			fmt.Printf("level: %s\n", check.Level)
			if len(check.KeywordHits) > 0 {
				fmt.Printf("hits: %v\n", check.KeywordHits)
			}
			if check.Response != "" {
				fmt.Printf("response: %s\n", check.Response)
			}
		}

		switch {
		case check.ShouldStop:
			os.Exit(SafetyExitStop)
		case check.Flagged:
			os.Exit(SafetyExitFlagged)
		}
	},
}

func init() {
	safetyCheckCmd.Flags().StringVar(&safetyCountryCode, "country", "",
		"two-letter country code for emergency resource text")
	safetyCheckCmd.Flags().BoolVar(&safetyJSONOutput, "json", false,
		"emit the full check result as JSON")
	safetyCmd.AddCommand(safetyCheckCmd)
}
