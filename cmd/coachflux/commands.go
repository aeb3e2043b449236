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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zee159/coachflux/services/coach/frameworks"
)

var rootCmd = &cobra.Command{
	Use:   "coachflux",
	Short: "Coaching engine utilities",
	Long:  "Offline utilities for the coachflux engine: safety checks, scoring, and framework inspection.",
}

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "List the available coaching frameworks and their steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range frameworks.Names() {
			fw, err := frameworks.New(name, frameworks.Config{})
			if err != nil {
				return err
			}
			fmt.Printf("%-8s %v (terminal: %s)\n", fw.Name(), fw.Steps(), fw.TerminalStep())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(frameworksCmd)
	rootCmd.AddCommand(safetyCmd)
	rootCmd.AddCommand(scoreCmd)
}
