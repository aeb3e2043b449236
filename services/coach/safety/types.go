// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package safety

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Level is the psychological-safety risk classification of a message.
//
// Levels are ordered by severity:
//
//	safe < anxiety < agitation < redundancy < severe < crisis
//
// A message matching keywords from several levels classifies as the
// highest-severity match.
type Level string

const (
	LevelSafe       Level = "safe"
	LevelAnxiety    Level = "anxiety"
	LevelAgitation  Level = "agitation"
	LevelRedundancy Level = "redundancy"
	LevelSevere     Level = "severe"
	LevelCrisis     Level = "crisis"
)

// severityRank maps levels onto their ordering. Unknown levels rank
// below safe so a malformed policy entry can never outrank a real one.
var severityRank = map[Level]int{
	LevelSafe:       0,
	LevelAnxiety:    1,
	LevelAgitation:  2,
	LevelRedundancy: 3,
	LevelSevere:     4,
	LevelCrisis:     5,
}

// Severity returns the ordinal rank of the level, -1 for unknown.
func (l Level) Severity() int {
	rank, ok := severityRank[l]
	if !ok {
		return -1
	}
	return rank
}

// ShouldStop reports whether this level suppresses normal coaching
// output. Only severe and crisis stop the turn.
func (l Level) ShouldStop() bool {
	return l == LevelSevere || l == LevelCrisis
}

// UnmarshalYAML validates that a policy file level is one the engine
// understands; a typo in the embedded policy fails at startup, not at
// classification time.
func (l *Level) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	incoming := Level(s)
	switch incoming {
	case LevelAnxiety, LevelAgitation, LevelRedundancy, LevelSevere, LevelCrisis:
		*l = incoming
		return nil
	default:
		return fmt.Errorf("invalid value for risk level: %q", incoming)
	}
}

// Check is the result of classifying one user message. Computed fresh
// per message; the classifier itself is stateless.
type Check struct {
	// Level is the highest-severity classification that matched.
	Level Level `json:"level"`

	// ShouldStop is true only for severe and crisis levels.
	ShouldStop bool `json:"should_stop"`

	// Response is the user-facing safety text for this level, with
	// emergency resources interpolated. Empty for safe.
	Response string `json:"response,omitempty"`

	// Flagged is true whenever any non-safe level matched.
	Flagged bool `json:"flagged"`

	// KeywordHits lists the keywords that produced the classification.
	KeywordHits []string `json:"keyword_hits,omitempty"`
}

// =============================================================================
// Embedded Policy File Shapes
// =============================================================================

type riskPolicyFile struct {
	Levels    []riskLevelEntry `yaml:"levels"`
	Resources resourceTable    `yaml:"resources"`
}

type riskLevelEntry struct {
	Level    Level    `yaml:"level"`
	Keywords []string `yaml:"keywords"`
	Response string   `yaml:"response"`
}

type resourceTable struct {
	DefaultRegion string            `yaml:"default_region"`
	Regions       map[string]string `yaml:"regions"`
}
