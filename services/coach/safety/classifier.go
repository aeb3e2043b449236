// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package safety classifies user messages for psychological-safety risk
// and selects the escalation response shown in place of normal coaching
// output.
//
// The classifier is a pure function over an embedded keyword policy
// (see the policy subpackage): it never writes session state itself.
// Escalation side effects (marking the session escalated, pausing it,
// creating an incident record) are owned by the caller, which keeps
// this package trivially testable.
package safety

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/Zee159/coachflux/services/coach/safety/policy"
	"gopkg.in/yaml.v3"
)

// MaxIncidentExcerpt is the maximum number of characters of the
// offending message copied into a safety incident record.
const MaxIncidentExcerpt = 500

// IncidentSeverity is the severity recorded on crisis incidents.
const IncidentSeverity = "high"

// Classifier matches user messages against the embedded risk keyword
// policy, highest severity first.
//
// # Thread Safety
//
// A Classifier is immutable after construction and safe for concurrent
// use from any number of request handlers.
type Classifier struct {
	levels    []riskLevelEntry // sorted by descending severity
	resources resourceTable
}

// NewClassifier builds a Classifier from the embedded policy.
//
// It unmarshals the YAML baked into the binary, lower-cases every
// keyword, and sorts the levels from highest to lowest severity.
// Returns an error only for a malformed embedded policy, which is a
// build defect rather than a runtime condition.
func NewClassifier() (*Classifier, error) {
	var file riskPolicyFile
	if err := yaml.Unmarshal(policy.RiskKeywordPatterns, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded risk policy: %w", err)
	}
	if len(file.Levels) == 0 {
		return nil, fmt.Errorf("embedded risk policy defines no levels")
	}
	for i := range file.Levels {
		for j, kw := range file.Levels[i].Keywords {
			file.Levels[i].Keywords[j] = strings.ToLower(kw)
		}
	}
	sort.SliceStable(file.Levels, func(i, j int) bool {
		return file.Levels[i].Level.Severity() > file.Levels[j].Level.Severity()
	})
	if file.Resources.DefaultRegion == "" {
		file.Resources.DefaultRegion = "US"
	}
	return &Classifier{levels: file.Levels, resources: file.Resources}, nil
}

// Check classifies a single user message.
//
// # Description
//
// The message is lower-cased and tested for substring membership
// against each level's keyword set, from crisis down. The first level
// with any hit wins and short-circuits all lower levels, so a message
// containing both an anxiety keyword and a crisis keyword classifies
// as crisis. No match yields a safe result with no response text.
//
// countryCode selects the emergency-resource text interpolated into
// severe/crisis responses; an unknown or empty code falls back to the
// policy's default region.
//
// Check never fails: any input string produces a valid Check.
func (c *Classifier) Check(message, countryCode string) Check {
	lowered := strings.ToLower(message)

	for _, entry := range c.levels {
		var hits []string
		for _, kw := range entry.Keywords {
			if strings.Contains(lowered, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) == 0 {
			continue
		}
		return Check{
			Level:       entry.Level,
			ShouldStop:  entry.Level.ShouldStop(),
			Response:    c.renderResponse(entry, countryCode),
			Flagged:     true,
			KeywordHits: hits,
		}
	}

	return Check{Level: LevelSafe}
}

// Incident builds the audit record for a crisis-level check. The
// offending message is truncated to MaxIncidentExcerpt characters.
func (c *Classifier) Incident(sessionID, message string, check Check) datatypes.SafetyIncident {
	return datatypes.SafetyIncident{
		SessionID: sessionID,
		Reason:    fmt.Sprintf("safety level %s (keywords: %s)", check.Level, strings.Join(check.KeywordHits, ", ")),
		Excerpt:   TruncateExcerpt(message),
		Severity:  IncidentSeverity,
	}
}

// TruncateExcerpt bounds a message copy for incident records. Truncation
// is by rune so a multi-byte character is never split.
func TruncateExcerpt(message string) string {
	runes := []rune(message)
	if len(runes) <= MaxIncidentExcerpt {
		return message
	}
	return string(runes[:MaxIncidentExcerpt])
}

// renderResponse fills the {resources} token for levels that carry
// emergency-resource text. Lower levels keep their template verbatim.
func (c *Classifier) renderResponse(entry riskLevelEntry, countryCode string) string {
	response := entry.Response
	if !strings.Contains(response, "{resources}") {
		return response
	}
	return strings.ReplaceAll(response, "{resources}", c.resourcesFor(countryCode))
}

// resourcesFor returns the regional emergency-resource line, falling
// back to the default region when the code is unknown.
func (c *Classifier) resourcesFor(countryCode string) string {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if text, ok := c.resources.Regions[code]; ok {
		return text
	}
	return c.resources.Regions[c.resources.DefaultRegion]
}
