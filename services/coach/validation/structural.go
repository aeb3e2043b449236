// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/Zee159/coachflux/services/coach/progress"
)

// MinCoachReflectionChars is the shortest coach-facing text the
// structural gate accepts. Anything shorter reads as a truncated or
// degenerate generation.
const MinCoachReflectionChars = 20

// Quality indicator bounds for list-of-object fields.
const (
	feasibilityMin = 1
	feasibilityMax = 10
)

var effortLevels = []string{"low", "medium", "high"}

// StructuralRules selects the step-specific shape checks. OptionsField
// and ActionsField name list-of-object payload fields; empty means the
// step has no such field.
type StructuralRules struct {
	Required     []string
	OptionsField string // objects carry "label"
	ActionsField string // objects carry "title"
}

// StructuralResult carries the gate verdict and every error found. The
// gate never stops at the first problem; the caller gets the full list.
type StructuralResult struct {
	Valid         bool     `json:"valid"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// CheckStructure runs the local structural gate on a candidate payload.
// No external calls are made.
func CheckStructure(payload datatypes.Payload, rules StructuralRules) StructuralResult {
	var errs []string

	reflection, _ := payload[datatypes.CoachReflectionField].(string)
	if len(strings.TrimSpace(reflection)) < MinCoachReflectionChars {
		errs = append(errs, fmt.Sprintf("%s must be at least %d characters",
			datatypes.CoachReflectionField, MinCoachReflectionChars))
	}

	_, missing, _ := progress.Completion(payload, rules.Required)

	if rules.OptionsField != "" {
		errs = append(errs, checkObjectList(payload, rules.OptionsField, "label")...)
	}
	if rules.ActionsField != "" {
		errs = append(errs, checkObjectList(payload, rules.ActionsField, "title")...)
	}

	return StructuralResult{
		Valid:         len(errs) == 0,
		MissingFields: missing,
		Errors:        errs,
	}
}

// checkObjectList validates a list-of-object field. Every object needs
// a non-empty label key. Quality indicators (feasibility, effort) are
// all-or-nothing per object: one present makes the rest mandatory, and
// all of them bounded.
func checkObjectList(payload datatypes.Payload, field, labelKey string) []string {
	value, present := payload[field]
	if !present {
		return nil
	}
	items, ok := value.([]any)
	if !ok {
		return []string{fmt.Sprintf("%s must be an array of objects", field)}
	}

	var errs []string
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s[%d] must be an object", field, i))
			continue
		}
		label, _ := obj[labelKey].(string)
		if strings.TrimSpace(label) == "" {
			errs = append(errs, fmt.Sprintf("%s[%d] missing non-empty %s", field, i, labelKey))
		}
		errs = append(errs, checkQualityIndicators(field, i, obj)...)
	}
	return errs
}

func checkQualityIndicators(field string, index int, obj map[string]any) []string {
	feasibility, hasFeasibility := obj["feasibility"]
	effort, hasEffort := obj["effort"]
	if !hasFeasibility && !hasEffort {
		return nil
	}

	var errs []string
	if !hasFeasibility {
		errs = append(errs, fmt.Sprintf("%s[%d] has quality indicators but no feasibility", field, index))
	} else if err := checkFeasibility(feasibility); err != "" {
		errs = append(errs, fmt.Sprintf("%s[%d] %s", field, index, err))
	}
	if !hasEffort {
		errs = append(errs, fmt.Sprintf("%s[%d] has quality indicators but no effort", field, index))
	} else if err := checkEffort(effort); err != "" {
		errs = append(errs, fmt.Sprintf("%s[%d] %s", field, index, err))
	}
	return errs
}

func checkFeasibility(value any) string {
	n, ok := numeric(value)
	if !ok {
		return "feasibility must be a number"
	}
	if n != math.Trunc(n) {
		return "feasibility must be an integer"
	}
	if n < feasibilityMin || n > feasibilityMax {
		return fmt.Sprintf("feasibility must be between %d and %d", feasibilityMin, feasibilityMax)
	}
	return ""
}

func checkEffort(value any) string {
	s, ok := value.(string)
	if !ok {
		return "effort must be a string"
	}
	for _, level := range effortLevels {
		if s == level {
			return ""
		}
	}
	return fmt.Sprintf("effort must be one of %v", effortLevels)
}

func numeric(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
