// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation gates freshly generated structured payloads before
// they reach the user or drive any state transition. Two independent
// gates apply: a conformance gate that consults an external verifier,
// and a local structural gate with step-specific shape rules.
package validation

// FieldSpec describes one field of a step schema. Constraint fields
// beyond Type are advisory for generation and are stripped before the
// schema is sent to a verifier.
type FieldSpec struct {
	Type      string   `json:"type"`
	MinLength int      `json:"minLength,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	Enum      []string `json:"enum,omitempty"`
}

// Schema is the JSON shape expected from the model for one step.
type Schema struct {
	Step     string               `json:"step"`
	Required []string             `json:"required"`
	Fields   map[string]FieldSpec `json:"fields"`
}

// StripConstraints returns a copy of the schema with every numeric and
// length constraint removed. Structure and required-field names are
// kept. Verifiers judge shape, not content length; sending the full
// constraint set makes them reject perfectly usable payloads for being
// a few characters long.
func StripConstraints(s Schema) Schema {
	stripped := Schema{
		Step:     s.Step,
		Required: append([]string(nil), s.Required...),
	}
	if s.Fields != nil {
		stripped.Fields = make(map[string]FieldSpec, len(s.Fields))
		for name, spec := range s.Fields {
			stripped.Fields[name] = FieldSpec{Type: spec.Type}
		}
	}
	return stripped
}
