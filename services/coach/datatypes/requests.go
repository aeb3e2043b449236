// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes: request and response types for the coach HTTP
// surface. For the persisted session/reflection model, see session.go
// and reflection.go.
package datatypes

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Input Bounds
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single user
	// message. Unbounded message input is a memory-exhaustion vector.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxCountryCodeLen bounds the optional ISO country code used for
	// emergency-resource interpolation.
	MaxCountryCodeLen = 2
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// coachValidate is the validator instance for coach datatypes.
var coachValidate *validator.Validate

func init() {
	coachValidate = validator.New()
	_ = coachValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length (not rune count) so oversized
// UTF-8 payloads cannot slip past a rune-based limit.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Requests
// =============================================================================

// CreateSessionRequest starts a new coaching session.
type CreateSessionRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	OrgID     string `json:"org_id" validate:"required"`
	Framework string `json:"framework" validate:"required"`
}

// Validate checks the request against its declared constraints.
func (r *CreateSessionRequest) Validate() error {
	if err := coachValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid create-session request: %w", err)
	}
	return nil
}

// TurnRequest carries one user turn into the engine.
//
// CountryCode is optional and only used to select emergency-resource
// text when the safety classifier escalates.
type TurnRequest struct {
	Message     string `json:"message" validate:"required,maxbytes"`
	CountryCode string `json:"country_code,omitempty" validate:"omitempty,len=2,alpha"`
}

// Validate checks the request against its declared constraints.
func (r *TurnRequest) Validate() error {
	if err := coachValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid turn request: %w", err)
	}
	return nil
}

// ScoreRequest carries the six end-of-session measurements for the
// confidence-success score.
type ScoreRequest struct {
	InitialConfidence    float64 `json:"initial_confidence" validate:"required,min=1,max=10"`
	FinalConfidence      float64 `json:"final_confidence" validate:"required,min=1,max=10"`
	InitialActionClarity float64 `json:"initial_action_clarity" validate:"required,min=1,max=10"`
	FinalActionClarity   float64 `json:"final_action_clarity" validate:"required,min=1,max=10"`
	InitialMindset       string  `json:"initial_mindset" validate:"required,oneof=resistant neutral open engaged"`
	FinalMindset         string  `json:"final_mindset" validate:"required,oneof=resistant neutral open engaged"`
	Satisfaction         float64 `json:"satisfaction" validate:"required,min=1,max=10"`
}

// Validate checks the request against its declared constraints.
func (r *ScoreRequest) Validate() error {
	if err := coachValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid score request: %w", err)
	}
	return nil
}

// =============================================================================
// Responses
// =============================================================================

// TurnResponse is returned for every accepted turn.
type TurnResponse struct {
	SessionID string `json:"session_id"`
	Step      string `json:"step"`

	// CoachReflection is the text shown to the user, either the model
	// payload's coach text or a safety response.
	CoachReflection string `json:"coach_reflection"`

	// SafetyLevel is the classification for this message ("safe" when
	// nothing matched).
	SafetyLevel string `json:"safety_level"`

	Advanced          bool     `json:"advanced"`
	Closed            bool     `json:"closed"`
	CompletionPercent int      `json:"completion_percent"`
	MissingFields     []string `json:"missing_fields,omitempty"`
}
