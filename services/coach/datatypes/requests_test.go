// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnRequestValidate(t *testing.T) {
	tests := []struct {
		name        string
		request     TurnRequest
		expectError bool
	}{
		{
			name:        "valid message passes",
			request:     TurnRequest{Message: "I want to get better at delegation"},
			expectError: false,
		},
		{
			name:        "empty message fails",
			request:     TurnRequest{Message: ""},
			expectError: true,
		},
		{
			name:        "country code accepted",
			request:     TurnRequest{Message: "hello", CountryCode: "GB"},
			expectError: false,
		},
		{
			name:        "numeric country code rejected",
			request:     TurnRequest{Message: "hello", CountryCode: "44"},
			expectError: true,
		},
		{
			name:        "three letter country code rejected",
			request:     TurnRequest{Message: "hello", CountryCode: "GBR"},
			expectError: true,
		},
		{
			name:        "oversized message rejected",
			request:     TurnRequest{Message: strings.Repeat("a", MaxMessageContentBytes+1)},
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.request.Validate()
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScoreRequestValidate(t *testing.T) {
	valid := ScoreRequest{
		InitialConfidence:    3,
		FinalConfidence:      7,
		InitialActionClarity: 5,
		FinalActionClarity:   8,
		InitialMindset:       "resistant",
		FinalMindset:         "engaged",
		Satisfaction:         9,
	}
	assert.NoError(t, valid.Validate())

	outOfRange := valid
	outOfRange.FinalConfidence = 11
	assert.Error(t, outOfRange.Validate())

	badMindset := valid
	badMindset.InitialMindset = "hostile"
	assert.Error(t, badMindset.Validate())
}

func TestReflectionCoachAuthored(t *testing.T) {
	tests := []struct {
		name string
		refl Reflection
		want bool
	}{
		{
			name: "coach text without user input",
			refl: Reflection{Payload: Payload{CoachReflectionField: "What would success look like?"}},
			want: true,
		},
		{
			name: "coach text with user input attached",
			refl: Reflection{UserInput: "I said something", Payload: Payload{CoachReflectionField: "Noted."}},
			want: false,
		},
		{
			name: "whitespace-only coach text",
			refl: Reflection{Payload: Payload{CoachReflectionField: "   "}},
			want: false,
		},
		{
			name: "nil payload",
			refl: Reflection{},
			want: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.refl.CoachAuthored())
		})
	}
}
