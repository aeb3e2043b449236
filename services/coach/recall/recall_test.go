// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package recall

import (
	"testing"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/stretchr/testify/assert"
)

func TestBuildSummary(t *testing.T) {
	session := &datatypes.Session{ID: "sess-1", Framework: "grow"}
	history := []datatypes.Reflection{
		{Step: "goal", UserInput: "I want to stop being the bottleneck."},
		{Step: "goal", Payload: datatypes.Payload{
			datatypes.CoachReflectionField: "Being the bottleneck is costing you evenings.",
		}},
		{Step: "reality", Payload: datatypes.Payload{"obstacles": []any{"no backfill"}}},
	}

	summary := BuildSummary(session, history)
	assert.Contains(t, summary, "Framework: grow.")
	assert.Contains(t, summary, "Client: I want to stop being the bottleneck.")
	assert.Contains(t, summary, "Coach: Being the bottleneck is costing you evenings.")
	// A turn with neither user input nor coach text contributes nothing.
	assert.NotContains(t, summary, "obstacles")
}

func TestBuildSummaryEmptyHistory(t *testing.T) {
	session := &datatypes.Session{ID: "sess-1", Framework: "woop"}
	assert.Equal(t, "Framework: woop.", BuildSummary(session, nil))
}
