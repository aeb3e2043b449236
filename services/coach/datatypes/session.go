// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the data model shared by the coaching engine:
// sessions, reflections (turn records), completion results, and the HTTP
// request/response shapes consumed by the handlers.
package datatypes

import (
	"time"
)

// Session identifies one user+framework+org coaching conversation.
//
// # Description
//
// The engine treats a Session as an opaque cursor: a current step name
// plus safety flags. Mutation happens through the store after the
// progression controller has produced its command list; the decision
// functions themselves never write.
//
// # Thread Safety
//
// The host serializes turns per session (at most one in flight). Session
// values are copied into decision functions, never shared mutably.
type Session struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	OrgID     string `json:"org_id"`
	Framework string `json:"framework"`

	// CurrentStep is the step pointer into the framework's fixed step
	// order. Moved only by the progression controller.
	CurrentStep string `json:"current_step"`

	// SkipCount is the number of times the user explicitly asked to
	// bypass the current step's completion bar. Reset on advance.
	SkipCount int `json:"skip_count"`

	// Escalated is set when a severe or crisis safety level was seen.
	Escalated bool `json:"escalated"`

	// Paused is set on crisis; a paused session accepts no coaching
	// turns until a human review clears it.
	Paused bool `json:"paused"`

	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// Closed reports whether the session reached its terminal state.
func (s *Session) Closed() bool {
	return s.ClosedAt != nil
}

// SafetyIncident is the audit record created when a crisis-level
// message is seen. Excerpt is truncated to at most 500 characters
// before it reaches the store.
type SafetyIncident struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Reason    string    `json:"reason"`
	Excerpt   string    `json:"excerpt"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}
