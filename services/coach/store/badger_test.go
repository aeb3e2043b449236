// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	session := &datatypes.Session{
		UserID:      "user-1",
		OrgID:       "org-1",
		Framework:   "grow",
		CurrentStep: "intro",
	}
	require.NoError(t, s.CreateSession(ctx, session))
	require.NotEmpty(t, session.ID)
	assert.False(t, session.CreatedAt.IsZero())

	got, err := s.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "grow", got.Framework)
	assert.Equal(t, "intro", got.CurrentStep)

	got.CurrentStep = "goal"
	got.SkipCount = 1
	require.NoError(t, s.UpdateSession(ctx, got))

	again, err := s.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "goal", again.CurrentStep)
	assert.Equal(t, 1, again.SkipCount)
}

func TestGetSessionNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetSession(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSessionsFiltersAndOrders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := &datatypes.Session{UserID: "user-1", Framework: "grow",
		CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := &datatypes.Session{UserID: "user-1", Framework: "woop",
		CreatedAt: time.Now().UTC()}
	other := &datatypes.Session{UserID: "user-2", Framework: "clear"}
	for _, session := range []*datatypes.Session{older, newer, other} {
		require.NoError(t, s.CreateSession(ctx, session))
	}

	sessions, err := s.ListSessions(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "woop", sessions[0].Framework)
	assert.Equal(t, "grow", sessions[1].Framework)
}

func TestReflectionsKeepInsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, step := range []string{"goal", "goal", "reality"} {
		id, err := s.AppendReflection(ctx, &datatypes.Reflection{
			SessionID: "sess-1",
			Step:      step,
			Payload:   datatypes.Payload{"turn": float64(i)},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}
	// Another session's turns must not leak in.
	_, err := s.AppendReflection(ctx, &datatypes.Reflection{SessionID: "sess-2", Step: "goal"})
	require.NoError(t, err)

	all, err := s.ListReflections(ctx, "sess-1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, reflection := range all {
		assert.Equal(t, float64(i), reflection.Payload["turn"])
	}

	goalOnly, err := s.ListReflections(ctx, "sess-1", "goal")
	require.NoError(t, err)
	assert.Len(t, goalOnly, 2)
}

func TestIncidents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateIncident(ctx, &datatypes.SafetyIncident{
		SessionID: "sess-1",
		Reason:    "crisis keyword match",
		Excerpt:   "redacted",
		Severity:  "high",
	}))

	incidents, err := s.ListIncidents(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, "high", incidents[0].Severity)
	assert.NotEmpty(t, incidents[0].ID)

	none, err := s.ListIncidents(ctx, "sess-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
