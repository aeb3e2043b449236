// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/Zee159/coachflux/services/coach/handlers"
	"github.com/Zee159/coachflux/services/coach/routes"
	"github.com/Zee159/coachflux/services/coach/safety"
	"github.com/Zee159/coachflux/services/coach/store"
	"github.com/Zee159/coachflux/services/llm"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Generate(_ context.Context, _, _ string, _ llm.GenerationParams) (string, error) {
	return f.response, f.err
}

type testServer struct {
	router *gin.Engine
	deps   *handlers.Deps
	store  *store.BadgerStore
}

func newTestServer(t *testing.T, llmResponse string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	classifier, err := safety.NewClassifier()
	require.NoError(t, err)

	deps := &handlers.Deps{
		Store:      st,
		LLM:        &fakeLLM{response: llmResponse},
		Classifier: classifier,
	}
	router := gin.New()
	routes.SetupRoutes(router, deps)
	return &testServer{router: router, deps: deps, store: st}
}

func (s *testServer) createSession(t *testing.T, framework string) *datatypes.Session {
	t.Helper()
	session := &datatypes.Session{
		UserID: "user-1", OrgID: "org-1", Framework: framework, CurrentStep: "intro",
	}
	require.NoError(t, s.store.CreateSession(context.Background(), session))
	return session
}

func (s *testServer) postTurn(t *testing.T, sessionID, message string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(datatypes.TurnRequest{Message: message})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sessionID+"/turn", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

const consentPayload = `{"coach_reflection": "Thank you, let's begin working on your goal together.", "consent": true}`

func TestHandleTurnCrisisEscalates(t *testing.T) {
	s := newTestServer(t, consentPayload)
	session := s.createSession(t, "grow")

	w := s.postTurn(t, session.ID, "I want to kill myself")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp datatypes.TurnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "crisis", resp.SafetyLevel)
	assert.NotEmpty(t, resp.CoachReflection)
	assert.False(t, resp.Advanced)

	updated, err := s.store.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, updated.Paused)
	assert.True(t, updated.Escalated)

	incidents, err := s.store.ListIncidents(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, "high", incidents[0].Severity)

	// A paused session refuses further turns.
	again := s.postTurn(t, session.ID, "hello?")
	assert.Equal(t, http.StatusConflict, again.Code)
}

func TestHandleTurnSevereEscalatesWithoutPausing(t *testing.T) {
	s := newTestServer(t, consentPayload)
	session := s.createSession(t, "grow")

	w := s.postTurn(t, session.ID, "I feel completely hopeless about all of this")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp datatypes.TurnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "severe", resp.SafetyLevel)
	assert.NotEmpty(t, resp.CoachReflection)
	assert.False(t, resp.Advanced)

	// Severe escalates but leaves the session open; only crisis pauses
	// and records an incident.
	updated, err := s.store.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, updated.Escalated)
	assert.False(t, updated.Paused)

	incidents, err := s.store.ListIncidents(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Empty(t, incidents)

	// The session keeps accepting turns.
	again := s.postTurn(t, session.ID, "Yes, I'm ready to start.")
	assert.Equal(t, http.StatusOK, again.Code, again.Body.String())
}

func TestHandleTurnAdvanceResetsSkipCount(t *testing.T) {
	s := newTestServer(t, consentPayload)
	session := s.createSession(t, "grow")
	session.SkipCount = 2
	require.NoError(t, s.store.UpdateSession(context.Background(), session))

	w := s.postTurn(t, session.ID, "Yes, I'm ready to start.")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp datatypes.TurnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Advanced)

	// Skips relax the step they were requested on; the next step starts
	// with a fresh bar.
	updated, err := s.store.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "goal", updated.CurrentStep)
	assert.Equal(t, 0, updated.SkipCount)
}

func TestHandleTurnConsentAdvances(t *testing.T) {
	s := newTestServer(t, consentPayload)
	session := s.createSession(t, "grow")

	w := s.postTurn(t, session.ID, "Yes, I'm ready to start.")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp datatypes.TurnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Advanced)
	assert.Equal(t, "goal", resp.Step)
	assert.Equal(t, "safe", resp.SafetyLevel)

	updated, err := s.store.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "goal", updated.CurrentStep)

	// User turn, coach turn, transition turn, opener turn.
	history, err := s.store.ListReflections(context.Background(), session.ID, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(history), 3)
	assert.Equal(t, "Yes, I'm ready to start.", history[0].UserInput)
}

func TestHandleTurnRejectsShortReflection(t *testing.T) {
	s := newTestServer(t, `{"coach_reflection": "Okay."}`)
	session := s.createSession(t, "grow")

	w := s.postTurn(t, session.ID, "hello")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Nothing was committed.
	history, err := s.store.ListReflections(context.Background(), session.ID, "")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHandleTurnUnparsableModelOutput(t *testing.T) {
	s := newTestServer(t, "I think the client is doing great.")
	session := s.createSession(t, "grow")

	w := s.postTurn(t, session.ID, "hello")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	history, err := s.store.ListReflections(context.Background(), session.ID, "")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHandleTurnUnknownSession(t *testing.T) {
	s := newTestServer(t, consentPayload)
	w := s.postTurn(t, "no-such-session", "hello")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleTurnValidatesRequest(t *testing.T) {
	s := newTestServer(t, consentPayload)
	session := s.createSession(t, "grow")

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+session.ID+"/turn",
		bytes.NewReader([]byte(`{"message": ""}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
