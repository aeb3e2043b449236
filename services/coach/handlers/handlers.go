// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers provides the HTTP request handlers for the coach
// service. Handlers are gin closures over a shared Deps value; all
// state mutation goes through the store, and turns for the same session
// are serialized here.
package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Zee159/coachflux/services/coach/frameworks"
	"github.com/Zee159/coachflux/services/coach/observability"
	"github.com/Zee159/coachflux/services/coach/recall"
	"github.com/Zee159/coachflux/services/coach/safety"
	"github.com/Zee159/coachflux/services/coach/store"
	"github.com/Zee159/coachflux/services/coach/validation"
	"github.com/Zee159/coachflux/services/llm"
)

// Deps carries the collaborators shared by all handlers.
type Deps struct {
	Store      store.Store
	LLM        llm.LLMClient
	Classifier *safety.Classifier

	// Verifier is optional. Nil skips the external conformance call;
	// a configured but unreachable verifier fails the turn closed.
	Verifier validation.Verifier

	// Recaller is optional. Nil disables summary save and related
	// lookup (lightweight mode).
	Recaller *recall.Recaller

	Metrics *observability.CoachMetrics

	// FrameworkCfg selects framework revisions (e.g. legacy COMPASS).
	FrameworkCfg frameworks.Config

	turnGuards sync.Map // sessionID -> *turnGuard
}

// turnGuard enforces at-most-one in-flight turn per session plus a
// per-session rate limit.
type turnGuard struct {
	mu      sync.Mutex
	limiter *rate.Limiter
}

// guard returns the session's guard, creating it on first use.
func (d *Deps) guard(sessionID string) *turnGuard {
	if g, ok := d.turnGuards.Load(sessionID); ok {
		return g.(*turnGuard)
	}
	g, _ := d.turnGuards.LoadOrStore(sessionID, &turnGuard{
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	})
	return g.(*turnGuard)
}

// framework resolves a session's framework under the configured
// revision toggles.
func (d *Deps) framework(name string) (frameworks.Framework, error) {
	return frameworks.New(name, d.FrameworkCfg)
}

// abortNotFound maps store.ErrNotFound onto 404, everything else onto
// 500. Returns true when the request was aborted.
func abortNotFound(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	} else {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
	return true
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
