// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/Zee159/coachflux/services/coach/frameworks"
	"github.com/Zee159/coachflux/services/coach/recall"
)

// CreateSession starts a new coaching session at the chosen
// framework's first step.
func CreateSession(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fw, err := deps.framework(req.Framework)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "unknown framework",
				"frameworks": frameworks.Names(),
			})
			return
		}

		session := &datatypes.Session{
			UserID:      req.UserID,
			OrgID:       req.OrgID,
			Framework:   fw.Name(),
			CurrentStep: fw.Steps()[0],
		}
		if err := deps.Store.CreateSession(c.Request.Context(), session); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Created coaching session",
			"sessionId", session.ID, "framework", session.Framework, "userId", session.UserID)
		c.JSON(http.StatusCreated, session)
	}
}

// GetSession returns a session document.
func GetSession(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := deps.Store.GetSession(c.Request.Context(), c.Param("sessionId"))
		if abortNotFound(c, err) {
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// ListSessions returns a user's sessions, newest first.
func ListSessions(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
			return
		}
		sessions, err := deps.Store.ListSessions(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions})
	}
}

// SessionHistory returns a session's turns in order, optionally
// filtered by step.
func SessionHistory(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		if _, err := deps.Store.GetSession(c.Request.Context(), sessionID); abortNotFound(c, err) {
			return
		}
		reflections, err := deps.Store.ListReflections(c.Request.Context(), sessionID, c.Query("step"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "reflections": reflections})
	}
}

// SkipStep records an explicit request to bypass the current step's
// completion bar. The bar itself lowers on the next turn.
func SkipStep(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := deps.Store.GetSession(c.Request.Context(), c.Param("sessionId"))
		if abortNotFound(c, err) {
			return
		}
		if session.Closed() {
			c.JSON(http.StatusConflict, gin.H{"error": "session is closed"})
			return
		}
		session.SkipCount++
		if err := deps.Store.UpdateSession(c.Request.Context(), session); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Recorded step skip",
			"sessionId", session.ID, "step", session.CurrentStep, "skipCount", session.SkipCount)
		c.JSON(http.StatusOK, session)
	}
}

// CloseSession closes a session explicitly. This is the only way the
// terminal step completes. Summary save and the close metric run
// concurrently once the session document is updated.
func CloseSession(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		session, err := deps.Store.GetSession(ctx, c.Param("sessionId"))
		if abortNotFound(c, err) {
			return
		}
		if session.Closed() {
			c.JSON(http.StatusConflict, gin.H{"error": "session is already closed"})
			return
		}

		now := time.Now().UTC()
		session.ClosedAt = &now
		if err := deps.Store.UpdateSession(ctx, session); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		history, err := deps.Store.ListReflections(ctx, session.ID, "")
		if err != nil {
			slog.Error("Failed to load history for session summary", "sessionId", session.ID, "error", err)
			history = nil
		}

		g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
		if deps.Recaller != nil {
			g.Go(func() error {
				return deps.Recaller.SaveSummary(gctx, session, recall.BuildSummary(session, history))
			})
		}
		g.Go(func() error {
			if deps.Metrics != nil {
				deps.Metrics.SessionsClosedTotal.WithLabelValues(session.Framework).Inc()
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			// The session is already closed; recall is best-effort.
			slog.Error("Post-close work failed", "sessionId", session.ID, "error", err)
		}

		slog.Info("Closed coaching session", "sessionId", session.ID, "framework", session.Framework)
		c.JSON(http.StatusOK, session)
	}
}

// ListIncidents returns a session's safety incidents.
func ListIncidents(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		if _, err := deps.Store.GetSession(c.Request.Context(), sessionID); abortNotFound(c, err) {
			return
		}
		incidents, err := deps.Store.ListIncidents(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "incidents": incidents})
	}
}

// RelatedSessions returns semantically similar past sessions for
// post-session recommendations. Never consulted by progression.
func RelatedSessions(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Recaller == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recall is not configured"})
			return
		}
		ctx := c.Request.Context()
		session, err := deps.Store.GetSession(ctx, c.Param("sessionId"))
		if abortNotFound(c, err) {
			return
		}
		history, err := deps.Store.ListReflections(ctx, session.ID, "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		limit := 5
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		related, err := deps.Recaller.Related(ctx, recall.BuildSummary(session, history), limit)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "related": related})
	}
}
