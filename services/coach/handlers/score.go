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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/Zee159/coachflux/services/coach/scoring"
)

// HandleScore computes the confidence-success score for a session from
// the caller's end-of-session measurements.
func HandleScore(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ScoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		session, err := deps.Store.GetSession(c.Request.Context(), c.Param("sessionId"))
		if abortNotFound(c, err) {
			return
		}

		score, err := scoring.Compute(scoring.Inputs{
			InitialConfidence:    req.InitialConfidence,
			FinalConfidence:      req.FinalConfidence,
			InitialActionClarity: req.InitialActionClarity,
			FinalActionClarity:   req.FinalActionClarity,
			InitialMindset:       scoring.Mindset(req.InitialMindset),
			FinalMindset:         scoring.Mindset(req.FinalMindset),
			Satisfaction:         req.Satisfaction,
		}, scoring.DefaultConfig())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "score": score})
	}
}
