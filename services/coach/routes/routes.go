// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Zee159/coachflux/services/coach/handlers"
)

func SetupRoutes(router *gin.Engine, deps *handlers.Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(deps))
			sessions.GET("", handlers.ListSessions(deps))
			sessions.GET("/:sessionId", handlers.GetSession(deps))
			sessions.GET("/:sessionId/history", handlers.SessionHistory(deps))
			sessions.GET("/:sessionId/incidents", handlers.ListIncidents(deps))
			sessions.GET("/:sessionId/related", handlers.RelatedSessions(deps))
			sessions.POST("/:sessionId/turn", handlers.HandleTurn(deps))
			sessions.POST("/:sessionId/skip", handlers.SkipStep(deps))
			sessions.POST("/:sessionId/close", handlers.CloseSession(deps))
			sessions.POST("/:sessionId/score", handlers.HandleScore(deps))
		}
	}
}
