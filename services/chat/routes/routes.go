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
	"time"

	"github.com/AleutianAI/AleutianChat/services/chat/handlers"
	"github.com/AleutianAI/AleutianChat/services/chat/turn"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers all chat service routes.
//
// POST /chat is the single contract route; /health and /metrics are
// operational, and the v1 session group is read-only administration.
func SetupRoutes(router *gin.Engine, processor *turn.Processor, store turn.MessageStore,
	requestTimeout time.Duration, enableMetrics bool) {

	router.GET("/health", handlers.HealthCheck)
	router.POST("/chat", handlers.HandleChat(processor, requestTimeout))

	if enableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:sessionId/history", handlers.GetSessionHistory(store))
		}
	}
}
