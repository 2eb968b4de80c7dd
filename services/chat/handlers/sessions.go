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
	"log/slog"
	"net/http"
	"strconv"

	"github.com/AleutianAI/AleutianChat/services/chat/turn"
	"github.com/gin-gonic/gin"
)

// defaultHistoryPageSize bounds GET history responses when the client did
// not ask for a limit.
const defaultHistoryPageSize = 50

// GetSessionHistory handles GET /v1/sessions/:sessionId/history.
//
// # Description
//
// Returns the session's turns oldest-first. Read-only: turns are
// append-only and no delete or update route exists. The optional limit
// query parameter caps the page size (default 50).
func GetSessionHistory(store turn.MessageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		slog.Info("Received request for session history", "sessionId", sessionID)

		limit := defaultHistoryPageSize
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		turns, err := store.ListRecent(c.Request.Context(), sessionID, limit)
		if err != nil {
			slog.Error("Failed to load session history", "sessionId", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session history"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": sessionID,
			"turns":      turns,
		})
	}
}
