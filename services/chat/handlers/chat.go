// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers provides the HTTP handlers for the chat service.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianChat/services/chat/datatypes"
	"github.com/AleutianAI/AleutianChat/services/chat/middleware"
	"github.com/AleutianAI/AleutianChat/services/chat/turn"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var chatTracer = otel.Tracer("aleutianchat.chat.handlers")

// DefaultRequestTimeout bounds one turn when no budget is configured.
const DefaultRequestTimeout = 120 * time.Second

// HandleChat handles POST /chat.
//
// # Description
//
// Binds the request body, resolves the credential (body token, bearer
// header fallback), applies the per-request wall-clock budget, and runs
// the turn processor. Every failure converts to the `{error}` JSON shape
// with the status matching the failure kind; raw collaborator errors stay
// in the logs. Exactly one response is produced per request.
//
// # Status Codes
//
//   - 200: success, ChatResponse body
//   - 400: malformed body or missing message/sessionId
//   - 401: credential mismatch
//   - 500: store, provider, or loop-cap failure
func HandleChat(processor *turn.Processor, timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()

		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bind failed")
			slog.Error("Failed to parse the chat request", "error", err)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
			return
		}
		req.AuthToken = middleware.ResolveToken(c, req.AuthToken)

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := processor.Process(ctx, &req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "turn failed")
			status, message := statusAndMessage(err)
			if status == http.StatusInternalServerError {
				slog.Error("Chat turn failed", "sessionId", req.SessionID, "error", err)
			}
			c.JSON(status, datatypes.ErrorResponse{Error: message})
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// statusAndMessage maps a typed pipeline error to its HTTP status and a
// sanitized client-facing message.
func statusAndMessage(err error) (int, string) {
	switch {
	case turn.IsInvalidRequest(err):
		return http.StatusBadRequest, err.Error()
	case turn.IsUnauthorized(err):
		return http.StatusUnauthorized, "unauthorized"
	case turn.IsStoreRead(err):
		return http.StatusInternalServerError, "failed to load conversation history"
	case turn.IsStoreWrite(err):
		return http.StatusInternalServerError, "failed to persist conversation turn"
	case turn.IsUpstreamTimeout(err):
		return http.StatusInternalServerError, "upstream request timed out"
	case turn.IsLoopExceeded(err):
		return http.StatusInternalServerError, "reasoning did not converge"
	default:
		return http.StatusInternalServerError, "upstream failure"
	}
}
