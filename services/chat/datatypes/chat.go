// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response types for the chat service.
//
// This file contains the wire types for the POST /chat endpoint. Validation
// uses go-playground/validator tags plus a custom byte-size validator so
// oversized payloads are rejected before any collaborator call.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single chat message.
	// Checked in bytes (not runes) to bound memory regardless of encoding.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxSessionIDLength bounds the client-supplied session identifier.
	MaxSessionIDLength = 255
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks that a string field does not exceed
// MaxMessageContentBytes when measured in bytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Chat Request
// =============================================================================

// ChatRequest represents the POST /chat request body.
//
// # Description
//
// ChatRequest carries one user turn for an existing or new session. The
// request is rejected before any external call when Message or SessionID
// is absent. AuthToken is the shared-secret credential; it is compared in
// constant time against the configured secret and is deliberately excluded
// from logs.
//
// # Fields
//
//   - Message: Required. The user's message, at most 32KB.
//   - SessionID: Required. Client-supplied identifier grouping the
//     session's turns.
//   - AuthToken: The shared-secret credential. May arrive via the
//     Authorization header instead; body value wins when both are set.
//
// # Examples
//
//	req := ChatRequest{
//	    Message:   "What is a noun?",
//	    SessionID: "s1",
//	    AuthToken: secret,
//	}
//	if err := req.Validate(); err != nil { ... }
type ChatRequest struct {
	Message   string `json:"message" validate:"required,maxbytes"`
	SessionID string `json:"sessionId" validate:"required,max=255"`
	AuthToken string `json:"authToken"`
}

// Validate validates the ChatRequest fields.
//
// # Outputs
//
//   - error: Non-nil if validation failed, with details about which field.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// =============================================================================
// Chat Response
// =============================================================================

// ChatResponse is the success body for POST /chat.
//
// # Fields
//
//   - Success: Always true on this shape; failures use ErrorResponse.
//   - Response: The assistant's final answer text.
//   - SessionID: Echo of the request session.
//   - Timestamp: Epoch milliseconds at response construction.
type ChatResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
}

// NewChatResponse builds a success response stamped with the current time.
func NewChatResponse(answer, sessionID string) *ChatResponse {
	return &ChatResponse{
		Success:   true,
		Response:  answer,
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ErrorResponse is the error body for every failed request. The message is
// a sanitized summary; raw collaborator errors stay in the logs.
type ErrorResponse struct {
	Error string `json:"error"`
}
