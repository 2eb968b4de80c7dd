// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP request helpers for the chat service.
//
// # Description
//
// The chat contract carries the shared-secret credential in the request
// body, but clients behind standard HTTP tooling often send it as a
// bearer header instead. ResolveToken accepts both, body value winning.
// The comparison itself happens in the turn processor, in constant time.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ResolveToken returns the credential for the request: the body token when
// present, otherwise the Authorization bearer token.
func ResolveToken(c *gin.Context, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	return ExtractBearerToken(c)
}

// ExtractBearerToken extracts the token from the Authorization header.
//
// # Description
//
// Parses the Authorization header expecting format: "Bearer <token>".
// Returns empty string if the header is missing or malformed. The
// "Bearer" prefix is case-insensitive per RFC 7235.
//
// # Examples
//
//	// Header: "Authorization: Bearer abc123"
//	token := ExtractBearerToken(c)
//	// token == "abc123"
func ExtractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
