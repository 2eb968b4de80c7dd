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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AleutianAI/AleutianChat/services/chat/datatypes"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistoryRouter(store *stubStore) *gin.Engine {
	router := gin.New()
	router.GET("/v1/sessions/:sessionId/history", GetSessionHistory(store))
	return router
}

func getHistory(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetSessionHistory_ReturnsTurns(t *testing.T) {
	// Arrange
	store := &stubStore{history: []datatypes.Turn{
		{SessionID: "s1", Role: datatypes.RoleUser, Content: "hi"},
		{SessionID: "s1", Role: datatypes.RoleAssistant, Content: "hello"},
	}}
	router := newHistoryRouter(store)

	// Act
	w := getHistory(router, "/v1/sessions/s1/history")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		SessionID string           `json:"session_id"`
		Turns     []datatypes.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	require.Len(t, resp.Turns, 2)
	assert.Equal(t, "hi", resp.Turns[0].Content)
}

func TestGetSessionHistory_InvalidLimit(t *testing.T) {
	router := newHistoryRouter(&stubStore{})

	for _, path := range []string{
		"/v1/sessions/s1/history?limit=abc",
		"/v1/sessions/s1/history?limit=0",
		"/v1/sessions/s1/history?limit=-5",
	} {
		w := getHistory(router, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestGetSessionHistory_StoreFailure(t *testing.T) {
	router := newHistoryRouter(&stubStore{listErr: errors.New("connection reset")})

	w := getHistory(router, "/v1/sessions/s1/history")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthCheck(t *testing.T) {
	router := gin.New()
	router.GET("/health", HealthCheck)

	w := getHistory(router, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}
