// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets every required variable so individual tests can
// unset one at a time.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CHAT_AUTH_TOKEN", "secret")
	t.Setenv("WEAVIATE_SERVICE_URL", "http://weaviate:8080")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "chat")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "chatdb")
}

func TestLoadConfig_Defaults(t *testing.T) {
	// Arrange
	setRequiredEnv(t)

	// Act
	cfg, err := LoadConfig()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "secret", cfg.AuthToken)
	assert.Equal(t, 5, cfg.HistoryWindow)
	assert.Equal(t, 10, cfg.MaxSteps)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.EnableFeedback)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, "Passage", cfg.WeaviateClass)
	assert.Equal(t, "5432", cfg.Store.Port)
}

func TestLoadConfig_Overrides(t *testing.T) {
	// Arrange
	setRequiredEnv(t)
	t.Setenv("CHAT_PORT", "9000")
	t.Setenv("CHAT_HISTORY_WINDOW", "8")
	t.Setenv("CHAT_MAX_REASONING_STEPS", "4")
	t.Setenv("CHAT_REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("CHAT_ENABLE_FEEDBACK", "true")
	t.Setenv("WEAVIATE_CLASS", "GrammarPassage")
	t.Setenv("DB_PORT", "5433")

	// Act
	cfg, err := LoadConfig()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 8, cfg.HistoryWindow)
	assert.Equal(t, 4, cfg.MaxSteps)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.EnableFeedback)
	assert.Equal(t, "GrammarPassage", cfg.WeaviateClass)
	assert.Equal(t, "5433", cfg.Store.Port)
}

func TestLoadConfig_ReportsAllMissingVariables(t *testing.T) {
	// Arrange: only some required variables set.
	setRequiredEnv(t)
	t.Setenv("CHAT_AUTH_TOKEN", "")
	t.Setenv("DB_PASSWORD", "")

	// Act
	_, err := LoadConfig()

	// Assert: one pass reports every missing variable, not just the first.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHAT_AUTH_TOKEN")
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}
