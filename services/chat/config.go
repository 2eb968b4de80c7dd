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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianChat/services/chat/handlers"
	"github.com/AleutianAI/AleutianChat/services/chat/retrieval"
	"github.com/AleutianAI/AleutianChat/services/chat/store"
	"github.com/AleutianAI/AleutianChat/services/chat/turn"
)

// DefaultPort is the HTTP port the chat server listens on when
// CHAT_PORT is not set.
const DefaultPort = 12310

// Config holds the chat service configuration.
//
// # Description
//
// Config is assembled from environment variables by LoadConfig. Fields
// without defaults are required; LoadConfig reports all missing
// variables at once so operators fix the environment in one pass
// rather than one crash at a time.
type Config struct {
	// Port is the HTTP server port.
	Port int

	// AuthToken is the shared secret callers must present on each
	// chat request.
	AuthToken string

	// SystemPrompt sets the assistant persona prepended to every
	// reasoning exchange. Empty uses the built-in default.
	SystemPrompt string

	// HistoryWindow is the number of prior turns loaded per request.
	HistoryWindow int

	// MaxSteps caps reasoning iterations per request.
	MaxSteps int

	// RequestTimeout bounds end-to-end processing of one chat request.
	RequestTimeout time.Duration

	// EnableFeedback registers the feedback capability with the
	// reasoning loop.
	EnableFeedback bool

	// EnableMetrics exposes Prometheus metrics on /metrics.
	EnableMetrics bool

	// WeaviateURL is the base URL of the Weaviate instance holding
	// the passage index.
	WeaviateURL string

	// WeaviateClass is the Weaviate class queried for semantic lookup.
	WeaviateClass string

	// Store holds Postgres connection settings.
	Store store.Config

	// OTelEndpoint is the OTLP gRPC collector address. Empty disables
	// tracing.
	OTelEndpoint string

	// GinMode overrides the Gin runtime mode (debug, release, test).
	GinMode string
}

// LoadConfig builds a Config from environment variables.
//
// # Description
//
// Required variables: CHAT_AUTH_TOKEN, WEAVIATE_SERVICE_URL, DB_HOST,
// DB_USER, DB_PASSWORD, DB_NAME. Every other variable has a default.
// OPENAI_API_KEY is also required but is validated by the OpenAI client
// at construction time, since it may arrive via container secret
// instead of the environment.
//
// # Outputs
//
//   - Config: Fully populated configuration.
//   - error: Non-nil listing every missing required variable.
func LoadConfig() (Config, error) {
	var missing []string
	requireEnv := func(key string) string {
		value := os.Getenv(key)
		if value == "" {
			missing = append(missing, key)
		}
		return value
	}

	cfg := Config{
		Port:           getEnvInt("CHAT_PORT", DefaultPort),
		AuthToken:      requireEnv("CHAT_AUTH_TOKEN"),
		SystemPrompt:   os.Getenv("SYSTEM_PROMPT"),
		HistoryWindow:  getEnvInt("CHAT_HISTORY_WINDOW", turn.DefaultHistoryWindow),
		MaxSteps:       getEnvInt("CHAT_MAX_REASONING_STEPS", turn.DefaultMaxSteps),
		RequestTimeout: time.Duration(getEnvInt("CHAT_REQUEST_TIMEOUT_SECONDS", int(handlers.DefaultRequestTimeout/time.Second))) * time.Second,
		EnableFeedback: getEnvBool("CHAT_ENABLE_FEEDBACK", false),
		EnableMetrics:  getEnvBool("CHAT_ENABLE_METRICS", true),
		WeaviateURL:    requireEnv("WEAVIATE_SERVICE_URL"),
		WeaviateClass:  getEnvString("WEAVIATE_CLASS", retrieval.DefaultClass),
		Store: store.Config{
			Host:     requireEnv("DB_HOST"),
			Port:     getEnvString("DB_PORT", "5432"),
			User:     requireEnv("DB_USER"),
			Password: requireEnv("DB_PASSWORD"),
			DBName:   requireEnv("DB_NAME"),
		},
		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		GinMode:      os.Getenv("GIN_MODE"),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s",
			strings.Join(missing, ", "))
	}
	return cfg, nil
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
