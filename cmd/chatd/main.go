// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command chatd starts the AleutianChat HTTP server.
//
// This is the main entry point for the containerized chat service. It
// reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
// Required:
//
//   - CHAT_AUTH_TOKEN: Shared secret callers present on each request
//   - OPENAI_API_KEY: OpenAI API key (or a mounted container secret)
//   - WEAVIATE_SERVICE_URL: Weaviate vector DB URL
//   - DB_HOST, DB_USER, DB_PASSWORD, DB_NAME: Postgres connection
//
// Optional:
//
//   - CHAT_PORT: HTTP server port (default: 12310)
//   - SYSTEM_PROMPT: Assistant persona override
//   - CHAT_HISTORY_WINDOW: Prior turns loaded per request (default: 5)
//   - CHAT_MAX_REASONING_STEPS: Reasoning loop cap (default: 10)
//   - CHAT_REQUEST_TIMEOUT_SECONDS: Per-request deadline (default: 120)
//   - CHAT_ENABLE_FEEDBACK: Register the feedback capability
//   - CHAT_ENABLE_METRICS: Expose /metrics (default: true)
//   - WEAVIATE_CLASS: Passage class name (default: Passage)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector address
//
// # Usage
//
//	# Build
//	go build -o chatd ./cmd/chatd
//
//	# Run
//	./chatd
//
//	# Or via container
//	podman-compose up chat
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/AleutianAI/AleutianChat/services/chat"
	"github.com/joho/godotenv"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Local development convenience; the file is absent in containers.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	cfg, err := chat.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	slog.Info("Starting chat service",
		"port", cfg.Port,
		"weaviate_url", cfg.WeaviateURL,
		"history_window", cfg.HistoryWindow,
		"max_reasoning_steps", cfg.MaxSteps,
	)

	svc, err := chat.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to create chat service: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Chat service error: %v", err)
	}
}
