// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package chat provides the core chat service for AleutianChat.
//
// This package contains the main Service type that coordinates all
// components of the service: HTTP routing, the LLM client, the Postgres
// row store, the Weaviate semantic index, and observability
// infrastructure. Collaborator clients are constructed once at startup
// and injected into the turn processor; nothing is referenced through
// globals.
//
// # Usage
//
//	cfg, err := chat.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := chat.New(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianChat/services/chat/observability"
	"github.com/AleutianAI/AleutianChat/services/chat/retrieval"
	"github.com/AleutianAI/AleutianChat/services/chat/routes"
	"github.com/AleutianAI/AleutianChat/services/chat/store"
	"github.com/AleutianAI/AleutianChat/services/chat/turn"
	"github.com/AleutianAI/AleutianChat/services/llm"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the chat service.
//
// # Description
//
// Service abstracts the service lifecycle, enabling testing and
// alternative implementations. Run() blocks and should only be called
// once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing. Callers must
	// not modify routes after construction.
	Router() *gin.Engine
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config        Config
	router        *gin.Engine
	database      *store.Database
	processor     *turn.Processor
	tracerCleanup func(context.Context)
}

// Compile-time interface compliance.
var _ Service = (*service)(nil)

// New creates a new chat Service with the given configuration.
//
// # Description
//
// New initializes all components in dependency order:
//  1. Prometheus metrics (when enabled)
//  2. OpenTelemetry tracing (when an OTLP endpoint is configured)
//  3. The OpenAI client (reasoning and embeddings)
//  4. The Weaviate client for the passage index
//  5. The Postgres row store (with migration)
//  6. The turn processor and HTTP router
//
// Configuration must already be validated; use LoadConfig. Collaborators
// are stateless HTTP clients, so no teardown beyond the tracer flush is
// needed.
//
// # Inputs
//
//   - ctx: Bounds store migration and tracer setup.
//   - cfg: Validated service configuration.
//
// # Outputs
//
//   - Service: Ready-to-run chat service.
//   - error: Non-nil if any collaborator fails to initialize.
func New(ctx context.Context, cfg Config) (Service, error) {
	s := &service{config: cfg}

	var metrics *observability.ChatMetrics
	if cfg.EnableMetrics {
		metrics = observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for chat turns")
	}

	if cfg.OTelEndpoint != "" {
		cleanup, err := s.initTracer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	openaiClient, err := llm.NewOpenAIClient()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}

	weaviateClient, err := retrieval.NewClient(cfg.WeaviateURL)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize Weaviate client: %w", err)
	}
	searcher := retrieval.NewWeaviateSearcher(weaviateClient, openaiClient, cfg.WeaviateClass)

	s.database, err = store.NewDatabase(ctx, cfg.Store)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize row store: %w", err)
	}

	s.processor = turn.New(
		turn.Config{
			AuthToken:      cfg.AuthToken,
			SystemPrompt:   cfg.SystemPrompt,
			HistoryWindow:  cfg.HistoryWindow,
			MaxSteps:       cfg.MaxSteps,
			EnableFeedback: cfg.EnableFeedback,
		},
		s.database,
		s.database,
		searcher,
		openaiClient,
		metrics,
	)

	s.initRouter()
	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting chat server", "port", s.config.Port)
	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// initTracer initializes OpenTelemetry distributed tracing with an OTLP
// gRPC exporter. Uses an insecure connection, appropriate for internal
// networks.
func (s *service) initTracer(ctx context.Context) (func(context.Context), error) {
	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("chat-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}
	return cleanup, nil
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	if s.config.OTelEndpoint != "" {
		s.router.Use(otelgin.Middleware("chat-service"))
	}

	routes.SetupRoutes(s.router, s.processor, s.database, s.config.RequestTimeout, s.config.EnableMetrics)
}

// cleanup releases resources held by the service.
func (s *service) cleanup() {
	if s.database != nil {
		s.database.Close()
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
