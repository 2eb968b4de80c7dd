// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package turn

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianChat/services/chat/datatypes"
	"github.com/AleutianAI/AleutianChat/services/chat/observability"
	"github.com/AleutianAI/AleutianChat/services/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// tracer is the OpenTelemetry tracer for turn processor operations.
var tracer = otel.Tracer("aleutianchat.chat.turn")

// DefaultHistoryWindow is how many prior turns feed the transcript.
const DefaultHistoryWindow = 5

// =============================================================================
// Configuration
// =============================================================================

// Config holds the turn processor's behavioral knobs. Collaborator clients
// are injected separately; this is content and policy only.
//
// # Fields
//
//   - AuthToken: Required. The shared secret every request must present.
//   - SystemPrompt: The persona preamble. The subject domain is a content
//     choice, so it is configuration rather than hardcoded behavior.
//   - HistoryWindow: Prior turns loaded per request. Default 5.
//   - MaxSteps: Reasoning loop safety cap. Default 10.
//   - EnableFeedback: Declares the feedback capability to the loop.
type Config struct {
	AuthToken      string
	SystemPrompt   string
	HistoryWindow  int
	MaxSteps       int
	EnableFeedback bool
}

// =============================================================================
// Processor
// =============================================================================

// Processor executes one conversational turn end-to-end.
//
// # Description
//
// Process runs the four pipeline steps strictly in order: validate,
// load history, reason, persist. Any step's failure aborts the request
// with a typed error; nothing proceeds on partial data and a write
// failure is never masked by a successful answer.
//
// # Thread Safety
//
// Safe for concurrent use; all fields are read-only after New.
type Processor struct {
	store   MessageStore
	loop    *Loop
	config  Config
	metrics *observability.ChatMetrics
}

// New creates a Processor with the given collaborators.
//
// # Inputs
//
//   - cfg: Behavioral configuration. Zero window/cap values use defaults.
//   - store: Session-scoped row store. Must not be nil.
//   - insights: Aggregate insights store. Must not be nil.
//   - searcher: Semantic-index collaborator. Must not be nil.
//   - llmClient: Reasoning/generation collaborator. Must not be nil.
//   - metrics: Prometheus metrics. May be nil to disable recording.
func New(
	cfg Config,
	store MessageStore,
	insights InsightStore,
	searcher PassageSearcher,
	llmClient llm.LLMClient,
	metrics *observability.ChatMetrics,
) *Processor {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}

	capabilities := []Capability{
		NewInsightsCapability(insights),
		NewSemanticLookupCapability(searcher),
	}
	if cfg.EnableFeedback {
		capabilities = append(capabilities, NewFeedbackCapability(insights))
	}

	return &Processor{
		store:   store,
		loop:    NewLoop(llmClient, NewRegistry(capabilities...), cfg.MaxSteps),
		config:  cfg,
		metrics: metrics,
	}
}

// Process handles one chat request end-to-end.
//
// # Description
//
// Steps:
//  1. Validate request shape, then the shared-secret credential. Both
//     reject before any collaborator call.
//  2. Load the last HistoryWindow turns, oldest-first, and render the
//     transcript. A read failure aborts the request.
//  3. Drive the reasoning loop to a final answer.
//  4. Append the user and assistant turns as one batch. A write failure
//     aborts the request; the answer is not reported as persisted.
//
// # Inputs
//
//   - ctx: Should carry the per-request wall-clock deadline.
//   - req: The bound chat request. Not mutated.
//
// # Outputs
//
//   - *datatypes.ChatResponse: Success shape with the answer and a fresh
//     epoch-millisecond timestamp.
//   - error: One of the typed errors in this package.
func (p *Processor) Process(ctx context.Context, req *datatypes.ChatRequest) (*datatypes.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "Processor.Process")
	defer span.End()
	started := time.Now()

	// Step 1: request shape, then credential.
	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, p.fail(&InvalidRequestError{Reason: "message and sessionId are required"}, started)
	}
	if subtle.ConstantTimeCompare([]byte(req.AuthToken), []byte(p.config.AuthToken)) != 1 {
		span.SetStatus(codes.Error, "credential mismatch")
		return nil, p.fail(&UnauthorizedError{}, started)
	}

	span.SetAttributes(attribute.String("session.id", req.SessionID))
	slog.Info("Processing chat turn", "sessionId", req.SessionID)

	// Step 2: history.
	history, err := p.store.ListRecent(ctx, req.SessionID, p.config.HistoryWindow)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history load failed")
		return nil, p.fail(&StoreReadError{Op: "list_recent", Err: err}, started)
	}
	transcript := RenderTranscript(history)

	// Step 3: reasoning loop.
	answer, invocations, err := p.loop.Run(ctx, p.config.SystemPrompt, transcript, req.Message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reasoning failed")
		return nil, p.fail(err, started)
	}
	p.recordInvocations(invocations)
	span.SetAttributes(attribute.Int("turn.invocations", len(invocations)))

	// Step 4: persist the pair.
	if err := p.store.AppendTurnPair(ctx, req.SessionID, req.Message, answer); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return nil, p.fail(wrapWrite(err), started)
	}

	if p.metrics != nil {
		p.metrics.RecordTurn(observability.StatusSuccess, time.Since(started), len(invocations))
	}

	slog.Info("Chat turn completed",
		"sessionId", req.SessionID,
		"historyTurns", len(history),
		"capabilityCalls", len(invocations),
		"duration", time.Since(started),
	)
	return datatypes.NewChatResponse(answer, req.SessionID), nil
}

// fail records the failed turn in metrics and passes the error through.
func (p *Processor) fail(err error, started time.Time) error {
	if p.metrics != nil {
		p.metrics.RecordTurn(errorStatus(err), time.Since(started), 0)
	}
	return err
}

// errorStatus maps a typed pipeline error to its metrics status label.
func errorStatus(err error) string {
	switch {
	case IsInvalidRequest(err):
		return "invalid_request"
	case IsUnauthorized(err):
		return "unauthorized"
	case IsStoreRead(err):
		return "store_read_error"
	case IsStoreWrite(err):
		return "store_write_error"
	case IsUpstreamTimeout(err):
		return "upstream_timeout"
	case IsLoopExceeded(err):
		return "loop_exceeded"
	default:
		return "upstream_error"
	}
}

// recordInvocations publishes per-capability counters.
func (p *Processor) recordInvocations(invocations []ToolInvocation) {
	if p.metrics == nil {
		return
	}
	for _, inv := range invocations {
		p.metrics.RecordCapability(inv.Capability)
	}
}

// wrapWrite keeps an already-typed write error intact and wraps raw store
// failures, distinguishing wall-clock expiry.
func wrapWrite(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamTimeoutError{Op: "append_turn_pair", Err: err}
	}
	return &StoreWriteError{Op: "append_turn_pair", Err: err}
}
