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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianChat/services/llm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultMaxSteps bounds the reasoning loop when no cap is configured.
const DefaultMaxSteps = 10

// Loop drives the bounded iterative reasoning over the LLM.
//
// # Description
//
// Each step sends the accumulated context to the LLM and parses the reply
// into a Decision. An Invoke runs the named capability and feeds its
// textual result back as an observation before the next step; a
// FinalAnswer terminates the loop. Exactly one LLM or capability call is
// in flight at any time.
//
// # Parse-Failure Policy
//
// An unparseable reply is retried exactly once, with a corrective reminder
// appended to the context; a second consecutive unparseable reply fails
// the request with an UpstreamError. The policy is deterministic: the
// retry consumes a step, and two failures in a row always abort.
//
// # Thread Safety
//
// Loop is immutable after construction and safe for concurrent use.
type Loop struct {
	llmClient llm.LLMClient
	registry  *Registry
	maxSteps  int
}

// NewLoop creates a reasoning loop over the given LLM and capabilities.
// A non-positive maxSteps falls back to DefaultMaxSteps.
func NewLoop(llmClient llm.LLMClient, registry *Registry, maxSteps int) *Loop {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Loop{
		llmClient: llmClient,
		registry:  registry,
		maxSteps:  maxSteps,
	}
}

// Run executes the loop until a final answer, the step cap, or a failure.
//
// # Inputs
//
//   - ctx: Carries the per-request deadline; every LLM and capability call
//     respects it.
//   - systemPrompt: The configured persona preamble.
//   - transcript: Rendered prior turns, oldest-first. May be empty.
//   - message: The new user message.
//
// # Outputs
//
//   - string: The final answer text.
//   - []ToolInvocation: The executed capability steps, for logging and
//     metrics. Discarded after the turn completes.
//   - error: UpstreamError, UpstreamTimeoutError, or
//     ReasoningLoopExceededError.
func (l *Loop) Run(ctx context.Context, systemPrompt, transcript, message string) (string, []ToolInvocation, error) {
	ctx, span := tracer.Start(ctx, "Loop.Run")
	defer span.End()

	prompt := l.buildPrompt(transcript, message)
	params := llm.GenerationParams{System: systemPrompt}

	var invocations []ToolInvocation
	parseFailed := false

	for step := 1; step <= l.maxSteps; step++ {
		output, err := l.llmClient.Generate(ctx, prompt, params)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generation failed")
			return "", invocations, wrapUpstream("generate", err)
		}

		decision, err := ParseDecision(output)
		if err != nil {
			if parseFailed {
				span.SetStatus(codes.Error, "unparseable reasoning output")
				return "", invocations, &UpstreamError{
					Op:  "parse",
					Err: fmt.Errorf("reasoning output unparseable after retry: %w", err),
				}
			}
			parseFailed = true
			slog.Warn("Unparseable reasoning output, retrying once", "step", step)
			prompt = prompt + "\n\n" + parseRetryReminder
			continue
		}
		parseFailed = false

		switch d := decision.(type) {
		case FinalAnswer:
			span.SetAttributes(
				attribute.Int("loop.steps", step),
				attribute.Int("loop.invocations", len(invocations)),
			)
			return d.Text, invocations, nil

		case Invoke:
			observation := l.invoke(ctx, d, &invocations)
			prompt = prompt + "\n\n" + output + "\n" + observation
		}
	}

	span.SetStatus(codes.Error, "step cap exceeded")
	return "", invocations, &ReasoningLoopExceededError{Steps: l.maxSteps}
}

// invoke runs one capability and returns the observation to feed back.
// Capability failures do not abort the loop immediately: the error text is
// surfaced to the model, which may rephrase or answer without the lookup.
// Context expiry is the exception; it aborts via the next Generate call.
func (l *Loop) invoke(ctx context.Context, d Invoke, invocations *[]ToolInvocation) string {
	capability, ok := l.registry.Lookup(d.Name)
	if !ok {
		slog.Warn("Model requested undeclared capability", "capability", d.Name)
		return FormatObservation(d.Name, false, "unknown tool, use one of the declared tools")
	}

	slog.Debug("Invoking capability", "capability", d.Name)
	result, err := capability.Run(ctx, d.Input)
	if err != nil {
		slog.Warn("Capability invocation failed", "capability", d.Name, "error", err)
		*invocations = append(*invocations, ToolInvocation{
			Capability: d.Name,
			Input:      d.Input,
			Output:     err.Error(),
		})
		return FormatObservation(d.Name, false, err.Error())
	}

	*invocations = append(*invocations, ToolInvocation{
		Capability: d.Name,
		Input:      d.Input,
		Output:     result,
	})
	return FormatObservation(d.Name, true, result)
}

// buildPrompt assembles the step-zero context: capability instructions,
// prior transcript, and the new user message.
func (l *Loop) buildPrompt(transcript, message string) string {
	var b strings.Builder
	b.WriteString(CapabilityInstructions(l.registry.List()))
	if transcript != "" {
		b.WriteString("\n## CONVERSATION SO FAR\n\n")
		b.WriteString(transcript)
		b.WriteString("\n")
	}
	b.WriteString("\nUser: ")
	b.WriteString(message)
	return b.String()
}

// wrapUpstream classifies a provider failure, separating wall-clock
// expiry from other upstream errors.
func wrapUpstream(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamTimeoutError{Op: op, Err: err}
	}
	return &UpstreamError{Op: op, Err: err}
}
