// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the chat service.
//
// # Description
//
// Metrics cover the turn pipeline: request counters by outcome, turn
// duration, reasoning depth, and capability invocation counters. They are
// exposed on the /metrics endpoint for Prometheus scraping.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace and subsystem for all chat metrics.
const (
	metricsNamespace = "aleutianchat"
	chatSubsystem    = "turn"
)

// StatusSuccess labels a completed turn. Failure labels are derived from
// the pipeline's typed errors.
const StatusSuccess = "success"

// ChatMetrics holds all Prometheus metrics for the turn pipeline.
//
// # Fields
//
//   - TurnsTotal: Counter of turns by outcome status.
//   - TurnDurationSeconds: Histogram of end-to-end turn latency by status.
//   - ReasoningSteps: Histogram of capability invocations per turn.
//   - CapabilityInvocationsTotal: Counter of invocations by capability.
//
// # Thread Safety
//
// All operations are thread-safe.
type ChatMetrics struct {
	// TurnsTotal counts processed turns.
	// Labels: status (success, invalid_request, unauthorized, ...)
	TurnsTotal *prometheus.CounterVec

	// TurnDurationSeconds measures end-to-end turn latency.
	// Labels: status
	TurnDurationSeconds *prometheus.HistogramVec

	// ReasoningSteps measures capability invocations per successful turn.
	ReasoningSteps prometheus.Histogram

	// CapabilityInvocationsTotal counts invocations by capability name.
	// Labels: capability (insights, semantic_lookup, feedback)
	CapabilityInvocationsTotal *prometheus.CounterVec
}

// InitMetrics registers and returns the chat metrics. Call once at startup;
// promauto panics on duplicate registration.
func InitMetrics() *ChatMetrics {
	return &ChatMetrics{
		TurnsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "turns_total",
				Help:      "Chat turns processed, by outcome status.",
			},
			[]string{"status"},
		),
		TurnDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "duration_seconds",
				Help:      "End-to-end turn latency.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"status"},
		),
		ReasoningSteps: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "reasoning_steps",
				Help:      "Capability invocations per successful turn.",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
			},
		),
		CapabilityInvocationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "capability_invocations_total",
				Help:      "Capability invocations requested by the reasoning loop.",
			},
			[]string{"capability"},
		),
	}
}

// RecordTurn records one completed or failed turn.
func (m *ChatMetrics) RecordTurn(status string, duration time.Duration, steps int) {
	m.TurnsTotal.WithLabelValues(status).Inc()
	m.TurnDurationSeconds.WithLabelValues(status).Observe(duration.Seconds())
	if status == StatusSuccess {
		m.ReasoningSteps.Observe(float64(steps))
	}
}

// RecordCapability records one capability invocation.
func (m *ChatMetrics) RecordCapability(name string) {
	m.CapabilityInvocationsTotal.WithLabelValues(name).Inc()
}
