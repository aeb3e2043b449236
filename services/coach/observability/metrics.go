// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the coach
// engine. Metrics cover turn volume, safety escalations, validation
// rejections, step advancement, and turn latency, exposed via the
// /metrics endpoint.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

const metricsNamespace = "coachflux"

const coachSubsystem = "coach"

// CoachMetrics holds all Prometheus metrics for turn processing.
// Initialize once at startup via InitMetrics().
type CoachMetrics struct {
	// TurnsTotal counts processed turns.
	// Labels: framework, status (accepted, rejected, escalated, error)
	TurnsTotal *prometheus.CounterVec

	// SafetyEscalationsTotal counts safety classifications above safe.
	// Labels: level (anxiety, agitation, redundancy, severe, crisis)
	SafetyEscalationsTotal *prometheus.CounterVec

	// ValidationFailuresTotal counts rejected payloads by gate.
	// Labels: gate (conformance, structural), framework
	ValidationFailuresTotal *prometheus.CounterVec

	// StepAdvancesTotal counts step transitions.
	// Labels: framework, step
	StepAdvancesTotal *prometheus.CounterVec

	// SessionsClosedTotal counts closed sessions.
	// Labels: framework
	SessionsClosedTotal *prometheus.CounterVec

	// TurnDurationSeconds measures end-to-end turn latency.
	// Labels: framework, status
	TurnDurationSeconds *prometheus.HistogramVec

	// ActiveTurns tracks turns currently in flight.
	ActiveTurns prometheus.Gauge
}

// DefaultMetrics is the singleton instance of CoachMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *CoachMetrics

// InitMetrics creates and registers all metrics against the default
// registry. Call once at startup; calling twice panics on duplicate
// registration.
func InitMetrics() *CoachMetrics {
	DefaultMetrics = &CoachMetrics{
		TurnsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: coachSubsystem,
				Name:      "turns_total",
				Help:      "Total processed turns by framework and status",
			},
			[]string{"framework", "status"},
		),

		SafetyEscalationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: coachSubsystem,
				Name:      "safety_escalations_total",
				Help:      "Total safety classifications above safe, by level",
			},
			[]string{"level"},
		),

		ValidationFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: coachSubsystem,
				Name:      "validation_failures_total",
				Help:      "Total payloads rejected by gate and framework",
			},
			[]string{"gate", "framework"},
		),

		StepAdvancesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: coachSubsystem,
				Name:      "step_advances_total",
				Help:      "Total step transitions by framework and outgoing step",
			},
			[]string{"framework", "step"},
		),

		SessionsClosedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: coachSubsystem,
				Name:      "sessions_closed_total",
				Help:      "Total sessions closed by framework",
			},
			[]string{"framework"},
		),

		TurnDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: coachSubsystem,
				Name:      "turn_duration_seconds",
				Help:      "End-to-end turn latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"framework", "status"},
		),

		ActiveTurns: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: coachSubsystem,
				Name:      "active_turns",
				Help:      "Turns currently in flight",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Turn Statuses
// =============================================================================

// TurnStatus labels the outcome of a turn for metrics.
type TurnStatus string

const (
	// StatusAccepted indicates a turn processed normally.
	StatusAccepted TurnStatus = "accepted"

	// StatusRejected indicates a turn blocked by a validation gate.
	StatusRejected TurnStatus = "rejected"

	// StatusEscalated indicates a turn short-circuited by safety.
	StatusEscalated TurnStatus = "escalated"

	// StatusError indicates an internal failure.
	StatusError TurnStatus = "error"
)
