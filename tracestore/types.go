// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tracestore records and serves pipeline run traces.
//
// A trace is the durable, queryable record of one validation run: every
// phase's validator results plus the final decision. Traces are
// immutable once written and expire after a retention window; lookups
// past the window fail with ErrTraceNotFound. Two recorders are
// provided: an embedded BadgerDB store for persistence across restarts
// and an in-memory store for tests and single-process deployments.
package tracestore

import (
	"context"
	"errors"
	"time"

	"github.com/VeracityAI/veracity/pipeline"
)

// ErrTraceNotFound is returned when a trace id is unknown or expired.
var ErrTraceNotFound = errors.New("trace not found")

// DefaultRetention is how long a trace stays queryable.
const DefaultRetention = 24 * time.Hour

// excerptLimit bounds the final answer excerpt stored in a trace.
const excerptLimit = 240

// PhaseTrace is one phase's results within a trace.
type PhaseTrace struct {
	// PhaseIndex is the phase's position in the plan.
	PhaseIndex int `json:"phase_index"`

	// Results are the validator results of the phase, in spec order.
	Results []pipeline.ValidationResult `json:"results"`
}

// FinalTrace is the decision summary of a completed run.
type FinalTrace struct {
	// Confidence is the calibrated confidence served to the caller.
	Confidence float64 `json:"confidence"`

	// EpistemicState is the trust label served to the caller.
	EpistemicState pipeline.EpistemicState `json:"epistemic_state"`

	// CriticalFailure reports whether a fallback was substituted.
	CriticalFailure bool `json:"critical_failure"`

	// FinalAnswerExcerpt is a bounded prefix of the served answer.
	FinalAnswerExcerpt string `json:"final_answer_excerpt"`

	// ReasonCodes are the run's aggregated reason codes.
	ReasonCodes []string `json:"reason_codes,omitempty"`
}

// Trace is the full record of one pipeline run. Immutable after the
// run completes; owned exclusively by its Recorder.
type Trace struct {
	// TraceID identifies the run.
	TraceID string `json:"trace_id"`

	// CreatedAt is when the run started.
	CreatedAt time.Time `json:"created_at"`

	// Phases holds every phase's validator results, in execution order.
	Phases []PhaseTrace `json:"phases"`

	// Final is the run's decision summary.
	Final FinalTrace `json:"final"`

	// Elapsed is the total run duration.
	Elapsed time.Duration `json:"elapsed"`
}

// NewTrace builds the trace record for a finished run.
func NewTrace(outcome *pipeline.Outcome, createdAt time.Time) *Trace {
	phases := make([]PhaseTrace, 0, len(outcome.Phases))
	for i, results := range outcome.Phases {
		phases = append(phases, PhaseTrace{PhaseIndex: i, Results: results})
	}

	excerpt := outcome.FinalAnswer
	if len(excerpt) > excerptLimit {
		excerpt = excerpt[:excerptLimit]
	}

	return &Trace{
		TraceID:   outcome.TraceID,
		CreatedAt: createdAt,
		Phases:    phases,
		Final: FinalTrace{
			Confidence:         outcome.Confidence,
			EpistemicState:     outcome.EpistemicState,
			CriticalFailure:    outcome.CriticalFailure,
			FinalAnswerExcerpt: excerpt,
			ReasonCodes:        outcome.ReasonCodes,
		},
		Elapsed: outcome.Elapsed,
	}
}

// Recorder stores traces for the retention window and serves lookups.
//
// Implementations must be safe for concurrent use. Put never blocks the
// pipeline's answer path for long: recorders are expected to be local
// (embedded or in-memory), not remote services.
type Recorder interface {
	// Put stores a completed trace under its id.
	Put(ctx context.Context, trace *Trace) error

	// Get returns the trace for an id, or ErrTraceNotFound when the id
	// is unknown or the trace has expired.
	Get(ctx context.Context, traceID string) (*Trace, error)

	// Close releases the recorder's resources.
	Close() error
}
