// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package veracity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/VeracityAI/veracity/pipeline"
	"github.com/VeracityAI/veracity/tracestore"
)

// Service runs validations and records their traces.
//
// Thread Safety: Safe for concurrent use.
type Service struct {
	pipeline *pipeline.Pipeline
	recorder tracestore.Recorder
	logger   *slog.Logger
}

// NewService creates the service.
//
// Inputs:
//
//	p - The constructed pipeline. Must not be nil.
//	recorder - Trace persistence. Must not be nil.
//	logger - Service logs. Nil uses slog.Default().
//
// Outputs:
//
//	*Service - The ready service.
//	error - ErrNilPipeline or ErrNilRecorder.
func NewService(p *pipeline.Pipeline, recorder tracestore.Recorder, logger *slog.Logger) (*Service, error) {
	if p == nil {
		return nil, ErrNilPipeline
	}
	if recorder == nil {
		return nil, ErrNilRecorder
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pipeline: p, recorder: recorder, logger: logger}, nil
}

// Validate runs one pipeline pass and records its trace.
//
// Description:
//
//	Delegates to the pipeline, then persists the trace record. Trace
//	persistence is best effort: a store failure is logged and the
//	outcome is still served, because the caller's answer must not
//	depend on storage health.
//
// Inputs:
//
//	ctx - Request context.
//	input - The candidate answer and evidence. Must not be nil.
//
// Outputs:
//
//	*pipeline.Outcome - The decision.
//	error - Only the pipeline's nil-argument errors.
func (s *Service) Validate(ctx context.Context, input *pipeline.ValidationInput) (*pipeline.Outcome, error) {
	started := time.Now()

	outcome, err := s.pipeline.Validate(ctx, input)
	if err != nil {
		return nil, err
	}

	trace := tracestore.NewTrace(outcome, started)
	if err := s.recorder.Put(ctx, trace); err != nil {
		s.logger.Warn("trace persistence failed",
			slog.String("trace_id", outcome.TraceID),
			slog.String("error", err.Error()),
		)
	}
	return outcome, nil
}

// GetTrace loads a recorded trace by id.
//
// Outputs:
//
//	*tracestore.Trace - The record.
//	error - ErrEmptyTraceID, tracestore.ErrTraceNotFound, or a store
//	        fault.
func (s *Service) GetTrace(ctx context.Context, traceID string) (*tracestore.Trace, error) {
	if traceID == "" {
		return nil, ErrEmptyTraceID
	}
	return s.recorder.Get(ctx, traceID)
}

// Stats summarizes the pipeline's static shape.
func (s *Service) Stats() StatsResponse {
	base := s.pipeline.Plan(pipeline.InputFlags{})
	full := s.pipeline.Plan(pipeline.InputFlags{IsPhilosophical: true})
	return StatsResponse{
		Validators:          full.ValidatorCount(),
		Phases:              base.Len(),
		PhasesPhilosophical: full.Len(),
		MaxDurationMs:       full.MaxDuration().Milliseconds(),
	}
}

// StoreOK reports whether the trace store answers a probe lookup.
// ErrTraceNotFound counts as healthy; any other fault does not.
func (s *Service) StoreOK(ctx context.Context) bool {
	_, err := s.recorder.Get(ctx, "readiness-probe")
	return err == nil || errors.Is(err, tracestore.ErrTraceNotFound)
}
