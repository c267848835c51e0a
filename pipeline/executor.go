// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Executor runs a plan phase by phase with per-validator isolation.
//
// Description:
//
//	Phases execute strictly sequentially; validators inside a phase run
//	one goroutine each, bounded by their declared timeout. A validator
//	that panics or exceeds its timeout is degraded to a synthetic failing
//	result (reason code "error:<name>" or "timeout:<name>") and never
//	aborts its siblings or the run. Results of a phase are collected in
//	full before the next phase starts (collect-all-then-fold), so a
//	validator only ever observes results from strictly earlier phases.
//
// Thread Safety:
//
//	Executor is safe for concurrent use; all per-run state is local to
//	the Run call.
type Executor struct {
	registry *Registry
	logger   *slog.Logger
}

// NewExecutor creates an executor over a validator registry.
//
// Inputs:
//
//	registry - Resolves spec names to validators. Must not be nil.
//	logger - Logger for execution logs. If nil, uses slog.Default().
func NewExecutor(registry *Registry, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{registry: registry, logger: logger}
}

// Run executes every phase of the plan against one input.
//
// Inputs:
//
//	ctx - Context for the run. Cancellation stops scheduling new phases;
//	      validators already in flight still degrade cleanly.
//	plan - The precomputed execution plan.
//	input - The immutable validation input.
//	runID - Identifier used for logging and span attributes.
//
// Outputs:
//
//	[][]ValidationResult - One slice per phase, in phase spec order.
//	Always complete: every scheduled validator contributes exactly one
//	result, synthetic or real.
func (e *Executor) Run(ctx context.Context, plan *Plan, input *ValidationInput, runID string) [][]ValidationResult {
	initMetrics(e.logger)

	phases := make([][]ValidationResult, 0, plan.Len())
	prior := PriorResults{
		results:         make(map[string]ValidationResult, plan.ValidatorCount()),
		effectiveAnswer: input.Answer,
	}

	for _, phase := range plan.Phases() {
		results := e.runPhase(ctx, phase, input, prior, runID)
		phases = append(phases, results)

		// Fold the completed phase into the prior view for later phases.
		for _, r := range results {
			prior.results[r.ValidatorName] = r
			if r.PatchedAnswer != "" {
				prior.effectiveAnswer = r.PatchedAnswer
			}
		}
	}

	return phases
}

// runPhase runs all validators of one phase concurrently and waits for
// every slot to be filled.
func (e *Executor) runPhase(ctx context.Context, phase Phase, input *ValidationInput, prior PriorResults, runID string) []ValidationResult {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("pipeline.Phase%d", phase.Index),
		trace.WithAttributes(
			attribute.Int("pipeline.phase", phase.Index),
			attribute.Int("pipeline.validators", len(phase.Specs)),
			attribute.String("pipeline.run_id", runID),
		),
	)
	defer span.End()

	results := make([]ValidationResult, len(phase.Specs))
	var wg sync.WaitGroup
	for i, spec := range phase.Specs {
		wg.Add(1)
		go func(slot int, spec ValidatorSpec) {
			defer wg.Done()
			results[slot] = e.evaluateOne(ctx, spec, input, prior, runID)
		}(i, spec)
	}
	wg.Wait()

	return results
}

// evaluateOne runs a single validator with timeout and panic isolation.
func (e *Executor) evaluateOne(ctx context.Context, spec ValidatorSpec, input *ValidationInput, prior PriorResults, runID string) ValidationResult {
	ctx, span := tracer.Start(ctx, spec.Name,
		trace.WithAttributes(
			attribute.String("validator.name", spec.Name),
			attribute.String("validator.priority", spec.Priority.String()),
			attribute.StringSlice("validator.depends_on", spec.DependsOn),
			attribute.String("pipeline.run_id", runID),
		),
	)
	defer span.End()

	validator, ok := e.registry.Get(spec.Name)
	if !ok {
		// Unreachable with a registry-derived plan; degrade anyway.
		return syntheticFailure(spec.Name, "error:"+spec.Name, 0)
	}

	timeout := spec.EffectiveTimeout()
	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resultCh := make(chan ValidationResult, 1)

	// The inner goroutine decouples a hung validator from the phase
	// barrier: on timeout the slot is filled with a synthetic result and
	// the phase proceeds without it.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("validator panicked",
					slog.String("validator", spec.Name),
					slog.String("run_id", runID),
					slog.Any("panic", r),
				)
				if validatorPanics != nil {
					validatorPanics.Add(ctx, 1, metric.WithAttributes(attribute.String("validator", spec.Name)))
				}
				resultCh <- syntheticFailure(spec.Name, "error:"+spec.Name, time.Since(start))
			}
		}()
		resultCh <- validator.Evaluate(vctx, input, prior)
	}()

	var result ValidationResult
	select {
	case result = <-resultCh:
		result.ValidatorName = spec.Name
		if result.Elapsed == 0 {
			result.Elapsed = time.Since(start)
		}
	case <-vctx.Done():
		elapsed := time.Since(start)
		e.logger.Warn("validator timed out",
			slog.String("validator", spec.Name),
			slog.String("run_id", runID),
			slog.Duration("timeout", timeout),
		)
		if validatorTimeouts != nil {
			validatorTimeouts.Add(ctx, 1, metric.WithAttributes(attribute.String("validator", spec.Name)))
		}
		result = syntheticFailure(spec.Name, "timeout:"+spec.Name, elapsed)
	}

	if validatorLatency != nil {
		validatorLatency.Record(ctx, result.Elapsed.Seconds(),
			metric.WithAttributes(attribute.String("validator", spec.Name)),
		)
	}

	if result.Passed {
		span.SetStatus(codes.Ok, "")
		e.logger.Debug("validator passed",
			slog.String("validator", spec.Name),
			slog.String("run_id", runID),
			slog.Duration("elapsed", result.Elapsed),
		)
		return result
	}

	if validatorFailures != nil {
		validatorFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("validator", spec.Name)))
	}
	span.SetStatus(codes.Error, "validator failed")
	span.SetAttributes(attribute.StringSlice("validator.reason_codes", result.ReasonCodes))
	e.logger.Warn("validator failed",
		slog.String("validator", spec.Name),
		slog.String("run_id", runID),
		slog.Any("reason_codes", result.ReasonCodes),
		slog.Duration("elapsed", result.Elapsed),
	)
	return result
}

// syntheticFailure builds the degraded result for a faulted validator.
func syntheticFailure(name, code string, elapsed time.Duration) ValidationResult {
	return ValidationResult{
		ValidatorName: name,
		Passed:        false,
		ReasonCodes:   []string{code},
		Elapsed:       elapsed,
	}
}
