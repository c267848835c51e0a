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
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Config configures pipeline construction.
//
// The config is immutable after NewPipeline returns; thresholds and
// policies are never read from ambient global state at call time.
type Config struct {
	// Policy classifies reason codes. Nil uses DefaultCriticalityPolicy.
	Policy *CriticalityPolicy

	// ScoreSource names the validator whose Score feeds the classifier.
	ScoreSource string

	// Logger for pipeline and executor logs. Nil uses slog.Default().
	Logger *slog.Logger
}

// Pipeline is the validation and trust-decision pipeline.
//
// Thread Safety:
//
//	Safe for concurrent use. All per-run state lives on the Validate
//	call stack; plans, registry, and policy are read-only after
//	construction.
type Pipeline struct {
	registry   *Registry
	executor   *Executor
	policy     *CriticalityPolicy
	fallback   *FallbackSelector
	classifier *EpistemicClassifier
	logger     *slog.Logger

	// basePlan excludes conditional validators; fullPlan includes them.
	// Both are pure functions of the static specs, computed once here.
	basePlan *Plan
	fullPlan *Plan
}

// NewPipeline builds a pipeline over a validator registry.
//
// Description:
//
//	Precomputes both execution plans (with and without conditional
//	validators) and fails permanently on any configuration fault: a
//	cyclic dependency, an unknown dependency name, or a duplicate
//	validator. A pipeline that fails to construct must not serve
//	requests.
//
// Inputs:
//
//	registry - The validator registry. Must not be nil or empty.
//	cfg - Pipeline configuration. Zero value uses defaults.
//
// Outputs:
//
//	*Pipeline - The ready pipeline.
//	error - Non-nil on configuration faults.
func NewPipeline(registry *Registry, cfg Config) (*Pipeline, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, ErrNoValidators
	}
	if cfg.Policy == nil {
		cfg.Policy = DefaultCriticalityPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	fullPlan, err := NewPlan(registry.Specs())
	if err != nil {
		return nil, err
	}

	basePlan := fullPlan
	if base := registry.UnconditionalSpecs(); len(base) != registry.Len() {
		basePlan, err = NewPlan(base)
		if err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		registry:   registry,
		executor:   NewExecutor(registry, cfg.Logger),
		policy:     cfg.Policy,
		fallback:   NewFallbackSelector(),
		classifier: NewEpistemicClassifier(cfg.ScoreSource),
		logger:     cfg.Logger,
		basePlan:   basePlan,
		fullPlan:   fullPlan,
	}, nil
}

// Policy returns the pipeline's criticality policy.
func (p *Pipeline) Policy() *CriticalityPolicy {
	return p.policy
}

// Plan returns the execution plan used for the given flags.
func (p *Pipeline) Plan(flags InputFlags) *Plan {
	if flags.IsPhilosophical {
		return p.fullPlan
	}
	return p.basePlan
}

// Validate runs the full pipeline over one input.
//
// Description:
//
//	Executes all phases, folds the results into an aggregate decision,
//	substitutes the safe fallback on critical failure, and labels the
//	served answer. Terminates within the sum of per-phase timeouts.
//	Never returns an error for validator misbehavior — runtime faults
//	degrade to synthetic failing results; the only errors are nil
//	arguments.
//
// Inputs:
//
//	ctx - Context for the run. Must not be nil.
//	input - The candidate answer and its evidence. Must not be nil.
//	        Never mutated.
//
// Outputs:
//
//	*Outcome - Final answer, confidence, trust label, reason codes,
//	           per-phase results, and the run's trace id.
//	error - ErrNilContext or ErrNilInput only.
func (p *Pipeline) Validate(ctx context.Context, input *ValidationInput) (*Outcome, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if input == nil {
		return nil, ErrNilInput
	}

	initMetrics(p.logger)
	traceID := uuid.NewString()
	plan := p.Plan(input.Flags)

	ctx, span := tracer.Start(ctx, "pipeline.Validate",
		trace.WithAttributes(
			attribute.String("pipeline.run_id", traceID),
			attribute.Int("pipeline.phases", plan.Len()),
			attribute.Int("pipeline.evidence_count", len(input.Evidence)),
			attribute.Bool("pipeline.philosophical", input.Flags.IsPhilosophical),
		),
	)
	defer span.End()

	start := time.Now()
	p.logger.Info("validation started",
		slog.String("trace_id", traceID),
		slog.Int("phases", plan.Len()),
		slog.Int("evidence_count", len(input.Evidence)),
	)

	phases := p.executor.Run(ctx, plan, input, traceID)
	decision := Aggregate(input, phases, p.policy)

	finalAnswer := decision.FinalAnswer
	if decision.CriticalFailure {
		finalAnswer = p.fallback.Select(decision, p.policy)
		if fallbacksServed != nil {
			fallbacksServed.Add(ctx, 1)
		}
		if criticalFailures != nil {
			criticalFailures.Add(ctx, 1)
		}
	} else if finalAnswer != input.Answer {
		if patchesApplied != nil {
			patchesApplied.Add(ctx, 1)
		}
	}
	if !decision.AllPassed && !decision.CriticalFailure {
		if advisoryFailures != nil {
			advisoryFailures.Add(ctx, 1)
		}
	}

	state, confidence := p.classifier.Classify(
		decision, p.policy, len(input.Evidence), CountCitations(finalAnswer))

	elapsed := time.Since(start)
	if runsTotal != nil {
		runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("critical", decision.CriticalFailure)))
	}
	if runLatency != nil {
		runLatency.Record(ctx, elapsed.Seconds())
	}
	if confidenceHistogram != nil {
		confidenceHistogram.Record(ctx, confidence)
	}
	if epistemicStates != nil {
		epistemicStates.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(state))))
	}

	if decision.CriticalFailure {
		span.SetStatus(codes.Error, "critical validation failure")
		p.logger.Warn("validation blocked",
			slog.String("trace_id", traceID),
			slog.Any("reason_codes", decision.ReasonCodes),
			slog.Duration("elapsed", elapsed),
		)
	} else {
		span.SetStatus(codes.Ok, "")
		p.logger.Info("validation completed",
			slog.String("trace_id", traceID),
			slog.String("epistemic_state", string(state)),
			slog.Float64("confidence", confidence),
			slog.Duration("elapsed", elapsed),
		)
	}
	span.SetAttributes(
		attribute.String("pipeline.epistemic_state", string(state)),
		attribute.Float64("pipeline.confidence", confidence),
		attribute.Bool("pipeline.critical_failure", decision.CriticalFailure),
	)

	return &Outcome{
		TraceID:         traceID,
		FinalAnswer:     finalAnswer,
		Confidence:      confidence,
		EpistemicState:  state,
		CriticalFailure: decision.CriticalFailure,
		ReasonCodes:     decision.ReasonCodes,
		Phases:          phases,
		Elapsed:         elapsed,
	}, nil
}
