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
	"time"
)

// Priority indicates how important a validator's verdict is.
type Priority int

const (
	// PriorityLowest is for purely informational validators.
	PriorityLowest Priority = iota

	// PriorityLow is for advisory style/quality validators.
	PriorityLow

	// PriorityNormal is the default priority.
	PriorityNormal

	// PriorityHigh is for validators whose failures strongly degrade trust.
	PriorityHigh

	// PriorityCritical is for validators that can block answer delivery.
	PriorityCritical
)

// String returns the string representation of Priority.
func (p Priority) String() string {
	switch p {
	case PriorityLowest:
		return "lowest"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// DefaultValidatorTimeout is the timeout for specs that don't declare one.
const DefaultValidatorTimeout = 5 * time.Second

// EvidenceDocument is one retrieved document the answer was grounded on.
type EvidenceDocument struct {
	// Text is the document content.
	Text string `json:"text"`

	// SourceID identifies the document's origin (URL, memory key, doc id).
	SourceID string `json:"source_id"`

	// Metadata carries retrieval-layer annotations (rank, score, tier).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// InputFlags carries per-request toggles supplied by the caller.
type InputFlags struct {
	// IsPhilosophical marks reflective, non-factual questions. When set,
	// the conditional PhilosophicalDepth validator is scheduled and the
	// confidence validator relaxes its uncertainty requirements.
	IsPhilosophical bool `json:"is_philosophical"`
}

// ValidationInput is the immutable input to one pipeline run.
//
// The caller owns it; validators may read it but never mutate it.
type ValidationInput struct {
	// Answer is the candidate answer produced by the model.
	Answer string `json:"answer"`

	// Question is the user question the answer responds to.
	Question string `json:"question"`

	// Evidence is the ordered sequence of retrieved documents.
	Evidence []EvidenceDocument `json:"evidence"`

	// Flags are per-request toggles.
	Flags InputFlags `json:"flags"`
}

// ValidatorSpec is the static metadata for one validator.
type ValidatorSpec struct {
	// Name uniquely identifies the validator.
	Name string `json:"name"`

	// Priority orders validators within a plan layer.
	Priority Priority `json:"priority"`

	// DependsOn names validators whose results this validator reads.
	// The dependency relation must be acyclic.
	DependsOn []string `json:"depends_on,omitempty"`

	// ParallelSafe validators may share a phase with other validators.
	// A ParallelSafe=false validator always occupies its own phase so it
	// observes a stable, fully-resolved view of prior results.
	ParallelSafe bool `json:"parallel_safe"`

	// Timeout bounds one Evaluate call. Zero means DefaultValidatorTimeout.
	Timeout time.Duration `json:"timeout"`

	// Conditional validators are scheduled only when the input's
	// IsPhilosophical flag is set.
	Conditional bool `json:"conditional,omitempty"`
}

// EffectiveTimeout returns the spec timeout, defaulted when unset.
func (s ValidatorSpec) EffectiveTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultValidatorTimeout
	}
	return s.Timeout
}

// ValidationResult is the outcome of one validator in one run.
//
// Immutable once emitted.
type ValidationResult struct {
	// ValidatorName is the emitting validator.
	ValidatorName string `json:"validator_name"`

	// Passed is false when the validator found a problem.
	Passed bool `json:"passed"`

	// ReasonCodes are machine-readable findings, in detection order.
	ReasonCodes []string `json:"reason_codes,omitempty"`

	// PatchedAnswer is a proposed rewrite of the answer. Empty means no
	// patch. Patches are advisory; the aggregator decides application.
	PatchedAnswer string `json:"patched_answer,omitempty"`

	// Score is an optional numeric signal in [0,1]. Zero when the
	// validator does not score (EvidenceOverlap and Confidence do).
	Score float64 `json:"score,omitempty"`

	// Elapsed is how long Evaluate took.
	Elapsed time.Duration `json:"elapsed"`
}

// PriorResults is the read-only view a validator gets of strictly
// earlier phases.
type PriorResults struct {
	// results maps validator name to its result.
	results map[string]ValidationResult

	// effectiveAnswer is the original answer with the latest non-empty
	// patch from earlier phases applied, so late validators (EthicsGuard)
	// inspect what would actually be served.
	effectiveAnswer string
}

// NewPriorResults builds a prior-results view from completed results.
// The executor maintains this view itself during a run; the constructor
// exists so individual validators can be tested in isolation.
func NewPriorResults(results []ValidationResult, effectiveAnswer string) PriorResults {
	prior := PriorResults{
		results:         make(map[string]ValidationResult, len(results)),
		effectiveAnswer: effectiveAnswer,
	}
	for _, r := range results {
		prior.results[r.ValidatorName] = r
	}
	return prior
}

// Get returns the result of a named validator from an earlier phase.
func (p PriorResults) Get(name string) (ValidationResult, bool) {
	r, ok := p.results[name]
	return r, ok
}

// EffectiveAnswer returns the answer as patched by earlier phases, or the
// original answer if no validator patched it.
func (p PriorResults) EffectiveAnswer() string {
	return p.effectiveAnswer
}

// Len returns the number of prior results visible to the validator.
func (p PriorResults) Len() int {
	return len(p.results)
}

// Validator is a single pluggable check over an answer and its evidence.
//
// Implementations must be side-effect free with respect to shared state:
// they may read the input and prior results but never mutate them. They
// must honor ctx cancellation and be safe for concurrent use.
type Validator interface {
	// Spec returns the validator's static metadata.
	Spec() ValidatorSpec

	// Evaluate runs the check and returns exactly one result.
	Evaluate(ctx context.Context, input *ValidationInput, prior PriorResults) ValidationResult
}

// EpistemicState is the three-valued trust label for an answer.
type EpistemicState string

const (
	// StateKnown means the answer is well-grounded and confidently served.
	StateKnown EpistemicState = "KNOWN"

	// StateUncertain means the answer is served with degraded trust.
	StateUncertain EpistemicState = "UNCERTAIN"

	// StateUnknown means the system cannot vouch for the answer.
	StateUnknown EpistemicState = "UNKNOWN"
)

// AggregateDecision is the fold of all validator results for one run.
//
// Created once per run and never mutated after construction.
type AggregateDecision struct {
	// AllPassed is true when every validator passed.
	AllPassed bool `json:"all_passed"`

	// CriticalFailure is true when any failing result carried a reason
	// code the CriticalityPolicy classifies as critical. Sticky: once
	// set it is never cleared by later results.
	CriticalFailure bool `json:"critical_failure"`

	// ReasonCodes is the de-duplicated union of all reason codes, in
	// phase order of first appearance.
	ReasonCodes []string `json:"reason_codes,omitempty"`

	// FinalAnswer is the last non-empty patched answer in phase order,
	// or the original answer when no validator patched.
	FinalAnswer string `json:"final_answer"`

	// Results holds every validator result in phase order, for the
	// classifier and the trace.
	Results []ValidationResult `json:"results"`
}

// Outcome is what one pipeline run returns to the caller.
type Outcome struct {
	// TraceID identifies the run's trace record.
	TraceID string `json:"trace_id"`

	// FinalAnswer is the served answer (original, patched, or fallback).
	FinalAnswer string `json:"final_answer"`

	// Confidence is the calibrated confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// EpistemicState is the trust label for FinalAnswer.
	EpistemicState EpistemicState `json:"epistemic_state"`

	// CriticalFailure reports whether a fallback was substituted.
	CriticalFailure bool `json:"critical_failure"`

	// ReasonCodes mirrors the aggregate decision's reason codes.
	ReasonCodes []string `json:"reason_codes,omitempty"`

	// Phases holds the per-phase validator results, in execution order.
	Phases [][]ValidationResult `json:"phases"`

	// Elapsed is the total run duration.
	Elapsed time.Duration `json:"elapsed"`
}
