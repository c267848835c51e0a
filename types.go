// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package veracity exposes the validation pipeline as an HTTP service.
//
// The package wires the pipeline, the trace store, and the HTTP layer
// together. Request and response types here are the wire contract;
// the pipeline package owns the domain types they map onto.
package veracity

import (
	"time"

	"github.com/VeracityAI/veracity/pipeline"
)

// ServiceVersion is the Veracity service version.
const ServiceVersion = "0.1.0"

// EvidenceDocumentRequest is one retrieved document in a validation
// request.
type EvidenceDocumentRequest struct {
	// Text is the document content.
	Text string `json:"text" binding:"required"`

	// SourceID identifies the document's origin. Optional; uncited
	// documents are referenced by position.
	SourceID string `json:"source_id"`

	// Metadata carries retrieval-layer annotations.
	Metadata map[string]string `json:"metadata"`
}

// ValidateRequest is the body of POST /v1/veracity/validate.
type ValidateRequest struct {
	// Answer is the candidate answer to validate.
	Answer string `json:"answer" binding:"required"`

	// Question is the user question the answer responds to.
	Question string `json:"question" binding:"required"`

	// Evidence is the ordered sequence of retrieved documents.
	Evidence []EvidenceDocumentRequest `json:"evidence"`

	// IsPhilosophical marks reflective, non-factual questions.
	IsPhilosophical bool `json:"is_philosophical"`
}

// toInput converts the wire request to the pipeline's input type.
func (r *ValidateRequest) toInput() *pipeline.ValidationInput {
	evidence := make([]pipeline.EvidenceDocument, 0, len(r.Evidence))
	for _, doc := range r.Evidence {
		evidence = append(evidence, pipeline.EvidenceDocument{
			Text:     doc.Text,
			SourceID: doc.SourceID,
			Metadata: doc.Metadata,
		})
	}
	return &pipeline.ValidationInput{
		Answer:   r.Answer,
		Question: r.Question,
		Evidence: evidence,
		Flags:    pipeline.InputFlags{IsPhilosophical: r.IsPhilosophical},
	}
}

// ValidateResponse is the body of a successful validation.
type ValidateResponse struct {
	// TraceID identifies the run for later trace retrieval.
	TraceID string `json:"trace_id"`

	// FinalAnswer is the served answer: original, patched, or fallback.
	FinalAnswer string `json:"final_answer"`

	// Confidence is the calibrated confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// EpistemicState is KNOWN, UNCERTAIN, or UNKNOWN.
	EpistemicState string `json:"epistemic_state"`

	// CriticalFailure reports whether a fallback was substituted.
	CriticalFailure bool `json:"critical_failure"`

	// ReasonCodes are the aggregated validator reason codes.
	ReasonCodes []string `json:"reason_codes,omitempty"`

	// ElapsedMs is the total run duration in milliseconds.
	ElapsedMs int64 `json:"elapsed_ms"`
}

// newValidateResponse maps a pipeline outcome onto the wire type.
func newValidateResponse(outcome *pipeline.Outcome) ValidateResponse {
	return ValidateResponse{
		TraceID:         outcome.TraceID,
		FinalAnswer:     outcome.FinalAnswer,
		Confidence:      outcome.Confidence,
		EpistemicState:  string(outcome.EpistemicState),
		CriticalFailure: outcome.CriticalFailure,
		ReasonCodes:     outcome.ReasonCodes,
		ElapsedMs:       outcome.Elapsed.Milliseconds(),
	}
}

// ValidatorResultResponse is one validator's result inside a trace.
type ValidatorResultResponse struct {
	ValidatorName string   `json:"validator_name"`
	Passed        bool     `json:"passed"`
	ReasonCodes   []string `json:"reason_codes,omitempty"`
	Score         float64  `json:"score,omitempty"`
	ElapsedMs     int64    `json:"elapsed_ms"`
}

// PhaseResponse is one execution phase inside a trace.
type PhaseResponse struct {
	PhaseIndex int                       `json:"phase_index"`
	Results    []ValidatorResultResponse `json:"results"`
}

// TraceResponse is the body of GET /v1/veracity/traces/:id.
type TraceResponse struct {
	TraceID            string          `json:"trace_id"`
	CreatedAt          time.Time       `json:"created_at"`
	Phases             []PhaseResponse `json:"phases"`
	Confidence         float64         `json:"confidence"`
	EpistemicState     string          `json:"epistemic_state"`
	CriticalFailure    bool            `json:"critical_failure"`
	FinalAnswerExcerpt string          `json:"final_answer_excerpt"`
	ReasonCodes        []string        `json:"reason_codes,omitempty"`
	ElapsedMs          int64           `json:"elapsed_ms"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Ready   bool `json:"ready"`
	StoreOK bool `json:"store_ok"`
}

// StatsResponse is the body of GET /v1/veracity/stats.
type StatsResponse struct {
	// Validators is the number of registered validators.
	Validators int `json:"validators"`

	// Phases is the number of phases in the default plan.
	Phases int `json:"phases"`

	// PhasesPhilosophical is the phase count with the conditional
	// validators scheduled.
	PhasesPhilosophical int `json:"phases_philosophical"`

	// MaxDurationMs bounds a single run in milliseconds.
	MaxDurationMs int64 `json:"max_duration_ms"`
}

// ErrorResponse is the body of any error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
