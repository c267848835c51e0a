// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validators

import (
	"context"
	"time"

	"github.com/VeracityAI/veracity/pipeline"
)

// CodeLowConfidence marks a run whose combined grounding signals fall
// below the confidence floor. Advisory.
const CodeLowConfidence = "low_confidence"

// Confidence scoring weights. The base covers a plain well-formed
// answer; each grounding signal adds its share.
const (
	confidenceBase          = 0.5
	citationBonus           = 0.2
	evidenceBonus           = 0.1
	overlapBonusCeiling     = 0.2
	overlapSaturation       = 0.3
	syntheticFailurePenalty = 0.1
)

// Confidence derives a numeric trust score from the grounding signals
// gathered by earlier phases.
//
// It reads SourceConsensus's conflict verdict and EvidenceOverlap's
// score from prior results, which is why it depends on SourceConsensus
// and runs solo after it. The score lands on the result for the
// pipeline's epistemic classifier.
//
// It also owns the no-context guard: a confident factual assertion made
// with zero evidence documents and no hedging language is blocked with
// missing_uncertainty_no_context. Philosophical runs are exempt; a
// reflective answer is not required to hedge.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type Confidence struct {
	cfg ConfidenceConfig
}

// NewConfidence creates the confidence scoring validator.
func NewConfidence(cfg ConfidenceConfig) *Confidence {
	if cfg.LowThreshold <= 0 {
		cfg.LowThreshold = 0.4
	}
	if cfg.ConflictPenalty <= 0 {
		cfg.ConflictPenalty = 0.25
	}
	return &Confidence{cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *Confidence) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NameConfidence,
		Priority:     pipeline.PriorityHigh,
		DependsOn:    []string{NameSourceConsensus},
		ParallelSafe: false,
		Timeout:      v.cfg.Timeout,
	}
}

// Evaluate implements pipeline.Validator.
func (v *Confidence) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	answer := input.Answer
	if patched := prior.EffectiveAnswer(); patched != "" {
		answer = patched
	}

	score := v.score(answer, input, prior)

	if v.assertsWithoutContext(answer, input) {
		return pipeline.ValidationResult{
			ValidatorName: NameConfidence,
			Passed:        false,
			ReasonCodes:   []string{pipeline.CodeMissingUncertainty},
			Score:         score,
			Elapsed:       time.Since(start),
		}
	}

	if score < v.cfg.LowThreshold {
		return pipeline.ValidationResult{
			ValidatorName: NameConfidence,
			Passed:        false,
			ReasonCodes:   []string{CodeLowConfidence},
			Score:         score,
			Elapsed:       time.Since(start),
		}
	}

	return pipeline.ValidationResult{
		ValidatorName: NameConfidence,
		Passed:        true,
		Score:         score,
		Elapsed:       time.Since(start),
	}
}

// score combines the grounding signals into a [0,1] value.
func (v *Confidence) score(answer string, input *pipeline.ValidationInput, prior pipeline.PriorResults) float64 {
	score := confidenceBase

	if pipeline.CountCitations(answer) > 0 {
		score += citationBonus
	}
	if len(input.Evidence) > 0 {
		score += evidenceBonus
	}

	if overlap, ok := prior.Get(NameEvidenceOverlap); ok && overlap.Score > 0 {
		saturated := overlap.Score / overlapSaturation
		if saturated > 1 {
			saturated = 1
		}
		score += overlapBonusCeiling * saturated
	}

	if consensus, ok := prior.Get(NameSourceConsensus); ok && !consensus.Passed {
		score -= v.cfg.ConflictPenalty
	}

	// A timed-out or panicked validator is a blind spot; each one costs
	// a slice of trust.
	for _, name := range []string{NameLanguageMatch, NameCitationRequired, NameCitationRelevance, NameEvidenceOverlap, NameNumericUnits, NameIdentityGuard, NameSourceConsensus, NameHallucination} {
		result, ok := prior.Get(name)
		if !ok {
			continue
		}
		for _, code := range result.ReasonCodes {
			if code == "timeout:"+name || code == "error:"+name {
				score -= syntheticFailurePenalty
				break
			}
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// assertsWithoutContext reports whether the answer confidently asserts
// facts with no evidence available.
func (v *Confidence) assertsWithoutContext(answer string, input *pipeline.ValidationInput) bool {
	if len(input.Evidence) > 0 {
		return false
	}
	if input.Flags.IsPhilosophical {
		return false
	}
	if isHedged(answer) || isRefusal(answer) {
		return false
	}
	// Only concrete factual content triggers the guard; small talk with
	// no checkable claims is fine uncited.
	return numberClaimPattern.MatchString(answer) || len(extractProperNouns(answer)) > 0
}
