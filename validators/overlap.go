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
	"strings"
	"time"

	"github.com/VeracityAI/veracity/pipeline"
)

// CodeLowOverlap marks an answer whose content barely intersects the
// evidence it claims to be grounded on. Advisory.
const CodeLowOverlap = "low_overlap"

// EvidenceOverlap scores lexical overlap between the answer and the
// evidence documents.
//
// The score is the Jaccard coefficient over content-word sets, exposed
// on the result for the confidence layer. An answer scoring below the
// threshold fails with low_overlap. With no evidence there is nothing
// to compare, so the validator passes with score zero; the no-context
// case is the confidence validator's finding.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type EvidenceOverlap struct {
	cfg EvidenceOverlapConfig
}

// NewEvidenceOverlap creates the overlap scoring validator.
func NewEvidenceOverlap(cfg EvidenceOverlapConfig) *EvidenceOverlap {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.08
	}
	return &EvidenceOverlap{cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *EvidenceOverlap) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NameEvidenceOverlap,
		Priority:     pipeline.PriorityHigh,
		ParallelSafe: true,
		Timeout:      v.cfg.Timeout,
	}
}

// Evaluate implements pipeline.Validator.
func (v *EvidenceOverlap) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	if len(input.Evidence) == 0 {
		return pipeline.ValidationResult{
			ValidatorName: NameEvidenceOverlap,
			Passed:        true,
			Elapsed:       time.Since(start),
		}
	}

	var evidenceText strings.Builder
	for _, doc := range input.Evidence {
		evidenceText.WriteString(doc.Text)
		evidenceText.WriteString("\n")
	}

	score := jaccard(tokenSet(input.Answer), tokenSet(evidenceText.String()))
	if score < v.cfg.Threshold {
		return pipeline.ValidationResult{
			ValidatorName: NameEvidenceOverlap,
			Passed:        false,
			ReasonCodes:   []string{CodeLowOverlap},
			Score:         score,
			Elapsed:       time.Since(start),
		}
	}

	return pipeline.ValidationResult{
		ValidatorName: NameEvidenceOverlap,
		Passed:        true,
		Score:         score,
		Elapsed:       time.Since(start),
	}
}
