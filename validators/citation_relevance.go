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

// Reason codes emitted by CitationRelevance. Both are advisory.
const (
	// CodeCitationUnknownSource marks a citation that resolves to no
	// evidence document.
	CodeCitationUnknownSource = "citation_unknown_source"

	// CodeCitationIrrelevant marks a citation whose surrounding sentence
	// shares almost no content with the cited document.
	CodeCitationIrrelevant = "citation_irrelevant"
)

// CitationRelevance verifies that each citation points at an evidence
// document that actually supports the citing sentence.
//
// Depends on CitationRequired: by the time this runs, the answer either
// has citations or the run is already flagged. An answer without
// citations passes here; absence is the upstream validator's finding.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type CitationRelevance struct {
	cfg CitationRelevanceConfig
}

// NewCitationRelevance creates the citation relevance validator.
func NewCitationRelevance(cfg CitationRelevanceConfig) *CitationRelevance {
	if cfg.MinKeywordOverlap <= 0 {
		cfg.MinKeywordOverlap = 0.1
	}
	return &CitationRelevance{cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *CitationRelevance) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NameCitationRelevance,
		Priority:     pipeline.PriorityNormal,
		DependsOn:    []string{NameCitationRequired},
		ParallelSafe: false,
		Timeout:      v.cfg.Timeout,
	}
}

// Evaluate implements pipeline.Validator.
//
// Description:
//
//	Resolves every citation marker against the evidence set. A marker
//	naming an unknown source or index is flagged as
//	citation_unknown_source. A resolvable marker whose citing sentence
//	shares less than MinKeywordOverlap of its content words with the
//	cited document is flagged citation_irrelevant. Sentences too short
//	to carry topical signal are skipped.
func (v *CitationRelevance) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	answer := input.Answer
	if patched := prior.EffectiveAnswer(); patched != "" {
		answer = patched
	}

	citations := pipeline.ExtractCitations(answer)
	if len(citations) == 0 {
		return pipeline.ValidationResult{
			ValidatorName: NameCitationRelevance,
			Passed:        true,
			Elapsed:       time.Since(start),
		}
	}

	var codes []string
	seen := make(map[string]bool)
	for _, citation := range citations {
		select {
		case <-ctx.Done():
			return pipeline.ValidationResult{
				ValidatorName: NameCitationRelevance,
				Passed:        len(codes) == 0,
				ReasonCodes:   codes,
				Elapsed:       time.Since(start),
			}
		default:
		}

		doc := citation.Resolve(input.Evidence)
		if doc == nil {
			if !seen[CodeCitationUnknownSource] {
				seen[CodeCitationUnknownSource] = true
				codes = append(codes, CodeCitationUnknownSource)
			}
			continue
		}

		sentence := citingSentence(answer, citation.Position)
		sentenceTokens := tokenSet(sentence)
		if len(sentenceTokens) < 3 {
			continue
		}

		if overlapRatio(sentenceTokens, tokenSet(doc.Text)) < v.cfg.MinKeywordOverlap {
			if !seen[CodeCitationIrrelevant] {
				seen[CodeCitationIrrelevant] = true
				codes = append(codes, CodeCitationIrrelevant)
			}
		}
	}

	return pipeline.ValidationResult{
		ValidatorName: NameCitationRelevance,
		Passed:        len(codes) == 0,
		ReasonCodes:   codes,
		Elapsed:       time.Since(start),
	}
}

// citingSentence returns the sentence containing the byte offset.
func citingSentence(text string, offset int) string {
	if offset > len(text) {
		offset = len(text)
	}

	begin := strings.LastIndexAny(text[:offset], ".!?\n") + 1
	end := strings.IndexAny(text[offset:], ".!?\n")
	if end < 0 {
		end = len(text)
	} else {
		end += offset
	}
	return strings.TrimSpace(text[begin:end])
}
