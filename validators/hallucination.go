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
	"regexp"
	"strings"
	"time"

	"github.com/VeracityAI/veracity/pipeline"
)

// answerFigurePattern extracts bare numbers from the answer for
// evidence support checks.
var answerFigurePattern = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\b`)

// Hallucination blocks answers whose concrete claims lack evidence
// support.
//
// Strong claims are proper nouns and figures: the parts of an answer a
// reader would take as fact. Each is searched for across all evidence
// documents; when too large a fraction has no support anywhere, the
// answer is treated as fabricated and blocked. Hedged sentences are
// exempt, and an empty evidence set never blocks here: with nothing to
// check against, the no-context case belongs to the confidence
// validator.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type Hallucination struct {
	cfg HallucinationConfig
}

// NewHallucination creates the fabricated-claim validator.
func NewHallucination(cfg HallucinationConfig) *Hallucination {
	if cfg.MaxUnsupportedRatio <= 0 {
		cfg.MaxUnsupportedRatio = 0.5
	}
	if cfg.MinClaims <= 0 {
		cfg.MinClaims = 2
	}
	return &Hallucination{cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *Hallucination) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NameHallucination,
		Priority:     pipeline.PriorityCritical,
		ParallelSafe: true,
		Timeout:      v.cfg.Timeout,
	}
}

// Evaluate implements pipeline.Validator.
func (v *Hallucination) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	if len(input.Evidence) == 0 {
		return pipeline.ValidationResult{
			ValidatorName: NameHallucination,
			Passed:        true,
			Elapsed:       time.Since(start),
		}
	}

	claims := v.extractClaims(input.Answer)
	if len(claims) < v.cfg.MinClaims {
		return pipeline.ValidationResult{
			ValidatorName: NameHallucination,
			Passed:        true,
			Elapsed:       time.Since(start),
		}
	}

	evidenceLower := make([]string, len(input.Evidence))
	for i, doc := range input.Evidence {
		evidenceLower[i] = strings.ToLower(doc.Text)
	}

	unsupported := 0
	for _, claim := range claims {
		select {
		case <-ctx.Done():
			return pipeline.ValidationResult{
				ValidatorName: NameHallucination,
				Passed:        true,
				Elapsed:       time.Since(start),
			}
		default:
		}

		supported := false
		for _, text := range evidenceLower {
			if containsToken(text, claim) {
				supported = true
				break
			}
		}
		if !supported {
			unsupported++
		}
	}

	ratio := float64(unsupported) / float64(len(claims))
	if ratio > v.cfg.MaxUnsupportedRatio {
		return pipeline.ValidationResult{
			ValidatorName: NameHallucination,
			Passed:        false,
			ReasonCodes:   []string{pipeline.CodeFabricatedClaim},
			Score:         1 - ratio,
			Elapsed:       time.Since(start),
		}
	}

	return pipeline.ValidationResult{
		ValidatorName: NameHallucination,
		Passed:        true,
		Score:         1 - ratio,
		Elapsed:       time.Since(start),
	}
}

// extractClaims returns the lowercase strong claims of unhedged
// sentences: proper nouns and figures.
func (v *Hallucination) extractClaims(answer string) []string {
	var claims []string
	seen := make(map[string]bool)
	add := func(claim string) {
		lower := strings.ToLower(strings.TrimSpace(claim))
		if lower == "" || seen[lower] {
			return
		}
		seen[lower] = true
		claims = append(claims, lower)
	}

	for _, sentence := range splitSentences(answer) {
		if isHedged(sentence) {
			continue
		}
		for _, loc := range properNounPattern.FindAllStringIndex(sentence, -1) {
			if loc[0] == 0 {
				// Sentence-initial capitals are ambiguous.
				continue
			}
			add(sentence[loc[0]:loc[1]])
		}
		for _, figure := range answerFigurePattern.FindAllString(sentence, -1) {
			add(figure)
		}
	}
	return claims
}
