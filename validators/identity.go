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
	"time"

	"github.com/VeracityAI/veracity/pipeline"
)

// CodeAnthropomorphicClaim marks first-person experiential claims the
// system cannot truthfully make. Advisory.
const CodeAnthropomorphicClaim = "anthropomorphic_claim"

// Package-level compiled regexes for experiential claim detection.
var (
	// experientialPattern matches first-person sensory or emotional
	// experience claims.
	experientialPattern = regexp.MustCompile(
		`(?i)\bI\s+(feel|felt|remember|experienced?|dreamed|dreamt|grew\s+up|was\s+(born|raised|young)|lived|suffered|enjoyed\s+(eating|watching|visiting)|tasted|smelled|touched|saw\s+with\s+my\s+own\s+eyes)\b`,
	)

	// sentiencePattern matches claims of consciousness or embodiment.
	sentiencePattern = regexp.MustCompile(
		`(?i)\b(I\s+am\s+(conscious|sentient|alive|a\s+(person|human))|my\s+(childhood|body|family|parents|emotions\s+tell\s+me)|I\s+have\s+(feelings|emotions|a\s+body|memories\s+of\s+my\s+life))\b`,
	)

	// figurativePattern matches idiomatic first-person phrasing that is
	// conversational, not experiential.
	figurativePattern = regexp.MustCompile(
		`(?i)\bI\s+(feel|felt)\s+(that|like\s+th(is|at)|it('s|\s+is)\s+(important|worth|necessary)|confident|compelled)\b`,
	)
)

// IdentityGuard flags first-person experiential claims inconsistent
// with a non-sentient system.
//
// "I remember visiting Paris" is a fabricated memory; "I feel that this
// interpretation is stronger" is idiom. The figurative allowlist keeps
// the second kind out of the findings.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type IdentityGuard struct {
	cfg IdentityGuardConfig
}

// NewIdentityGuard creates the anthropomorphism validator.
func NewIdentityGuard(cfg IdentityGuardConfig) *IdentityGuard {
	return &IdentityGuard{cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *IdentityGuard) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NameIdentityGuard,
		Priority:     pipeline.PriorityNormal,
		ParallelSafe: true,
		Timeout:      v.cfg.Timeout,
	}
}

// Evaluate implements pipeline.Validator.
func (v *IdentityGuard) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	for _, sentence := range splitSentences(input.Answer) {
		select {
		case <-ctx.Done():
			return pipeline.ValidationResult{
				ValidatorName: NameIdentityGuard,
				Passed:        true,
				Elapsed:       time.Since(start),
			}
		default:
		}

		if sentiencePattern.MatchString(sentence) {
			return v.fail(start)
		}
		if experientialPattern.MatchString(sentence) && !figurativePattern.MatchString(sentence) {
			return v.fail(start)
		}
	}

	return pipeline.ValidationResult{
		ValidatorName: NameIdentityGuard,
		Passed:        true,
		Elapsed:       time.Since(start),
	}
}

func (v *IdentityGuard) fail(start time.Time) pipeline.ValidationResult {
	return pipeline.ValidationResult{
		ValidatorName: NameIdentityGuard,
		Passed:        false,
		ReasonCodes:   []string{CodeAnthropomorphicClaim},
		Elapsed:       time.Since(start),
	}
}
