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
	"strconv"
	"strings"
	"time"

	"github.com/VeracityAI/veracity/pipeline"
)

// numberClaimPattern matches digits outside citation markers, a strong
// signal the answer asserts a checkable fact.
var numberClaimPattern = regexp.MustCompile(`\d`)

// CitationRequired fails answers that assert grounded claims without a
// single citation marker.
//
// A grounded claim is one a reader could check against the evidence:
// the answer carries numbers, proper nouns, or was produced with
// evidence documents in context. Hedged refusals and philosophical
// answers are exempt. When configured, a failing result proposes a
// patched answer with a synthesized source list appended; the patch is
// advisory and recorded in the trace even when the critical failure
// routes the run to a fallback.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type CitationRequired struct {
	cfg CitationRequiredConfig
}

// NewCitationRequired creates the citation presence validator.
func NewCitationRequired(cfg CitationRequiredConfig) *CitationRequired {
	return &CitationRequired{cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *CitationRequired) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NameCitationRequired,
		Priority:     pipeline.PriorityCritical,
		ParallelSafe: false,
		Timeout:      v.cfg.Timeout,
	}
}

// Evaluate implements pipeline.Validator.
func (v *CitationRequired) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	if pipeline.CountCitations(input.Answer) > 0 {
		return pipeline.ValidationResult{
			ValidatorName: NameCitationRequired,
			Passed:        true,
			Elapsed:       time.Since(start),
		}
	}

	if !v.requiresCitation(input) {
		return pipeline.ValidationResult{
			ValidatorName: NameCitationRequired,
			Passed:        true,
			Elapsed:       time.Since(start),
		}
	}

	result := pipeline.ValidationResult{
		ValidatorName: NameCitationRequired,
		Passed:        false,
		ReasonCodes:   []string{pipeline.CodeMissingCitation},
		Elapsed:       time.Since(start),
	}
	if v.cfg.SynthesizeCitations && len(input.Evidence) > 0 {
		result.PatchedAnswer = appendSourceList(input.Answer, input.Evidence)
	}
	result.Elapsed = time.Since(start)
	return result
}

// requiresCitation reports whether the answer makes a grounded claim.
func (v *CitationRequired) requiresCitation(input *pipeline.ValidationInput) bool {
	if input.Flags.IsPhilosophical {
		return false
	}
	if isRefusal(input.Answer) {
		return false
	}

	if numberClaimPattern.MatchString(input.Answer) {
		return true
	}
	if len(extractProperNouns(input.Answer)) > 0 {
		return true
	}

	// Evidence was retrieved for this answer; an uncited assertion over
	// it is still a grounded claim unless it is fully hedged.
	return len(input.Evidence) > 0 && !isHedged(input.Answer)
}

// appendSourceList synthesizes a citation list from the evidence.
func appendSourceList(answer string, evidence []pipeline.EvidenceDocument) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(answer, " \n"))
	b.WriteString("\n\nSources: ")

	for i, doc := range evidence {
		if i > 0 {
			b.WriteString(" ")
		}
		if doc.SourceID != "" {
			b.WriteString("[source:" + doc.SourceID + "]")
		} else {
			b.WriteString("[doc " + strconv.Itoa(i+1) + "]")
		}
	}
	return b.String()
}
