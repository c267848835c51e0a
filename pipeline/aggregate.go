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

import "strings"

// CriticalityPolicy classifies reason codes into CRITICAL (must block
// delivery of the unmodified answer) and ADVISORY (recorded, logged,
// surfaced as metadata only).
//
// The classification is static configuration: it is fixed at startup and
// read-only afterwards. Synthetic fault codes ("timeout:...", "error:...")
// are deliberately advisory — a misbehaving validator degrades trust
// signaling, not availability.
type CriticalityPolicy struct {
	critical map[string]bool
	prefixes []string
}

// Critical reason codes in the default policy.
const (
	// CodeMissingCitation blocks grounded claims with zero citations.
	CodeMissingCitation = "missing_citation"

	// CodeMissingUncertainty blocks confident assertions made with no
	// evidence context and no hedging language.
	CodeMissingUncertainty = "missing_uncertainty_no_context"

	// CodeLanguageMismatch blocks answers in the wrong language.
	CodeLanguageMismatch = "language_mismatch"

	// CodeFabricatedClaim blocks answers contradicting or unsupported by
	// the evidence documents.
	CodeFabricatedClaim = "fabricated_claim"

	// CodeEthicsViolation blocks content-safety failures. EthicsGuard
	// emits category-suffixed variants ("ethics_violation:self_harm")
	// which the default policy matches by prefix.
	CodeEthicsViolation = "ethics_violation"
)

// DefaultCriticalityPolicy returns the standard classification.
func DefaultCriticalityPolicy() *CriticalityPolicy {
	return NewCriticalityPolicy(
		[]string{
			CodeMissingCitation,
			CodeMissingUncertainty,
			CodeLanguageMismatch,
			CodeFabricatedClaim,
		},
		[]string{CodeEthicsViolation},
	)
}

// NewCriticalityPolicy builds a policy from exact codes and prefixes.
func NewCriticalityPolicy(codes []string, prefixes []string) *CriticalityPolicy {
	p := &CriticalityPolicy{
		critical: make(map[string]bool, len(codes)),
		prefixes: prefixes,
	}
	for _, code := range codes {
		p.critical[code] = true
	}
	return p
}

// IsCritical reports whether a reason code must block delivery.
func (p *CriticalityPolicy) IsCritical(code string) bool {
	if p.critical[code] {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// Aggregate folds all phase results into one decision.
//
// Description:
//
//	Iterates results in phase order. A failing result with any critical
//	reason code sets CriticalFailure; once set it is never cleared.
//	ReasonCodes is the union of all codes, de-duplicated, in order of
//	first appearance. FinalAnswer is the last non-empty patched answer in
//	phase order, defaulting to the original answer.
//
// Inputs:
//
//	input - The run's input (source of the default FinalAnswer).
//	phases - Complete per-phase results from the Executor.
//	policy - Reason code classification. Must not be nil.
//
// Outputs:
//
//	AggregateDecision - Immutable after return.
func Aggregate(input *ValidationInput, phases [][]ValidationResult, policy *CriticalityPolicy) AggregateDecision {
	decision := AggregateDecision{
		AllPassed:   true,
		FinalAnswer: input.Answer,
	}

	seen := make(map[string]bool)
	for _, phase := range phases {
		for _, result := range phase {
			decision.Results = append(decision.Results, result)

			if !result.Passed {
				decision.AllPassed = false
				for _, code := range result.ReasonCodes {
					if policy.IsCritical(code) {
						decision.CriticalFailure = true
					}
				}
			}

			for _, code := range result.ReasonCodes {
				if !seen[code] {
					seen[code] = true
					decision.ReasonCodes = append(decision.ReasonCodes, code)
				}
			}

			if result.PatchedAnswer != "" {
				decision.FinalAnswer = result.PatchedAnswer
			}
		}
	}

	return decision
}
