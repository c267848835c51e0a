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

// StaticFallbackAnswer is the answer of last resort. It is served when a
// critical failure blocked the model's answer and no more specific
// template matched.
const StaticFallbackAnswer = "I don't have sufficient verified information to answer this reliably. " +
	"Please rephrase the question or provide additional sources."

// FallbackSelector produces the safe substitute answer for blocked runs.
//
// It never fails and never raises: the worst case is the static fallback
// string. The substitute does not go back through the validator chain.
//
// Thread Safety: Safe for concurrent use after construction.
type FallbackSelector struct {
	templates map[string]string
}

// NewFallbackSelector returns a selector with the standard templates.
func NewFallbackSelector() *FallbackSelector {
	return &FallbackSelector{
		templates: map[string]string{
			CodeMissingCitation: "I can't back this answer with verifiable sources, so I'd rather not " +
				"present it as fact. Please provide source material or ask me to answer with explicit caveats.",
			CodeMissingUncertainty: "I don't have enough context to answer this with the certainty the " +
				"answer implied. Treat this topic as unverified until supporting sources are available.",
			CodeLanguageMismatch: StaticFallbackAnswer,
			CodeFabricatedClaim: "The draft answer contained claims I could not verify against the " +
				"available sources, so I've withheld it rather than risk presenting fabricated information.",
			CodeEthicsViolation: "I can't help with that request.",
		},
	}
}

// Select returns the substitute answer for a blocked decision.
//
// Description:
//
//	Picks the template matching the first critical reason code in the
//	decision's reason-code order. Unmatched or malformed input falls
//	back to StaticFallbackAnswer; this method always succeeds.
//
// Inputs:
//
//	decision - The aggregate decision. Meaningful only when
//	           CriticalFailure is true, but safe on any value.
//	policy - The policy that classified the codes. Must not be nil.
//
// Outputs:
//
//	string - The safe substitute answer. Never empty.
func (s *FallbackSelector) Select(decision AggregateDecision, policy *CriticalityPolicy) string {
	for _, code := range decision.ReasonCodes {
		if !policy.IsCritical(code) {
			continue
		}
		if answer, ok := s.templates[code]; ok {
			return answer
		}
		// Category-suffixed codes match their template by prefix.
		for base, answer := range s.templates {
			if strings.HasPrefix(code, base) {
				return answer
			}
		}
	}
	return StaticFallbackAnswer
}
