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

import "github.com/VeracityAI/veracity/pipeline"

// Validator names. Dependency declarations and prior-result lookups use
// these, so they are part of the package's contract.
const (
	NameLanguageMatch      = "language_match"
	NameCitationRequired   = "citation_required"
	NameCitationRelevance  = "citation_relevance"
	NameEvidenceOverlap    = "evidence_overlap"
	NameNumericUnits       = "numeric_units"
	NameIdentityGuard      = "identity_guard"
	NameSourceConsensus    = "source_consensus"
	NameHallucination      = "factual_hallucination"
	NameConfidence         = "confidence"
	NamePhilosophicalDepth = "philosophical_depth"
	NameEthicsGuard        = "ethics_guard"
)

// DefaultValidators returns the standard validator set in registration
// order.
//
// Description:
//
//	Registration order breaks priority ties in the execution plan, so
//	LanguageMatch is registered before CitationRequired: both are
//	critical solo validators but language consistency is checked first.
//	EthicsGuard depends on Confidence, which places it in the final
//	phase where it inspects the fully patched answer.
//
// Inputs:
//
//	cfg - Validator thresholds. Nil uses DefaultConfig().
//
// Outputs:
//
//	[]pipeline.Validator - The standard set, ready for a registry.
func DefaultValidators(cfg *Config) []pipeline.Validator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return []pipeline.Validator{
		NewLanguageMatch(cfg.Language),
		NewCitationRequired(cfg.Citation),
		NewCitationRelevance(cfg.Relevance),
		NewEvidenceOverlap(cfg.Overlap),
		NewNumericUnits(cfg.Numeric),
		NewIdentityGuard(cfg.Identity),
		NewSourceConsensus(cfg.Consensus),
		NewHallucination(cfg.Hallucination),
		NewConfidence(cfg.Confidence),
		NewPhilosophicalDepth(cfg.Philosophy),
		NewEthicsGuard(cfg.Ethics),
	}
}

// DefaultRegistry builds a pipeline registry over the standard set.
func DefaultRegistry(cfg *Config) (*pipeline.Registry, error) {
	return pipeline.NewRegistry(DefaultValidators(cfg))
}
