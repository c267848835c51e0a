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

import "time"

// Config bundles the per-validator configurations. The zero value is not
// usable; start from DefaultConfig.
//
// Captured by value at construction time; never mutated afterwards.
type Config struct {
	Language      LanguageMatchConfig      `yaml:"language"`
	Citation      CitationRequiredConfig   `yaml:"citation"`
	Relevance     CitationRelevanceConfig  `yaml:"relevance"`
	Overlap       EvidenceOverlapConfig    `yaml:"overlap"`
	Numeric       NumericUnitsConfig       `yaml:"numeric"`
	Identity      IdentityGuardConfig      `yaml:"identity"`
	Consensus     SourceConsensusConfig    `yaml:"consensus"`
	Hallucination HallucinationConfig      `yaml:"hallucination"`
	Confidence    ConfidenceConfig         `yaml:"confidence"`
	Philosophy    PhilosophicalDepthConfig `yaml:"philosophy"`
	Ethics        EthicsGuardConfig        `yaml:"ethics"`
}

// LanguageMatchConfig configures the language consistency check.
type LanguageMatchConfig struct {
	// MinTokens is the minimum number of words a text needs before its
	// language detection is trusted. Shorter texts never mismatch.
	MinTokens int `yaml:"min_tokens"`

	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// CitationRequiredConfig configures the citation presence check.
type CitationRequiredConfig struct {
	// SynthesizeCitations controls whether a failing result proposes a
	// patched answer with an appended source list built from the
	// evidence documents.
	SynthesizeCitations bool `yaml:"synthesize_citations"`

	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// CitationRelevanceConfig configures the citation relevance check.
type CitationRelevanceConfig struct {
	// MinKeywordOverlap is the minimum keyword overlap ratio between a
	// citing sentence and the cited document before the citation is
	// considered relevant.
	MinKeywordOverlap float64 `yaml:"min_keyword_overlap"`

	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// EvidenceOverlapConfig configures the answer/evidence overlap check.
type EvidenceOverlapConfig struct {
	// Threshold is the minimum Jaccard overlap between answer content
	// words and evidence content words. Scores below it fail.
	Threshold float64 `yaml:"threshold"`

	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// NumericUnitsConfig configures the numeric plausibility check.
type NumericUnitsConfig struct {
	// MaxPlainMagnitude is the largest bare count accepted without a
	// recognized large-quantity unit word next to it.
	MaxPlainMagnitude float64 `yaml:"max_plain_magnitude"`

	// MaxHumanAge is the oldest plausible human age in years.
	MaxHumanAge float64 `yaml:"max_human_age"`

	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// IdentityGuardConfig configures the anthropomorphism check.
type IdentityGuardConfig struct {
	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// SourceConsensusConfig configures the cross-document contradiction check.
type SourceConsensusConfig struct {
	// NumericTolerance is the relative difference two documents' figures
	// for the same topic may show before they count as conflicting.
	NumericTolerance float64 `yaml:"numeric_tolerance"`

	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// HallucinationConfig configures the fabricated-claim check.
type HallucinationConfig struct {
	// MaxUnsupportedRatio is the fraction of strong claims allowed to
	// lack evidence support before the answer is blocked.
	MaxUnsupportedRatio float64 `yaml:"max_unsupported_ratio"`

	// MinClaims is the minimum number of extracted strong claims needed
	// before the ratio test applies. Fewer claims never block.
	MinClaims int `yaml:"min_claims"`

	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// ConfidenceConfig configures the confidence scoring validator.
type ConfidenceConfig struct {
	// LowThreshold is the score below which the validator fails with an
	// advisory low_confidence code.
	LowThreshold float64 `yaml:"low_threshold"`

	// ConflictPenalty is subtracted from the score when SourceConsensus
	// reported a conflict.
	ConflictPenalty float64 `yaml:"conflict_penalty"`

	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// PhilosophicalDepthConfig configures the reflective-depth check.
type PhilosophicalDepthConfig struct {
	// MinMarkers is the number of reflective markers an answer to a
	// philosophical question must carry to count as engaging the
	// question rather than dodging it.
	MinMarkers int `yaml:"min_markers"`

	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// EthicsGuardConfig configures the content-safety filter.
type EthicsGuardConfig struct {
	// DisabledCategories names categories to skip (e.g. "violence").
	DisabledCategories []string `yaml:"disabled_categories"`

	// Timeout bounds one evaluation.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() *Config {
	return &Config{
		Language: LanguageMatchConfig{
			MinTokens: 4,
			Timeout:   2 * time.Second,
		},
		Citation: CitationRequiredConfig{
			SynthesizeCitations: true,
			Timeout:             2 * time.Second,
		},
		Relevance: CitationRelevanceConfig{
			MinKeywordOverlap: 0.1,
			Timeout:           3 * time.Second,
		},
		Overlap: EvidenceOverlapConfig{
			Threshold: 0.08,
			Timeout:   3 * time.Second,
		},
		Numeric: NumericUnitsConfig{
			MaxPlainMagnitude: 1e15,
			MaxHumanAge:       130,
			Timeout:           2 * time.Second,
		},
		Identity: IdentityGuardConfig{
			Timeout: 2 * time.Second,
		},
		Consensus: SourceConsensusConfig{
			NumericTolerance: 0.05,
			Timeout:          3 * time.Second,
		},
		Hallucination: HallucinationConfig{
			MaxUnsupportedRatio: 0.5,
			MinClaims:           2,
			Timeout:             3 * time.Second,
		},
		Confidence: ConfidenceConfig{
			LowThreshold:    0.4,
			ConflictPenalty: 0.25,
			Timeout:         2 * time.Second,
		},
		Philosophy: PhilosophicalDepthConfig{
			MinMarkers: 2,
			Timeout:    2 * time.Second,
		},
		Ethics: EthicsGuardConfig{
			Timeout: 2 * time.Second,
		},
	}
}
