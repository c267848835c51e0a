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

// EpistemicClassifier derives the confidence score and KNOWN / UNCERTAIN /
// UNKNOWN label from an aggregate decision plus input signals.
//
// Classification is a pure function: identical decisions and signals
// always produce identical labels. The ordering of the three branches is
// total and deterministic — KNOWN only when every KNOWN condition holds
// strictly, UNKNOWN for blocked or evidence-free low-confidence runs,
// UNCERTAIN for everything in between.
type EpistemicClassifier struct {
	// ScoreSource names the validator whose Score is blended into the
	// derived confidence when its result is present. Empty disables
	// blending.
	ScoreSource string

	// KnownThreshold is the minimum confidence for KNOWN (default 0.7).
	KnownThreshold float64

	// UnknownThreshold is the confidence below which an evidence-free
	// run is UNKNOWN (default 0.5).
	UnknownThreshold float64
}

// Confidence penalty weights. Derived empirically from the severity
// deltas the grounding layer applies per violation class.
const (
	advisoryFailurePenalty = 0.15
	noCitationPenalty      = 0.20
	noEvidencePenalty      = 0.30
	criticalConfidenceCap  = 0.20
)

// NewEpistemicClassifier returns a classifier with default thresholds,
// blending the named validator's score.
func NewEpistemicClassifier(scoreSource string) *EpistemicClassifier {
	return &EpistemicClassifier{
		ScoreSource:      scoreSource,
		KnownThreshold:   0.7,
		UnknownThreshold: 0.5,
	}
}

// Classify labels a finished run.
//
// Inputs:
//
//	decision - The aggregate decision for the run.
//	policy - The criticality classification used during aggregation.
//	evidenceCount - Number of evidence documents in the input.
//	citationCount - Citation markers present in the served answer.
//
// Outputs:
//
//	EpistemicState - The trust label.
//	float64 - Calibrated confidence in [0,1].
func (c *EpistemicClassifier) Classify(decision AggregateDecision, policy *CriticalityPolicy, evidenceCount, citationCount int) (EpistemicState, float64) {
	confidence := c.confidence(decision, policy, evidenceCount, citationCount)

	known := !decision.CriticalFailure &&
		decision.AllPassed &&
		citationCount > 0 &&
		evidenceCount > 0 &&
		confidence >= c.KnownThreshold
	if known {
		return StateKnown, confidence
	}

	if decision.CriticalFailure || (evidenceCount == 0 && confidence < c.UnknownThreshold) {
		return StateUnknown, confidence
	}

	return StateUncertain, confidence
}

// confidence derives the calibrated score.
func (c *EpistemicClassifier) confidence(decision AggregateDecision, policy *CriticalityPolicy, evidenceCount, citationCount int) float64 {
	confidence := 1.0

	for _, result := range decision.Results {
		if result.Passed {
			continue
		}
		critical := false
		for _, code := range result.ReasonCodes {
			if policy.IsCritical(code) {
				critical = true
				break
			}
		}
		if !critical {
			confidence -= advisoryFailurePenalty
		}
	}

	if citationCount == 0 {
		confidence -= noCitationPenalty
	}
	if evidenceCount == 0 {
		confidence -= noEvidencePenalty
	}

	if c.ScoreSource != "" {
		for _, result := range decision.Results {
			if result.ValidatorName == c.ScoreSource && result.Score > 0 {
				confidence = (confidence + result.Score) / 2
				break
			}
		}
	}

	if decision.CriticalFailure && confidence > criticalConfidenceCap {
		confidence = criticalConfidenceCap
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
