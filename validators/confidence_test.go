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
	"testing"

	"github.com/VeracityAI/veracity/pipeline"
)

func TestConfidence_DependsOnSourceConsensus(t *testing.T) {
	v := NewConfidence(DefaultConfig().Confidence)
	spec := v.Spec()

	if len(spec.DependsOn) != 1 || spec.DependsOn[0] != NameSourceConsensus {
		t.Errorf("expected dependency on %s, got %v", NameSourceConsensus, spec.DependsOn)
	}
}

func TestConfidence_WellGroundedRunScoresHigh(t *testing.T) {
	v := NewConfidence(DefaultConfig().Confidence)

	prior := pipeline.NewPriorResults([]pipeline.ValidationResult{
		{ValidatorName: NameEvidenceOverlap, Passed: true, Score: 0.4},
		{ValidatorName: NameSourceConsensus, Passed: true},
	}, "")

	result := v.Evaluate(context.Background(), &pipeline.ValidationInput{
		Answer: "The bridge opened in 1937 [source:bridge-history].",
		Evidence: []pipeline.EvidenceDocument{
			{Text: "The bridge opened in 1937.", SourceID: "bridge-history"},
		},
	}, prior)

	if !result.Passed {
		t.Fatalf("expected pass, got %v", result.ReasonCodes)
	}
	// base 0.5 + citation 0.2 + evidence 0.1 + saturated overlap 0.2
	if result.Score < 0.9 {
		t.Errorf("expected full grounding score, got %f", result.Score)
	}
}

func TestConfidence_ConflictLowersScore(t *testing.T) {
	v := NewConfidence(DefaultConfig().Confidence)

	clean := pipeline.NewPriorResults([]pipeline.ValidationResult{
		{ValidatorName: NameSourceConsensus, Passed: true},
	}, "")
	conflicted := pipeline.NewPriorResults([]pipeline.ValidationResult{
		{ValidatorName: NameSourceConsensus, Passed: false, ReasonCodes: []string{CodeSourceConflict}},
	}, "")

	input := &pipeline.ValidationInput{
		Answer: "The tower is 324 meters tall [doc 1].",
		Evidence: []pipeline.EvidenceDocument{
			{Text: "The tower is 324 meters tall.", SourceID: "registry"},
		},
	}

	cleanScore := v.Evaluate(context.Background(), input, clean).Score
	conflictScore := v.Evaluate(context.Background(), input, conflicted).Score

	if conflictScore >= cleanScore {
		t.Errorf("conflict must lower the score: clean %f, conflicted %f", cleanScore, conflictScore)
	}
}

func TestConfidence_AssertionWithoutContextBlocked(t *testing.T) {
	v := NewConfidence(DefaultConfig().Confidence)

	result := v.Evaluate(context.Background(), &pipeline.ValidationInput{
		Question: "Who designed the facility?",
		Answer:   "The facility was designed by Helena Markov in 1952.",
	}, pipeline.NewPriorResults(nil, ""))

	if result.Passed {
		t.Fatal("expected missing_uncertainty_no_context")
	}
	if result.ReasonCodes[0] != pipeline.CodeMissingUncertainty {
		t.Errorf("expected %s, got %v", pipeline.CodeMissingUncertainty, result.ReasonCodes)
	}
}

func TestConfidence_HedgedAnswerWithoutContextAllowed(t *testing.T) {
	v := NewConfidence(DefaultConfig().Confidence)

	result := v.Evaluate(context.Background(), &pipeline.ValidationInput{
		Answer: "I'm not certain, but the facility may have been designed by Helena Markov.",
	}, pipeline.NewPriorResults(nil, ""))

	for _, code := range result.ReasonCodes {
		if code == pipeline.CodeMissingUncertainty {
			t.Fatal("hedged answers must not trigger the no-context guard")
		}
	}
}

func TestConfidence_PhilosophicalRunExempt(t *testing.T) {
	v := NewConfidence(DefaultConfig().Confidence)

	result := v.Evaluate(context.Background(), &pipeline.ValidationInput{
		Answer: "Socrates held that the unexamined life is not worth living, and many traditions agree.",
		Flags:  pipeline.InputFlags{IsPhilosophical: true},
	}, pipeline.NewPriorResults(nil, ""))

	for _, code := range result.ReasonCodes {
		if code == pipeline.CodeMissingUncertainty {
			t.Fatal("philosophical runs are exempt from the no-context guard")
		}
	}
}

func TestConfidence_TimeoutPenalty(t *testing.T) {
	v := NewConfidence(DefaultConfig().Confidence)

	degraded := pipeline.NewPriorResults([]pipeline.ValidationResult{
		{ValidatorName: NameSourceConsensus, Passed: true},
		{ValidatorName: NameEvidenceOverlap, Passed: false, ReasonCodes: []string{"timeout:" + NameEvidenceOverlap}},
	}, "")
	healthy := pipeline.NewPriorResults([]pipeline.ValidationResult{
		{ValidatorName: NameSourceConsensus, Passed: true},
		{ValidatorName: NameEvidenceOverlap, Passed: true, Score: 0.01},
	}, "")

	input := &pipeline.ValidationInput{
		Answer: "The tower is 324 meters tall [doc 1].",
		Evidence: []pipeline.EvidenceDocument{
			{Text: "The tower is 324 meters tall.", SourceID: "registry"},
		},
	}

	degradedScore := v.Evaluate(context.Background(), input, degraded).Score
	healthyScore := v.Evaluate(context.Background(), input, healthy).Score

	if degradedScore >= healthyScore {
		t.Errorf("a timed-out sibling is a blind spot: degraded %f, healthy %f", degradedScore, healthyScore)
	}
}
