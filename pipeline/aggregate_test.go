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

import (
	"reflect"
	"testing"
)

func TestDefaultCriticalityPolicy(t *testing.T) {
	policy := DefaultCriticalityPolicy()

	criticals := []string{
		CodeMissingCitation,
		CodeMissingUncertainty,
		CodeLanguageMismatch,
		CodeFabricatedClaim,
		CodeEthicsViolation,
		"ethics_violation:self_harm",
	}
	for _, code := range criticals {
		if !policy.IsCritical(code) {
			t.Errorf("%q should be critical", code)
		}
	}

	advisories := []string{
		"low_overlap",
		"low_confidence",
		"timeout:confidence",
		"error:evidence_overlap",
		"percent_out_of_range",
	}
	for _, code := range advisories {
		if policy.IsCritical(code) {
			t.Errorf("%q should be advisory", code)
		}
	}
}

func TestAggregate_AllPassed(t *testing.T) {
	input := &ValidationInput{Answer: "original"}
	phases := [][]ValidationResult{
		{{ValidatorName: "a", Passed: true}},
		{{ValidatorName: "b", Passed: true}},
	}

	decision := Aggregate(input, phases, DefaultCriticalityPolicy())

	if !decision.AllPassed {
		t.Error("AllPassed should be true")
	}
	if decision.CriticalFailure {
		t.Error("CriticalFailure should be false")
	}
	if decision.FinalAnswer != "original" {
		t.Errorf("FinalAnswer = %q, want the original", decision.FinalAnswer)
	}
	if len(decision.Results) != 2 {
		t.Errorf("Results length = %d, want 2", len(decision.Results))
	}
}

func TestAggregate_CriticalStays(t *testing.T) {
	input := &ValidationInput{Answer: "original"}
	phases := [][]ValidationResult{
		{{ValidatorName: "cite", Passed: false, ReasonCodes: []string{CodeMissingCitation}}},
		{{ValidatorName: "later", Passed: true}},
	}

	decision := Aggregate(input, phases, DefaultCriticalityPolicy())

	if !decision.CriticalFailure {
		t.Error("a critical failure must persist through later passing phases")
	}
	if decision.AllPassed {
		t.Error("AllPassed should be false")
	}
}

func TestAggregate_AdvisoryIsNotCritical(t *testing.T) {
	input := &ValidationInput{Answer: "original"}
	phases := [][]ValidationResult{
		{{ValidatorName: "overlap", Passed: false, ReasonCodes: []string{"low_overlap"}}},
	}

	decision := Aggregate(input, phases, DefaultCriticalityPolicy())

	if decision.CriticalFailure {
		t.Error("advisory failure must not set CriticalFailure")
	}
	if decision.AllPassed {
		t.Error("AllPassed should be false")
	}
}

func TestAggregate_LastPatchWins(t *testing.T) {
	input := &ValidationInput{Answer: "original"}
	phases := [][]ValidationResult{
		{{ValidatorName: "a", Passed: false, ReasonCodes: []string{"low_overlap"}, PatchedAnswer: "first patch"}},
		{{ValidatorName: "b", Passed: true, PatchedAnswer: "second patch"}},
		{{ValidatorName: "c", Passed: true}},
	}

	decision := Aggregate(input, phases, DefaultCriticalityPolicy())

	if decision.FinalAnswer != "second patch" {
		t.Errorf("FinalAnswer = %q, want the last patch in phase order", decision.FinalAnswer)
	}
}

func TestAggregate_ReasonCodesDedupedInFirstAppearanceOrder(t *testing.T) {
	input := &ValidationInput{Answer: "original"}
	phases := [][]ValidationResult{
		{{ValidatorName: "a", Passed: false, ReasonCodes: []string{"low_overlap", "low_confidence"}}},
		{{ValidatorName: "b", Passed: false, ReasonCodes: []string{"low_overlap", "source_conflict"}}},
	}

	decision := Aggregate(input, phases, DefaultCriticalityPolicy())

	want := []string{"low_overlap", "low_confidence", "source_conflict"}
	if !reflect.DeepEqual(decision.ReasonCodes, want) {
		t.Errorf("ReasonCodes = %v, want %v", decision.ReasonCodes, want)
	}
}

func TestNewCriticalityPolicy_CustomCodes(t *testing.T) {
	policy := NewCriticalityPolicy([]string{"house_rule"}, []string{"policy:"})

	if !policy.IsCritical("house_rule") {
		t.Error("exact custom code should be critical")
	}
	if !policy.IsCritical("policy:profanity") {
		t.Error("prefixed custom code should be critical")
	}
	if policy.IsCritical(CodeMissingCitation) {
		t.Error("custom policy should not inherit default codes")
	}
}
