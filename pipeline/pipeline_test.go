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
	"context"
	"errors"
	"reflect"
	"testing"
)

func mustPipeline(t *testing.T, cfg Config, validators ...Validator) *Pipeline {
	t.Helper()
	registry, err := NewRegistry(validators)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	p, err := NewPipeline(registry, cfg)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	return p
}

func TestNewPipeline_NilRegistry(t *testing.T) {
	_, err := NewPipeline(nil, Config{})
	if !errors.Is(err, ErrNoValidators) {
		t.Errorf("expected ErrNoValidators, got %v", err)
	}
}

func TestNewPipeline_ConfigurationFaultIsPermanent(t *testing.T) {
	a := &stubValidator{spec: ValidatorSpec{Name: "a", DependsOn: []string{"b"}}}
	b := &stubValidator{spec: ValidatorSpec{Name: "b", DependsOn: []string{"a"}}}

	registry, err := NewRegistry([]Validator{a, b})
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	if _, err := NewPipeline(registry, Config{}); !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
}

func TestValidate_NilArguments(t *testing.T) {
	p := mustPipeline(t, Config{}, passingStub("only"))

	if _, err := p.Validate(nil, testInput()); !errors.Is(err, ErrNilContext) { //nolint:staticcheck
		t.Errorf("expected ErrNilContext, got %v", err)
	}
	if _, err := p.Validate(context.Background(), nil); !errors.Is(err, ErrNilInput) {
		t.Errorf("expected ErrNilInput, got %v", err)
	}
}

func TestValidate_AllPassingServesOriginal(t *testing.T) {
	p := mustPipeline(t, Config{}, passingStub("a"), passingStub("b"))
	input := testInput()

	outcome, err := p.Validate(context.Background(), input)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if outcome.TraceID == "" {
		t.Error("expected a trace id")
	}
	if outcome.FinalAnswer != input.Answer {
		t.Errorf("FinalAnswer = %q, want the original", outcome.FinalAnswer)
	}
	if outcome.CriticalFailure {
		t.Error("unexpected critical failure")
	}
	if outcome.EpistemicState != StateKnown {
		t.Errorf("state = %s, want KNOWN for a cited, evidenced, passing run", outcome.EpistemicState)
	}
	if len(outcome.Phases) != 1 {
		t.Errorf("expected 1 phase, got %d", len(outcome.Phases))
	}
}

func TestValidate_CriticalFailureSubstitutesFallback(t *testing.T) {
	blocker := &stubValidator{
		spec: ValidatorSpec{Name: "cite", Priority: PriorityCritical},
		eval: func(context.Context, *ValidationInput, PriorResults) ValidationResult {
			return ValidationResult{
				ValidatorName: "cite",
				Passed:        false,
				ReasonCodes:   []string{CodeMissingCitation},
			}
		},
	}
	p := mustPipeline(t, Config{}, blocker, passingStub("other"))
	input := testInput()

	outcome, err := p.Validate(context.Background(), input)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if !outcome.CriticalFailure {
		t.Fatal("expected CriticalFailure")
	}
	if outcome.FinalAnswer == input.Answer {
		t.Error("fallback must replace the blocked answer")
	}
	if outcome.EpistemicState != StateUnknown {
		t.Errorf("state = %s, want UNKNOWN", outcome.EpistemicState)
	}
	if outcome.Confidence > 0.2 {
		t.Errorf("confidence = %v, want capped at 0.2", outcome.Confidence)
	}
}

func TestValidate_PatchedAnswerServedWhenNotCritical(t *testing.T) {
	patcher := &stubValidator{
		spec: ValidatorSpec{Name: "patcher", ParallelSafe: true},
		eval: func(_ context.Context, input *ValidationInput, _ PriorResults) ValidationResult {
			return ValidationResult{
				ValidatorName: "patcher",
				Passed:        false,
				ReasonCodes:   []string{"low_overlap"},
				PatchedAnswer: input.Answer + "\n\nSources: [source:hydro-report]",
			}
		},
	}
	p := mustPipeline(t, Config{}, patcher)
	input := testInput()

	outcome, err := p.Validate(context.Background(), input)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if outcome.CriticalFailure {
		t.Fatal("advisory failure must not block")
	}
	if outcome.FinalAnswer == input.Answer {
		t.Error("expected the patched answer to be served")
	}
}

func TestValidate_ConditionalValidatorsOnlyWithFlag(t *testing.T) {
	ran := map[string]int{}
	mark := func(name string, conditional bool) *stubValidator {
		return &stubValidator{
			spec: ValidatorSpec{Name: name, ParallelSafe: true, Conditional: conditional},
			eval: func(context.Context, *ValidationInput, PriorResults) ValidationResult {
				ran[name]++
				return ValidationResult{ValidatorName: name, Passed: true}
			},
		}
	}
	p := mustPipeline(t, Config{}, mark("always", false), mark("reflective", true))

	input := testInput()
	if _, err := p.Validate(context.Background(), input); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if ran["reflective"] != 0 {
		t.Error("conditional validator must not run without the flag")
	}
	if ran["always"] != 1 {
		t.Error("unconditional validator must run")
	}

	input.Flags.IsPhilosophical = true
	if _, err := p.Validate(context.Background(), input); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if ran["reflective"] != 1 {
		t.Error("conditional validator must run with the flag")
	}
}

func TestValidate_DeterministicAcrossRuns(t *testing.T) {
	advisory := &stubValidator{
		spec: ValidatorSpec{Name: "advisory", ParallelSafe: true},
		eval: func(context.Context, *ValidationInput, PriorResults) ValidationResult {
			return ValidationResult{
				ValidatorName: "advisory",
				Passed:        false,
				ReasonCodes:   []string{"low_overlap"},
				Score:         0.42,
			}
		},
	}
	p := mustPipeline(t, Config{ScoreSource: "advisory"}, advisory, passingStub("steady"))
	input := testInput()

	first, err := p.Validate(context.Background(), input)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := p.Validate(context.Background(), input)
		if err != nil {
			t.Fatalf("Validate() error: %v", err)
		}
		if again.FinalAnswer != first.FinalAnswer ||
			again.Confidence != first.Confidence ||
			again.EpistemicState != first.EpistemicState ||
			again.CriticalFailure != first.CriticalFailure ||
			!reflect.DeepEqual(again.ReasonCodes, first.ReasonCodes) {
			t.Fatalf("identical inputs produced different outcomes:\n%+v\n%+v", again, first)
		}
	}
}

func TestValidate_InputNeverMutated(t *testing.T) {
	patcher := &stubValidator{
		spec: ValidatorSpec{Name: "patcher", ParallelSafe: true},
		eval: func(context.Context, *ValidationInput, PriorResults) ValidationResult {
			return ValidationResult{
				ValidatorName: "patcher",
				Passed:        true,
				PatchedAnswer: "rewritten",
			}
		},
	}
	p := mustPipeline(t, Config{}, patcher)

	input := testInput()
	originalAnswer := input.Answer
	originalEvidence := input.Evidence[0].Text

	if _, err := p.Validate(context.Background(), input); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if input.Answer != originalAnswer {
		t.Error("input answer was mutated")
	}
	if input.Evidence[0].Text != originalEvidence {
		t.Error("input evidence was mutated")
	}
}

func TestPipeline_PlanSelection(t *testing.T) {
	p := mustPipeline(t, Config{},
		passingStub("base"),
		&stubValidator{spec: ValidatorSpec{Name: "cond", ParallelSafe: true, Conditional: true}},
	)

	base := p.Plan(InputFlags{})
	full := p.Plan(InputFlags{IsPhilosophical: true})

	if base.ValidatorCount() != 1 {
		t.Errorf("base plan validators = %d, want 1", base.ValidatorCount())
	}
	if full.ValidatorCount() != 2 {
		t.Errorf("full plan validators = %d, want 2", full.ValidatorCount())
	}
	if base.PhaseOf("cond") != -1 {
		t.Error("conditional validator must not appear in the base plan")
	}
}
