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
	"testing"
	"time"
)

// stubValidator is a scriptable validator for executor and pipeline tests.
type stubValidator struct {
	spec ValidatorSpec
	eval func(ctx context.Context, input *ValidationInput, prior PriorResults) ValidationResult
}

func (s *stubValidator) Spec() ValidatorSpec { return s.spec }

func (s *stubValidator) Evaluate(ctx context.Context, input *ValidationInput, prior PriorResults) ValidationResult {
	if s.eval != nil {
		return s.eval(ctx, input, prior)
	}
	return ValidationResult{ValidatorName: s.spec.Name, Passed: true}
}

func passingStub(name string, deps ...string) *stubValidator {
	return &stubValidator{
		spec: ValidatorSpec{Name: name, DependsOn: deps, ParallelSafe: true},
	}
}

func mustExecutorFixture(t *testing.T, validators ...Validator) (*Executor, *Plan) {
	t.Helper()
	registry, err := NewRegistry(validators)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	plan, err := NewPlan(registry.Specs())
	if err != nil {
		t.Fatalf("NewPlan() error: %v", err)
	}
	return NewExecutor(registry, nil), plan
}

func testInput() *ValidationInput {
	return &ValidationInput{
		Answer:   "The reservoir holds 12 million liters [source:hydro-report].",
		Question: "How much water does the reservoir hold?",
		Evidence: []EvidenceDocument{
			{Text: "The reservoir holds 12 million liters.", SourceID: "hydro-report"},
		},
	}
}

func TestExecutor_EveryValidatorContributesOneResult(t *testing.T) {
	executor, plan := mustExecutorFixture(t,
		passingStub("a"),
		passingStub("b"),
		passingStub("c", "a"),
	)

	phases := executor.Run(context.Background(), plan, testInput(), "run-1")

	total := 0
	seen := map[string]bool{}
	for _, phase := range phases {
		for _, r := range phase {
			total++
			seen[r.ValidatorName] = true
		}
	}
	if total != 3 {
		t.Errorf("expected 3 results, got %d", total)
	}
	for _, name := range []string{"a", "b", "c"} {
		if !seen[name] {
			t.Errorf("missing result for %q", name)
		}
	}
}

func TestExecutor_TimeoutDegradesToSyntheticFailure(t *testing.T) {
	slow := &stubValidator{
		spec: ValidatorSpec{Name: "slow", Timeout: 30 * time.Millisecond, ParallelSafe: true},
		eval: func(ctx context.Context, _ *ValidationInput, _ PriorResults) ValidationResult {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				// Simulate a validator that ignores cancellation anyway.
				time.Sleep(200 * time.Millisecond)
			}
			return ValidationResult{ValidatorName: "slow", Passed: true}
		},
	}
	executor, plan := mustExecutorFixture(t, slow, passingStub("sibling"))

	start := time.Now()
	phases := executor.Run(context.Background(), plan, testInput(), "run-timeout")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("run should not wait out the hung validator, took %v", elapsed)
	}

	var slowResult, siblingResult *ValidationResult
	for _, phase := range phases {
		for i := range phase {
			switch phase[i].ValidatorName {
			case "slow":
				slowResult = &phase[i]
			case "sibling":
				siblingResult = &phase[i]
			}
		}
	}

	if slowResult == nil {
		t.Fatal("missing synthetic result for timed-out validator")
	}
	if slowResult.Passed {
		t.Error("timed-out validator must fail")
	}
	if len(slowResult.ReasonCodes) != 1 || slowResult.ReasonCodes[0] != "timeout:slow" {
		t.Errorf("expected [timeout:slow], got %v", slowResult.ReasonCodes)
	}
	if siblingResult == nil || !siblingResult.Passed {
		t.Error("sibling validator must complete normally")
	}
}

func TestExecutor_PanicDegradesToSyntheticFailure(t *testing.T) {
	angry := &stubValidator{
		spec: ValidatorSpec{Name: "angry", ParallelSafe: true},
		eval: func(context.Context, *ValidationInput, PriorResults) ValidationResult {
			panic("nil map write")
		},
	}
	executor, plan := mustExecutorFixture(t, angry, passingStub("calm"))

	phases := executor.Run(context.Background(), plan, testInput(), "run-panic")

	var angryResult *ValidationResult
	calmPassed := false
	for _, phase := range phases {
		for i := range phase {
			if phase[i].ValidatorName == "angry" {
				angryResult = &phase[i]
			}
			if phase[i].ValidatorName == "calm" && phase[i].Passed {
				calmPassed = true
			}
		}
	}

	if angryResult == nil {
		t.Fatal("missing synthetic result for panicked validator")
	}
	if angryResult.Passed {
		t.Error("panicked validator must fail")
	}
	if len(angryResult.ReasonCodes) != 1 || angryResult.ReasonCodes[0] != "error:angry" {
		t.Errorf("expected [error:angry], got %v", angryResult.ReasonCodes)
	}
	if !calmPassed {
		t.Error("sibling of a panicked validator must complete normally")
	}
}

func TestExecutor_LaterPhasesSeePriorResults(t *testing.T) {
	first := &stubValidator{
		spec: ValidatorSpec{Name: "first", ParallelSafe: true},
		eval: func(context.Context, *ValidationInput, PriorResults) ValidationResult {
			return ValidationResult{
				ValidatorName: "first",
				Passed:        false,
				ReasonCodes:   []string{"needs_patch"},
				PatchedAnswer: "patched text",
			}
		},
	}

	var sawFirst bool
	var sawEffective string
	second := &stubValidator{
		spec: ValidatorSpec{Name: "second", DependsOn: []string{"first"}, ParallelSafe: true},
		eval: func(_ context.Context, _ *ValidationInput, prior PriorResults) ValidationResult {
			_, sawFirst = prior.Get("first")
			sawEffective = prior.EffectiveAnswer()
			return ValidationResult{ValidatorName: "second", Passed: true}
		},
	}

	executor, plan := mustExecutorFixture(t, first, second)
	executor.Run(context.Background(), plan, testInput(), "run-prior")

	if !sawFirst {
		t.Error("dependent validator should see its dependency's result")
	}
	if sawEffective != "patched text" {
		t.Errorf("dependent should see the patched answer, got %q", sawEffective)
	}
}

func TestExecutor_PeersInOnePhaseDoNotSeeEachOther(t *testing.T) {
	var peerVisible bool
	a := &stubValidator{
		spec: ValidatorSpec{Name: "peer_a", ParallelSafe: true},
		eval: func(_ context.Context, _ *ValidationInput, prior PriorResults) ValidationResult {
			_, peerVisible = prior.Get("peer_b")
			return ValidationResult{ValidatorName: "peer_a", Passed: true}
		},
	}
	b := passingStub("peer_b")

	executor, plan := mustExecutorFixture(t, a, b)
	if plan.Len() != 1 {
		t.Fatalf("fixture expects one shared phase, got %d", plan.Len())
	}
	executor.Run(context.Background(), plan, testInput(), "run-peers")

	if peerVisible {
		t.Error("a validator must not observe results from its own phase")
	}
}

func TestExecutor_ResultNameAlwaysStamped(t *testing.T) {
	anonymous := &stubValidator{
		spec: ValidatorSpec{Name: "anon", ParallelSafe: true},
		eval: func(context.Context, *ValidationInput, PriorResults) ValidationResult {
			// Forgets to set ValidatorName.
			return ValidationResult{Passed: true}
		},
	}
	executor, plan := mustExecutorFixture(t, anonymous)

	phases := executor.Run(context.Background(), plan, testInput(), "run-name")
	if phases[0][0].ValidatorName != "anon" {
		t.Errorf("executor should stamp the validator name, got %q", phases[0][0].ValidatorName)
	}
	if phases[0][0].Elapsed <= 0 {
		t.Error("executor should stamp a positive elapsed duration")
	}
}

func TestNewPriorResults(t *testing.T) {
	prior := NewPriorResults([]ValidationResult{
		{ValidatorName: "x", Passed: true},
	}, "effective")

	if r, ok := prior.Get("x"); !ok || !r.Passed {
		t.Error("Get should return the seeded result")
	}
	if prior.EffectiveAnswer() != "effective" {
		t.Errorf("EffectiveAnswer() = %q", prior.EffectiveAnswer())
	}
	if prior.Len() != 1 {
		t.Errorf("Len() = %d, want 1", prior.Len())
	}
}
