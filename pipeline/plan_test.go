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
	"errors"
	"testing"
	"time"
)

func TestNewPlan_DependenciesPrecedeDependents(t *testing.T) {
	specs := []ValidatorSpec{
		{Name: "a", ParallelSafe: true},
		{Name: "b", DependsOn: []string{"a"}, ParallelSafe: true},
		{Name: "c", DependsOn: []string{"b"}, ParallelSafe: true},
	}

	plan, err := NewPlan(specs)
	if err != nil {
		t.Fatalf("NewPlan() error: %v", err)
	}

	if plan.PhaseOf("a") >= plan.PhaseOf("b") {
		t.Error("a must run before b")
	}
	if plan.PhaseOf("b") >= plan.PhaseOf("c") {
		t.Error("b must run before c")
	}
	if plan.ValidatorCount() != 3 {
		t.Errorf("ValidatorCount() = %d, want 3", plan.ValidatorCount())
	}
}

func TestNewPlan_ParallelSafeShareOnePhase(t *testing.T) {
	specs := []ValidatorSpec{
		{Name: "a", ParallelSafe: true},
		{Name: "b", ParallelSafe: true},
		{Name: "c", ParallelSafe: true},
	}

	plan, err := NewPlan(specs)
	if err != nil {
		t.Fatalf("NewPlan() error: %v", err)
	}

	if plan.Len() != 1 {
		t.Fatalf("expected 1 phase for independent parallel-safe validators, got %d", plan.Len())
	}
	if len(plan.Phases()[0].Specs) != 3 {
		t.Errorf("expected all 3 validators in one phase, got %d", len(plan.Phases()[0].Specs))
	}
}

func TestNewPlan_NonParallelSafeGetSoloPhases(t *testing.T) {
	specs := []ValidatorSpec{
		{Name: "solo1", ParallelSafe: false},
		{Name: "shared1", ParallelSafe: true},
		{Name: "solo2", ParallelSafe: false},
		{Name: "shared2", ParallelSafe: true},
	}

	plan, err := NewPlan(specs)
	if err != nil {
		t.Fatalf("NewPlan() error: %v", err)
	}

	// Two solo phases plus one shared phase.
	if plan.Len() != 3 {
		t.Fatalf("expected 3 phases, got %d", plan.Len())
	}
	for _, phase := range plan.Phases() {
		for _, spec := range phase.Specs {
			if !spec.ParallelSafe && len(phase.Specs) != 1 {
				t.Errorf("non-parallel-safe %q shares a phase with %d others",
					spec.Name, len(phase.Specs)-1)
			}
		}
	}
}

func TestNewPlan_PriorityOrdersSoloPhases(t *testing.T) {
	specs := []ValidatorSpec{
		{Name: "low", Priority: PriorityLow},
		{Name: "critical", Priority: PriorityCritical},
		{Name: "normal", Priority: PriorityNormal},
	}

	plan, err := NewPlan(specs)
	if err != nil {
		t.Fatalf("NewPlan() error: %v", err)
	}

	if plan.PhaseOf("critical") != 0 {
		t.Errorf("critical priority should run first, got phase %d", plan.PhaseOf("critical"))
	}
	if plan.PhaseOf("normal") != 1 {
		t.Errorf("normal priority should run second, got phase %d", plan.PhaseOf("normal"))
	}
	if plan.PhaseOf("low") != 2 {
		t.Errorf("low priority should run last, got phase %d", plan.PhaseOf("low"))
	}
}

func TestNewPlan_TieBreakKeepsRegistrationOrder(t *testing.T) {
	specs := []ValidatorSpec{
		{Name: "zeta", Priority: PriorityCritical},
		{Name: "alpha", Priority: PriorityCritical},
	}

	plan, err := NewPlan(specs)
	if err != nil {
		t.Fatalf("NewPlan() error: %v", err)
	}

	if plan.PhaseOf("zeta") != 0 || plan.PhaseOf("alpha") != 1 {
		t.Errorf("equal priorities must keep registration order: zeta=%d alpha=%d",
			plan.PhaseOf("zeta"), plan.PhaseOf("alpha"))
	}
}

func TestNewPlan_Deterministic(t *testing.T) {
	specs := []ValidatorSpec{
		{Name: "a", Priority: PriorityCritical},
		{Name: "b", DependsOn: []string{"a"}, ParallelSafe: true},
		{Name: "c", DependsOn: []string{"a"}, ParallelSafe: true},
		{Name: "d", DependsOn: []string{"b", "c"}},
	}

	first, err := NewPlan(specs)
	if err != nil {
		t.Fatalf("NewPlan() error: %v", err)
	}

	for i := 0; i < 20; i++ {
		again, err := NewPlan(specs)
		if err != nil {
			t.Fatalf("NewPlan() error: %v", err)
		}
		if again.Len() != first.Len() {
			t.Fatalf("phase count changed between runs: %d vs %d", again.Len(), first.Len())
		}
		for p, phase := range again.Phases() {
			for s, spec := range phase.Specs {
				if spec.Name != first.Phases()[p].Specs[s].Name {
					t.Fatalf("phase %d slot %d changed: %q vs %q",
						p, s, spec.Name, first.Phases()[p].Specs[s].Name)
				}
			}
		}
	}
}

func TestNewPlan_Empty(t *testing.T) {
	_, err := NewPlan(nil)
	if !errors.Is(err, ErrNoValidators) {
		t.Errorf("expected ErrNoValidators, got %v", err)
	}
}

func TestNewPlan_DuplicateName(t *testing.T) {
	_, err := NewPlan([]ValidatorSpec{{Name: "dup"}, {Name: "dup"}})
	if !errors.Is(err, ErrDuplicateValidator) {
		t.Errorf("expected ErrDuplicateValidator, got %v", err)
	}
}

func TestNewPlan_UnknownDependency(t *testing.T) {
	_, err := NewPlan([]ValidatorSpec{{Name: "a", DependsOn: []string{"ghost"}}})
	if !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("expected ErrUnknownDependency, got %v", err)
	}
}

func TestNewPlan_SelfDependency(t *testing.T) {
	_, err := NewPlan([]ValidatorSpec{{Name: "a", DependsOn: []string{"a"}}})
	if !errors.Is(err, ErrSelfDependency) {
		t.Errorf("expected ErrSelfDependency, got %v", err)
	}
}

func TestNewPlan_Cycle(t *testing.T) {
	_, err := NewPlan([]ValidatorSpec{
		{Name: "a", DependsOn: []string{"c"}},
		{Name: "b", DependsOn: []string{"a"}},
		{Name: "c", DependsOn: []string{"b"}},
	})
	if !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
}

func TestPlan_MaxDuration(t *testing.T) {
	plan, err := NewPlan([]ValidatorSpec{
		{Name: "a", Timeout: 2 * time.Second, ParallelSafe: true},
		{Name: "b", Timeout: 3 * time.Second, ParallelSafe: true},
		{Name: "c", DependsOn: []string{"a"}, Timeout: time.Second},
	})
	if err != nil {
		t.Fatalf("NewPlan() error: %v", err)
	}

	// Shared phase bounded by the longest member, plus the solo phase.
	want := 3*time.Second + time.Second
	if got := plan.MaxDuration(); got != want {
		t.Errorf("MaxDuration() = %v, want %v", got, want)
	}
}

func TestPlan_PhaseOfUnknown(t *testing.T) {
	plan, err := NewPlan([]ValidatorSpec{{Name: "only"}})
	if err != nil {
		t.Fatalf("NewPlan() error: %v", err)
	}
	if plan.PhaseOf("missing") != -1 {
		t.Error("PhaseOf() should return -1 for unknown validators")
	}
}
