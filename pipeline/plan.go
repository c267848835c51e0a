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
	"fmt"
	"sort"
	"strings"
	"time"
)

// Phase is one scheduler-assigned batch of validators. Validators within
// a phase run concurrently; a phase holding a ParallelSafe=false
// validator always holds exactly that one validator.
type Phase struct {
	// Index is the phase's position in the plan.
	Index int

	// Specs are the validators in this phase, in deterministic order.
	Specs []ValidatorSpec
}

// Plan is the ordered list of phases for one validator spec set.
//
// A plan is a pure function of the static specs: it is computed once at
// startup and reused, read-only, for every request.
type Plan struct {
	phases []Phase
	byName map[string]ValidatorSpec
}

// Phases returns the ordered phases.
func (p *Plan) Phases() []Phase {
	return p.phases
}

// Len returns the number of phases.
func (p *Plan) Len() int {
	return len(p.phases)
}

// ValidatorCount returns the number of scheduled validators.
func (p *Plan) ValidatorCount() int {
	return len(p.byName)
}

// PhaseOf returns the phase index a validator was assigned to, or -1.
func (p *Plan) PhaseOf(name string) int {
	for _, phase := range p.phases {
		for _, spec := range phase.Specs {
			if spec.Name == name {
				return phase.Index
			}
		}
	}
	return -1
}

// MaxDuration returns the sum of the longest per-validator timeout in
// each phase, the upper bound on one run's execution time.
func (p *Plan) MaxDuration() time.Duration {
	var total time.Duration
	for _, phase := range p.phases {
		var longest time.Duration
		for _, spec := range phase.Specs {
			if t := spec.EffectiveTimeout(); t > longest {
				longest = t
			}
		}
		total += longest
	}
	return total
}

// NewPlan builds the execution plan for a static spec set.
//
// Description:
//
//	Performs a layered topological sort of the dependency graph. Every
//	validator lands in a phase strictly after all phases containing its
//	dependencies. Within a dependency layer, ParallelSafe=false
//	validators are split into their own single-validator phases (ordered
//	by priority descending, then name), followed by one phase holding
//	the layer's parallel-safe validators. Dependency declarations are
//	authoritative: a validator with an unmet dependency is never eligible
//	for the same phase as that dependency, regardless of its
//	parallel-safety flag.
//
// Inputs:
//
//	specs - The static validator specs. Must be non-empty.
//
// Outputs:
//
//	*Plan - The ordered phases.
//	error - ErrNoValidators, ErrDuplicateValidator, ErrSelfDependency,
//	        ErrUnknownDependency, or ErrCycle. All are configuration
//	        faults: the pipeline must refuse to initialize.
func NewPlan(specs []ValidatorSpec) (*Plan, error) {
	if len(specs) == 0 {
		return nil, ErrNoValidators
	}

	byName := make(map[string]ValidatorSpec, len(specs))
	for _, spec := range specs {
		if _, exists := byName[spec.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateValidator, spec.Name)
		}
		byName[spec.Name] = spec
	}

	// Validate the dependency relation before sorting.
	for _, spec := range specs {
		for _, dep := range spec.DependsOn {
			if dep == spec.Name {
				return nil, fmt.Errorf("%w: %q", ErrSelfDependency, spec.Name)
			}
			if _, exists := byName[dep]; !exists {
				return nil, fmt.Errorf("%w: %q depends on %q", ErrUnknownDependency, spec.Name, dep)
			}
		}
	}

	// Layered Kahn: peel off validators whose dependencies are all in
	// earlier layers. Iteration follows the input slice, so registration
	// order breaks priority ties deterministically.
	placed := make(map[string]bool, len(byName))

	plan := &Plan{byName: byName}
	for len(placed) < len(specs) {
		var layer []ValidatorSpec
		for _, spec := range specs {
			if placed[spec.Name] {
				continue
			}
			ready := true
			for _, dep := range spec.DependsOn {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, spec)
			}
		}

		if len(layer) == 0 {
			var names []string
			for _, spec := range specs {
				if !placed[spec.Name] {
					names = append(names, spec.Name)
				}
			}
			sort.Strings(names)
			return nil, fmt.Errorf("%w: involving %s", ErrCycle, strings.Join(names, ", "))
		}

		sortLayer(layer)
		for _, spec := range layer {
			placed[spec.Name] = true
		}

		plan.appendLayer(layer)
	}

	return plan, nil
}

// appendLayer splits one dependency layer into phases: solo phases for
// every ParallelSafe=false validator, then one shared phase for the rest.
func (p *Plan) appendLayer(layer []ValidatorSpec) {
	var shared []ValidatorSpec
	for _, spec := range layer {
		if spec.ParallelSafe {
			shared = append(shared, spec)
			continue
		}
		p.phases = append(p.phases, Phase{
			Index: len(p.phases),
			Specs: []ValidatorSpec{spec},
		})
	}
	if len(shared) > 0 {
		p.phases = append(p.phases, Phase{
			Index: len(p.phases),
			Specs: shared,
		})
	}
}

// sortLayer orders a layer by priority descending; ties keep the input
// (registration) order, so the plan is deterministic for a given spec
// slice.
func sortLayer(layer []ValidatorSpec) {
	sort.SliceStable(layer, func(i, j int) bool {
		return layer[i].Priority > layer[j].Priority
	})
}
