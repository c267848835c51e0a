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

import "fmt"

// Registry resolves validator names to implementations.
//
// Built once at startup from the static validator set and read-only
// afterwards, so it needs no locking.
type Registry struct {
	validators map[string]Validator
	ordered    []Validator
}

// NewRegistry builds a registry from a validator set.
//
// Inputs:
//
//	validators - The validator implementations. Names must be unique.
//
// Outputs:
//
//	*Registry - The registry.
//	error - ErrNoValidators or ErrDuplicateValidator.
func NewRegistry(validators []Validator) (*Registry, error) {
	if len(validators) == 0 {
		return nil, ErrNoValidators
	}

	r := &Registry{
		validators: make(map[string]Validator, len(validators)),
		ordered:    make([]Validator, 0, len(validators)),
	}
	for _, v := range validators {
		name := v.Spec().Name
		if _, exists := r.validators[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateValidator, name)
		}
		r.validators[name] = v
		r.ordered = append(r.ordered, v)
	}
	return r, nil
}

// Get returns the validator with the given name.
func (r *Registry) Get(name string) (Validator, bool) {
	v, ok := r.validators[name]
	return v, ok
}

// Len returns the number of registered validators.
func (r *Registry) Len() int {
	return len(r.validators)
}

// Specs returns every registered spec, in registration order.
func (r *Registry) Specs() []ValidatorSpec {
	specs := make([]ValidatorSpec, 0, len(r.ordered))
	for _, v := range r.ordered {
		specs = append(specs, v.Spec())
	}
	return specs
}

// UnconditionalSpecs returns the specs scheduled on every request,
// excluding Conditional validators and anything depending on them.
func (r *Registry) UnconditionalSpecs() []ValidatorSpec {
	conditional := make(map[string]bool)
	for _, v := range r.ordered {
		if v.Spec().Conditional {
			conditional[v.Spec().Name] = true
		}
	}

	// A dependent of a conditional validator is itself conditional;
	// propagate until fixed point so the base plan stays closed.
	for changed := true; changed; {
		changed = false
		for _, v := range r.ordered {
			spec := v.Spec()
			if conditional[spec.Name] {
				continue
			}
			for _, dep := range spec.DependsOn {
				if conditional[dep] {
					conditional[spec.Name] = true
					changed = true
					break
				}
			}
		}
	}

	specs := make([]ValidatorSpec, 0, len(r.ordered))
	for _, v := range r.ordered {
		if !conditional[v.Spec().Name] {
			specs = append(specs, v.Spec())
		}
	}
	return specs
}
