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

import "errors"

// Sentinel errors for pipeline construction.
//
// All of these are configuration faults: they surface at startup from
// NewPlan or NewPipeline, and a pipeline that failed to construct refuses
// to serve requests. A running pipeline never returns them.
var (
	// ErrNoValidators indicates an empty spec set.
	ErrNoValidators = errors.New("no validators registered")

	// ErrDuplicateValidator indicates two specs share a name.
	ErrDuplicateValidator = errors.New("duplicate validator name")

	// ErrUnknownDependency indicates a spec depends on an unregistered name.
	ErrUnknownDependency = errors.New("dependency references unknown validator")

	// ErrCycle indicates the dependency relation is not acyclic.
	ErrCycle = errors.New("dependency cycle detected")

	// ErrSelfDependency indicates a spec depends on itself.
	ErrSelfDependency = errors.New("validator depends on itself")

	// ErrNilInput indicates Validate was called with a nil input.
	ErrNilInput = errors.New("validation input must not be nil")

	// ErrNilContext indicates a nil context was passed.
	ErrNilContext = errors.New("context must not be nil")
)
