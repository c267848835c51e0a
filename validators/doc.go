// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validators contains the built-in checks the pipeline runs over
// a candidate answer and its evidence.
//
// Each validator is a self-contained heuristic behind the
// pipeline.Validator interface: it declares its scheduling metadata
// (priority, dependencies, parallel safety, timeout) in its Spec and does
// all of its work in Evaluate. Validators are stateless after
// construction and safe for concurrent use; thresholds come from an
// immutable Config captured at construction time, never from global
// state.
//
// DefaultValidators wires the standard set in registration order. The
// order matters only for priority ties in the execution plan; the
// dependency declarations are what actually sequence data flow.
package validators
