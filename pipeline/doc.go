// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline implements the validation and trust-decision pipeline.
//
// The pipeline takes a candidate LLM answer plus the evidence documents it
// was produced from, runs a set of validators over it, and decides whether
// to serve the answer as-is, serve a validator-patched version, or
// substitute a safe fallback. Alongside the answer it emits a calibrated
// confidence score and a three-state trust label (KNOWN / UNCERTAIN /
// UNKNOWN).
//
// Execution model:
//
//	specs -> Plan (ordered phases) -> Executor (phases sequential,
//	validators within a phase concurrent) -> AggregateDecision ->
//	CriticalityPolicy -> FallbackSelector -> EpistemicClassifier
//
// The plan is a pure function of the static validator specs and is
// computed once at startup. Validator runtime faults (panics, timeouts)
// are degraded to synthetic failing results and never abort sibling
// validators or the run.
//
// Thread Safety:
//
//	Pipeline is safe for concurrent use. One Validate call corresponds to
//	one pipeline run; runs share no mutable state.
package pipeline
