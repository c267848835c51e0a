// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package veracity

import "errors"

// Sentinel errors for the service layer.
var (
	// ErrNilPipeline is returned when the service is built without a
	// pipeline.
	ErrNilPipeline = errors.New("pipeline must not be nil")

	// ErrNilRecorder is returned when the service is built without a
	// trace recorder.
	ErrNilRecorder = errors.New("trace recorder must not be nil")

	// ErrEmptyTraceID is returned for a trace lookup with a blank id.
	ErrEmptyTraceID = errors.New("trace id must not be empty")
)
