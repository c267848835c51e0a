// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validators

import (
	"context"
	"regexp"
	"time"

	"github.com/VeracityAI/veracity/pipeline"
)

// Reason codes emitted by PhilosophicalDepth. Both advisory.
const (
	// CodePhilosophicalContext marks a run handled under relaxed
	// grounding rules. Emitted on pass so the trace shows the regime.
	CodePhilosophicalContext = "philosophical_context"

	// CodeShallowReflection marks an answer that treats a reflective
	// question as a settled factual one.
	CodeShallowReflection = "shallow_reflection"
)

// reflectiveMarkerPattern matches language that engages a question as
// open rather than settled.
var reflectiveMarkerPattern = regexp.MustCompile(
	`(?i)\b(perspectives?|interpretations?|depends\s+on|some\s+(argue|hold|believe)|others\s+(argue|hold|see)|values?|meaning|subjective|traditions?|philosoph\w*|ethic\w*|moral\w*|on\s+(the\s+)?one\s+hand|on\s+the\s+other\s+hand|trade-?offs?|tension|open\s+question|reasonable\s+people\s+disagree)\b`,
)

// PhilosophicalDepth checks that an answer to a reflective question
// actually engages it.
//
// Scheduled only when the caller flags the input as philosophical.
// Rather than demanding citations for the uncitable, it asks the
// opposite: does the answer acknowledge the question's openness? An
// answer with too few reflective markers is flagged shallow. The score
// is marker density, available to later readers of the trace.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type PhilosophicalDepth struct {
	cfg PhilosophicalDepthConfig
}

// NewPhilosophicalDepth creates the reflective-depth validator.
func NewPhilosophicalDepth(cfg PhilosophicalDepthConfig) *PhilosophicalDepth {
	if cfg.MinMarkers <= 0 {
		cfg.MinMarkers = 2
	}
	return &PhilosophicalDepth{cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *PhilosophicalDepth) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NamePhilosophicalDepth,
		Priority:     pipeline.PriorityLow,
		ParallelSafe: true,
		Timeout:      v.cfg.Timeout,
		Conditional:  true,
	}
}

// Evaluate implements pipeline.Validator.
func (v *PhilosophicalDepth) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	markers := reflectiveMarkerPattern.FindAllString(input.Answer, -1)

	sentences := splitSentences(input.Answer)
	score := 0.0
	if len(sentences) > 0 {
		score = float64(len(markers)) / float64(len(sentences))
		if score > 1 {
			score = 1
		}
	}

	if len(markers) < v.cfg.MinMarkers {
		return pipeline.ValidationResult{
			ValidatorName: NamePhilosophicalDepth,
			Passed:        false,
			ReasonCodes:   []string{CodeShallowReflection},
			Score:         score,
			Elapsed:       time.Since(start),
		}
	}

	return pipeline.ValidationResult{
		ValidatorName: NamePhilosophicalDepth,
		Passed:        true,
		ReasonCodes:   []string{CodePhilosophicalContext},
		Score:         score,
		Elapsed:       time.Since(start),
	}
}
