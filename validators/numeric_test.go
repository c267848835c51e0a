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
	"testing"

	"github.com/VeracityAI/veracity/pipeline"
)

func evalNumeric(t *testing.T, answer string) pipeline.ValidationResult {
	t.Helper()
	v := NewNumericUnits(DefaultConfig().Numeric)
	return v.Evaluate(context.Background(), &pipeline.ValidationInput{Answer: answer},
		pipeline.NewPriorResults(nil, ""))
}

func TestNumericUnits_PercentOver100(t *testing.T) {
	result := evalNumeric(t, "In the survey, 150% of respondents agreed with the statement.")

	if result.Passed {
		t.Fatal("expected percent_out_of_range")
	}
	if result.ReasonCodes[0] != CodePercentOutOfRange {
		t.Errorf("expected %s, got %v", CodePercentOutOfRange, result.ReasonCodes)
	}
}

func TestNumericUnits_GrowthOver100Allowed(t *testing.T) {
	result := evalNumeric(t, "Revenue increased by 150% year over year.")

	if !result.Passed {
		t.Fatalf("growth rates above 100%% are legitimate, got %v", result.ReasonCodes)
	}
}

func TestNumericUnits_ImplausibleAge(t *testing.T) {
	result := evalNumeric(t, "The author was 214 years old when the second volume appeared.")

	if result.Passed {
		t.Fatal("expected implausible_magnitude for a 214-year-old author")
	}
	if result.ReasonCodes[0] != CodeImplausibleMagnitude {
		t.Errorf("expected %s, got %v", CodeImplausibleMagnitude, result.ReasonCodes)
	}
}

func TestNumericUnits_BelowAbsoluteZero(t *testing.T) {
	result := evalNumeric(t, "The chamber was cooled to -400 degrees celsius for the experiment.")

	if result.Passed {
		t.Fatal("expected implausible_magnitude below absolute zero")
	}
}

func TestNumericUnits_NegativeCount(t *testing.T) {
	result := evalNumeric(t, "The event drew -3 people according to the report.")

	if result.Passed {
		t.Fatal("expected negative_quantity")
	}
	found := false
	for _, code := range result.ReasonCodes {
		if code == CodeNegativeQuantity {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s in %v", CodeNegativeQuantity, result.ReasonCodes)
	}
}

func TestNumericUnits_PlausibleFiguresPass(t *testing.T) {
	result := evalNumeric(t, "The bridge is 2,737 meters long, opened in 1937, and carries about 40% of commuter traffic at 21 degrees celsius on a warm day.")

	if !result.Passed {
		t.Fatalf("expected pass for plausible figures, got %v", result.ReasonCodes)
	}
}
