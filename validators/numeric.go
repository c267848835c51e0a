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
	"strconv"
	"strings"
	"time"

	"github.com/VeracityAI/veracity/pipeline"
)

// Reason codes emitted by NumericUnits. All advisory.
const (
	// CodePercentOutOfRange marks percentages outside [0, 100] in
	// contexts where shares, not growth rates, are being described.
	CodePercentOutOfRange = "percent_out_of_range"

	// CodeImplausibleMagnitude marks quantities beyond physical or
	// configured plausibility bounds.
	CodeImplausibleMagnitude = "implausible_magnitude"

	// CodeNegativeQuantity marks negative values for inherently
	// non-negative quantities (counts, ages, distances).
	CodeNegativeQuantity = "negative_quantity"
)

// Package-level compiled regexes for numeric claim extraction.
var (
	// percentPattern matches a signed number followed by % or "percent".
	percentPattern = regexp.MustCompile(`(-?\d+(?:[.,]\d+)?)\s*(?:%|percent\b)`)

	// agePattern matches "N years old" / "aged N".
	agePattern = regexp.MustCompile(`(?i)(?:aged?\s+(-?\d+(?:\.\d+)?)|(-?\d+(?:\.\d+)?)\s+years?\s+old)`)

	// temperaturePattern matches Celsius temperatures.
	temperaturePattern = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(?:°\s*C|degrees?\s+celsius)`)

	// bareCountPattern matches large bare integers (with separators).
	bareCountPattern = regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+|\d+)\b`)

	// negativeCountPattern matches negative counts of things.
	negativeCountPattern = regexp.MustCompile(`(?i)-\d+(?:\.\d+)?\s+(?:people|persons|users|items|deaths|cases|kilometers|km|miles|meters)\b`)

	// growthContextPattern marks contexts where >100% is legitimate.
	growthContextPattern = regexp.MustCompile(`(?i)\b(increase[ds]?|growth|grew|rose|jump(?:ed)?|surge[ds]?|gain(?:ed)?|more\s+than\s+doubled|return|yield|inflation)\b`)
)

// absoluteZeroCelsius is the physical floor for temperatures.
const absoluteZeroCelsius = -273.15

// NumericUnits flags numeric claims with implausible units or
// magnitudes.
//
// This is a sanity net, not a fact checker: it catches category errors
// (150% of respondents, -3 people, colder than absolute zero), never
// verifies figures against evidence. Cross-checking numbers against
// the documents is the hallucination validator's job.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type NumericUnits struct {
	cfg NumericUnitsConfig
}

// NewNumericUnits creates the numeric plausibility validator.
func NewNumericUnits(cfg NumericUnitsConfig) *NumericUnits {
	if cfg.MaxPlainMagnitude <= 0 {
		cfg.MaxPlainMagnitude = 1e15
	}
	if cfg.MaxHumanAge <= 0 {
		cfg.MaxHumanAge = 130
	}
	return &NumericUnits{cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *NumericUnits) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NameNumericUnits,
		Priority:     pipeline.PriorityNormal,
		ParallelSafe: true,
		Timeout:      v.cfg.Timeout,
	}
}

// Evaluate implements pipeline.Validator.
func (v *NumericUnits) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	var codes []string
	seen := make(map[string]bool)
	add := func(code string) {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}

	answer := input.Answer

	for _, match := range percentPattern.FindAllStringSubmatch(answer, -1) {
		value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
		if err != nil {
			continue
		}
		if value < 0 {
			add(CodePercentOutOfRange)
			continue
		}
		if value > 100 && !growthContextPattern.MatchString(answer) {
			add(CodePercentOutOfRange)
		}
	}

	for _, match := range agePattern.FindAllStringSubmatch(answer, -1) {
		raw := match[1]
		if raw == "" {
			raw = match[2]
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if value < 0 {
			add(CodeNegativeQuantity)
		} else if value > v.cfg.MaxHumanAge {
			add(CodeImplausibleMagnitude)
		}
	}

	for _, match := range temperaturePattern.FindAllStringSubmatch(answer, -1) {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		if value < absoluteZeroCelsius {
			add(CodeImplausibleMagnitude)
		}
	}

	if negativeCountPattern.MatchString(answer) {
		add(CodeNegativeQuantity)
	}

	for _, match := range bareCountPattern.FindAllString(answer, -1) {
		value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
		if err != nil {
			continue
		}
		if value > v.cfg.MaxPlainMagnitude {
			add(CodeImplausibleMagnitude)
		}
	}

	return pipeline.ValidationResult{
		ValidatorName: NameNumericUnits,
		Passed:        len(codes) == 0,
		ReasonCodes:   codes,
		Elapsed:       time.Since(start),
	}
}
