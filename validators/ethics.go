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

// ethicsCategory is one content-safety category with its detection
// pattern. Category names become reason code suffixes
// ("ethics_violation:violence"), which the default criticality policy
// matches by prefix.
type ethicsCategory struct {
	name    string
	pattern *regexp.Regexp
}

// ethicsCategories are the built-in content-safety categories. Patterns
// target instructional or endorsing phrasing, not mere mention of a
// topic.
var ethicsCategories = []ethicsCategory{
	{
		name: "violence",
		pattern: regexp.MustCompile(
			`(?i)\b(how\s+to\s+(kill|hurt|attack|poison)\s|(build|make|assemble)\s+(a\s+)?(bomb|explosive|pipe\s+bomb)|best\s+way\s+to\s+(harm|injure))\b`,
		),
	},
	{
		name: "self_harm",
		pattern: regexp.MustCompile(
			`(?i)\b(how\s+to\s+(harm|hurt|cut)\s+(yourself|myself|oneself)|methods?\s+of\s+suicide|painless\s+way\s+to\s+die)\b`,
		),
	},
	{
		name: "hate",
		pattern: regexp.MustCompile(
			`(?i)\b((is|are)\s+(an?\s+)?inferior\s+(race|people)|deserve\s+to\s+(die|suffer)\s+because\s+of\s+their\s+(race|religion|gender)|subhuman)\b`,
		),
	},
	{
		name: "illegal_activity",
		pattern: regexp.MustCompile(
			`(?i)\b(how\s+to\s+(steal|shoplift|pick\s+a\s+lock\s+to\s+break\s+in|launder\s+money|evade\s+taxes\s+illegally)|buy\s+(illegal\s+)?drugs\s+online|forge\s+(a\s+)?(passport|id|signature))\b`,
		),
	},
	{
		name: "malware",
		pattern: regexp.MustCompile(
			`(?i)\b(write\s+(a\s+)?(virus|ransomware|keylogger)|exploit\s+this\s+vulnerability\s+to\s+gain\s+access|disable\s+(the\s+)?antivirus\s+to\s+install)\b`,
		),
	},
}

// EthicsGuard is the content-safety filter.
//
// It inspects the effective answer, the one that would actually be
// served after all earlier patches, which is why it depends on the
// confidence validator: the dependency pins it to the final phase. Any
// category hit is a critical ethics_violation:<category> finding.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type EthicsGuard struct {
	categories []ethicsCategory
	cfg        EthicsGuardConfig
}

// NewEthicsGuard creates the content-safety validator.
func NewEthicsGuard(cfg EthicsGuardConfig) *EthicsGuard {
	disabled := make(map[string]bool, len(cfg.DisabledCategories))
	for _, name := range cfg.DisabledCategories {
		disabled[name] = true
	}

	var categories []ethicsCategory
	for _, category := range ethicsCategories {
		if !disabled[category.name] {
			categories = append(categories, category)
		}
	}
	return &EthicsGuard{categories: categories, cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *EthicsGuard) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NameEthicsGuard,
		Priority:     pipeline.PriorityCritical,
		DependsOn:    []string{NameConfidence},
		ParallelSafe: true,
		Timeout:      v.cfg.Timeout,
	}
}

// Evaluate implements pipeline.Validator.
func (v *EthicsGuard) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	answer := prior.EffectiveAnswer()
	if answer == "" {
		answer = input.Answer
	}

	var codes []string
	for _, category := range v.categories {
		select {
		case <-ctx.Done():
			return pipeline.ValidationResult{
				ValidatorName: NameEthicsGuard,
				Passed:        len(codes) == 0,
				ReasonCodes:   codes,
				Elapsed:       time.Since(start),
			}
		default:
		}

		if category.pattern.MatchString(answer) {
			codes = append(codes, pipeline.CodeEthicsViolation+":"+category.name)
		}
	}

	return pipeline.ValidationResult{
		ValidatorName: NameEthicsGuard,
		Passed:        len(codes) == 0,
		ReasonCodes:   codes,
		Elapsed:       time.Since(start),
	}
}
