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
	"strings"
	"time"
	"unicode"

	"github.com/VeracityAI/veracity/pipeline"
)

// functionWordProfiles maps a language to its highest-frequency function
// words. Latin-script languages are indistinguishable by script alone,
// so detection counts profile hits per language and takes the winner.
var functionWordProfiles = map[string]map[string]bool{
	"english": {
		"the": true, "and": true, "is": true, "of": true, "to": true,
		"in": true, "that": true, "it": true, "was": true, "for": true,
		"with": true, "are": true, "this": true, "not": true, "have": true,
		"from": true, "which": true, "there": true, "their": true, "would": true,
	},
	"spanish": {
		"el": true, "la": true, "de": true, "que": true, "y": true,
		"en": true, "los": true, "del": true, "las": true, "por": true,
		"con": true, "una": true, "para": true, "es": true, "está": true,
		"pero": true, "como": true, "más": true, "sus": true, "fue": true,
	},
	"french": {
		"le": true, "la": true, "les": true, "des": true, "est": true,
		"dans": true, "que": true, "qui": true, "une": true, "pour": true,
		"avec": true, "sur": true, "pas": true, "sont": true, "mais": true,
		"aux": true, "être": true, "cette": true, "nous": true, "vous": true,
	},
	"german": {
		"der": true, "die": true, "das": true, "und": true, "ist": true,
		"nicht": true, "ein": true, "eine": true, "mit": true, "für": true,
		"auf": true, "den": true, "von": true, "sich": true, "auch": true,
		"werden": true, "sind": true, "dem": true, "aber": true, "wird": true,
	},
	"portuguese": {
		"o": true, "a": true, "de": true, "que": true, "e": true,
		"do": true, "da": true, "em": true, "um": true, "uma": true,
		"para": true, "com": true, "não": true, "os": true, "as": true,
		"são": true, "mais": true, "como": true, "foi": true, "pelo": true,
	},
	"italian": {
		"il": true, "di": true, "che": true, "è": true, "e": true,
		"la": true, "per": true, "una": true, "sono": true, "con": true,
		"non": true, "del": true, "gli": true, "della": true, "anche": true,
		"come": true, "più": true, "nel": true, "alla": true, "questo": true,
	},
}

// LanguageMatch verifies the answer is written in the question's
// language.
//
// Detection is two-stage: dominant unicode script first (Latin,
// Cyrillic, CJK, Arabic, Hebrew, Greek, Hangul), then function-word
// profiles to separate Latin-script languages. Texts too short to
// detect reliably never mismatch.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type LanguageMatch struct {
	cfg LanguageMatchConfig
}

// NewLanguageMatch creates the language consistency validator.
func NewLanguageMatch(cfg LanguageMatchConfig) *LanguageMatch {
	if cfg.MinTokens <= 0 {
		cfg.MinTokens = 4
	}
	return &LanguageMatch{cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *LanguageMatch) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NameLanguageMatch,
		Priority:     pipeline.PriorityCritical,
		ParallelSafe: false,
		Timeout:      v.cfg.Timeout,
	}
}

// Evaluate implements pipeline.Validator.
//
// Description:
//
//	Detects the language of the question and the answer independently
//	and fails with language_mismatch when both detections succeed and
//	disagree. An undetermined detection on either side passes: a wrong
//	block is worse than a missed one here, since the code is critical.
func (v *LanguageMatch) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	questionLang := v.detect(input.Question)
	answerLang := v.detect(input.Answer)

	if questionLang != "" && answerLang != "" && questionLang != answerLang {
		return pipeline.ValidationResult{
			ValidatorName: NameLanguageMatch,
			Passed:        false,
			ReasonCodes:   []string{pipeline.CodeLanguageMismatch},
			Elapsed:       time.Since(start),
		}
	}

	return pipeline.ValidationResult{
		ValidatorName: NameLanguageMatch,
		Passed:        true,
		Elapsed:       time.Since(start),
	}
}

// detect returns the detected language name, or "" when undetermined.
func (v *LanguageMatch) detect(text string) string {
	script := dominantScript(text)
	switch script {
	case "cyrillic":
		return "russian"
	case "cjk":
		return "chinese"
	case "hangul":
		return "korean"
	case "kana":
		return "japanese"
	case "arabic":
		return "arabic"
	case "hebrew":
		return "hebrew"
	case "greek":
		return "greek"
	case "latin":
		return v.detectLatin(text)
	default:
		return ""
	}
}

// detectLatin separates Latin-script languages by function-word hits.
func (v *LanguageMatch) detectLatin(text string) string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) < v.cfg.MinTokens {
		return ""
	}

	best := ""
	bestHits := 0
	for lang, profile := range functionWordProfiles {
		hits := 0
		for _, w := range words {
			if profile[w] {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = lang
		}
	}

	// At least two profile hits before a verdict; one stray article is
	// not a detection.
	if bestHits < 2 {
		return ""
	}
	return best
}

// dominantScript returns the unicode script family covering the most
// letters in text, or "" when text has too few letters.
func dominantScript(text string) string {
	counts := map[string]int{}
	total := 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Latin, r):
			counts["latin"]++
		case unicode.Is(unicode.Cyrillic, r):
			counts["cyrillic"]++
		case unicode.Is(unicode.Han, r):
			counts["cjk"]++
		case unicode.Is(unicode.Hangul, r):
			counts["hangul"]++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			counts["kana"]++
		case unicode.Is(unicode.Arabic, r):
			counts["arabic"]++
		case unicode.Is(unicode.Hebrew, r):
			counts["hebrew"]++
		case unicode.Is(unicode.Greek, r):
			counts["greek"]++
		}
	}

	if total < 8 {
		return ""
	}

	best := ""
	bestCount := 0
	for script, count := range counts {
		if count > bestCount {
			bestCount = count
			best = script
		}
	}

	// Japanese mixes Han and kana; any kana presence wins over Han.
	if best == "cjk" && counts["kana"] > 0 {
		return "kana"
	}
	return best
}
