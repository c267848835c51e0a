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
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/VeracityAI/veracity/pipeline"
)

// CodeSourceConflict marks evidence documents that disagree with each
// other on a shared topic. Advisory; the conflict feeds the confidence
// validator as a trust penalty.
const CodeSourceConflict = "source_conflict"

// numberPattern finds figures whose topic is resolved by looking back
// at the nearest preceding content word.
var numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// negationPattern detects negated assertions for polarity comparison.
var negationPattern = regexp.MustCompile(`(?i)\b(not|never|no\s+longer|isn'?t|wasn'?t|aren'?t|doesn'?t|didn'?t|cannot|can'?t)\b`)

// sourceFigure is one topic/number pair extracted from a document.
type sourceFigure struct {
	topic string
	value float64
	doc   int
}

// SourceConsensus detects contradictions across evidence documents.
//
// Two signals: numeric disagreement (two documents attach figures to
// the same topic word that differ beyond the tolerance) and polarity
// disagreement (one document negates a topic sentence another document
// asserts). Runs after EvidenceOverlap so the confidence layer can read
// both results from completed phases. Fewer than two documents cannot
// conflict.
//
// Thread Safety: Safe for concurrent use (stateless after construction).
type SourceConsensus struct {
	cfg SourceConsensusConfig
}

// NewSourceConsensus creates the cross-document consensus validator.
func NewSourceConsensus(cfg SourceConsensusConfig) *SourceConsensus {
	if cfg.NumericTolerance <= 0 {
		cfg.NumericTolerance = 0.05
	}
	return &SourceConsensus{cfg: cfg}
}

// Spec implements pipeline.Validator.
func (v *SourceConsensus) Spec() pipeline.ValidatorSpec {
	return pipeline.ValidatorSpec{
		Name:         NameSourceConsensus,
		Priority:     pipeline.PriorityHigh,
		DependsOn:    []string{NameEvidenceOverlap},
		ParallelSafe: false,
		Timeout:      v.cfg.Timeout,
	}
}

// Evaluate implements pipeline.Validator.
func (v *SourceConsensus) Evaluate(ctx context.Context, input *pipeline.ValidationInput, prior pipeline.PriorResults) pipeline.ValidationResult {
	start := time.Now()

	if len(input.Evidence) < 2 {
		return pipeline.ValidationResult{
			ValidatorName: NameSourceConsensus,
			Passed:        true,
			Elapsed:       time.Since(start),
		}
	}

	if v.numericConflict(ctx, input.Evidence) || v.polarityConflict(ctx, input.Evidence) {
		return pipeline.ValidationResult{
			ValidatorName: NameSourceConsensus,
			Passed:        false,
			ReasonCodes:   []string{CodeSourceConflict},
			Elapsed:       time.Since(start),
		}
	}

	return pipeline.ValidationResult{
		ValidatorName: NameSourceConsensus,
		Passed:        true,
		Elapsed:       time.Since(start),
	}
}

// numericConflict reports whether two documents give incompatible
// figures for the same topic word.
func (v *SourceConsensus) numericConflict(ctx context.Context, evidence []pipeline.EvidenceDocument) bool {
	var figures []sourceFigure
	for i, doc := range evidence {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		for _, loc := range numberPattern.FindAllStringIndex(doc.Text, -1) {
			topic := topicBefore(doc.Text, loc[0])
			if topic == "" {
				continue
			}
			value, err := strconv.ParseFloat(strings.ReplaceAll(doc.Text[loc[0]:loc[1]], ",", ""), 64)
			if err != nil {
				continue
			}
			figures = append(figures, sourceFigure{topic: topic, value: value, doc: i})
		}
	}

	for i := 0; i < len(figures); i++ {
		for j := i + 1; j < len(figures); j++ {
			a, b := figures[i], figures[j]
			if a.doc == b.doc || a.topic != b.topic {
				continue
			}
			larger := math.Max(math.Abs(a.value), math.Abs(b.value))
			if larger == 0 {
				continue
			}
			if math.Abs(a.value-b.value)/larger > v.cfg.NumericTolerance {
				return true
			}
		}
	}
	return false
}

// topicBefore returns the content word nearest before a figure, or ""
// when the figure has no usable topic within the last few words.
func topicBefore(text string, offset int) string {
	words := wordPattern.FindAllString(text[:offset], -1)
	for i := len(words) - 1; i >= 0 && i >= len(words)-3; i-- {
		word := strings.ToLower(words[i])
		if len(word) < 3 || stopWords[word] {
			continue
		}
		if word[0] >= '0' && word[0] <= '9' {
			continue
		}
		return word
	}
	return ""
}

// polarityConflict reports whether one document negates a claim
// another document asserts over the same content words.
func (v *SourceConsensus) polarityConflict(ctx context.Context, evidence []pipeline.EvidenceDocument) bool {
	type polarized struct {
		tokens  map[string]bool
		negated bool
		doc     int
	}

	var sentences []polarized
	for i, doc := range evidence {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		for _, sentence := range splitSentences(doc.Text) {
			tokens := tokenSet(sentence)
			if len(tokens) < 3 {
				continue
			}
			sentences = append(sentences, polarized{
				tokens:  tokens,
				negated: negationPattern.MatchString(sentence),
				doc:     i,
			})
		}
	}

	for i := 0; i < len(sentences); i++ {
		for j := i + 1; j < len(sentences); j++ {
			a, b := sentences[i], sentences[j]
			if a.doc == b.doc || a.negated == b.negated {
				continue
			}
			// Opposite polarity over substantially the same words.
			if jaccard(a.tokens, b.tokens) >= 0.6 {
				return true
			}
		}
	}
	return false
}
