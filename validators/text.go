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
	"regexp"
	"strings"
)

// Shared text analysis helpers. All functions here are pure and safe for
// concurrent use.

var (
	// wordPattern extracts word tokens including unicode letters.
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'_-]*`)

	// sentencePattern splits text into sentence-ish chunks. Keeps
	// decimal points and file extensions inside a sentence.
	sentencePattern = regexp.MustCompile(`[^.!?\n]+(?:\.\d+[^.!?\n]*)*[.!?\n]?`)

	// hedgingPattern matches uncertainty language that softens a claim.
	hedgingPattern = regexp.MustCompile(
		`(?i)\b(appears?\s+(to|that)|seems?\s+(to|like|that)|may\b|might\b|could\b|possibly|probably|likely|unlikely|perhaps|reportedly|allegedly|I('m|\s+am)\s+not\s+(sure|certain)|I\s+don'?t\s+know|as\s+far\s+as\s+I\s+know|to\s+my\s+knowledge|uncertain)`,
	)

	// refusalPattern matches answers that decline rather than assert.
	refusalPattern = regexp.MustCompile(
		`(?i)(I\s+(can'?t|cannot|won'?t|don'?t)\s+(help|answer|know|say)|no\s+information\s+available|unable\s+to\s+(answer|verify|determine))`,
	)

	// properNounPattern matches capitalized tokens, including multi-word
	// runs ("New York City").
	properNounPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)

	// citationMarkerStripPattern removes citation markers before text
	// comparison so markers never count as content words.
	citationMarkerStripPattern = regexp.MustCompile(`\[source:[^\[\]\s]+\]|\[doc\s+\d+\]`)
)

// stopWords are words carrying no topical signal, skipped by tokenize.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "must": true, "shall": true, "can": true, "this": true,
	"that": true, "these": true, "those": true, "it": true, "its": true,
	"and": true, "or": true, "but": true, "if": true, "then": true,
	"else": true, "for": true, "of": true, "to": true, "from": true,
	"in": true, "on": true, "at": true, "by": true, "with": true,
	"as": true, "into": true, "through": true, "about": true, "also": true,
	"not": true, "no": true, "nor": true, "so": true, "than": true,
	"too": true, "very": true, "just": true, "there": true, "here": true,
	"when": true, "where": true, "what": true, "which": true, "who": true,
	"whom": true, "how": true, "why": true, "all": true, "any": true,
	"both": true, "each": true, "few": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "only": true, "own": true,
	"same": true, "they": true, "them": true, "their": true, "you": true,
	"your": true, "we": true, "our": true, "he": true, "she": true,
	"his": true, "her": true, "i": true, "me": true, "my": true,
}

// tokenize lowercases text and returns its content words: tokens of at
// least three characters that are not stop words. Citation markers are
// stripped first.
func tokenize(text string) []string {
	text = citationMarkerStripPattern.ReplaceAllString(text, " ")
	matches := wordPattern.FindAllString(text, -1)

	tokens := make([]string, 0, len(matches))
	for _, word := range matches {
		lower := strings.ToLower(word)
		if len(lower) < 3 || stopWords[lower] {
			continue
		}
		tokens = append(tokens, lower)
	}
	return tokens
}

// tokenSet returns tokenize output as a set.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenize(text) {
		set[tok] = true
	}
	return set
}

// jaccard computes the Jaccard coefficient of two token sets. Empty
// against empty is 0, not 1: no shared content is no overlap.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// overlapRatio returns the fraction of a's tokens present in b.
func overlapRatio(a, b map[string]bool) float64 {
	if len(a) == 0 {
		return 0
	}
	matched := 0
	for tok := range a {
		if b[tok] {
			matched++
		}
	}
	return float64(matched) / float64(len(a))
}

// splitSentences returns the trimmed non-empty sentences of text.
func splitSentences(text string) []string {
	var sentences []string
	for _, raw := range sentencePattern.FindAllString(text, -1) {
		s := strings.TrimSpace(raw)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// isHedged reports whether the text softens its claims with uncertainty
// language.
func isHedged(text string) bool {
	return hedgingPattern.MatchString(text)
}

// isRefusal reports whether the text declines to answer rather than
// asserting anything.
func isRefusal(text string) bool {
	return refusalPattern.MatchString(text)
}

// extractProperNouns returns capitalized runs that do not start a
// sentence, deduplicated in order of first appearance. Sentence-initial
// capitals are ambiguous and skipped.
func extractProperNouns(text string) []string {
	var nouns []string
	seen := make(map[string]bool)

	for _, sentence := range splitSentences(text) {
		for _, loc := range properNounPattern.FindAllStringIndex(sentence, -1) {
			if loc[0] == 0 {
				continue
			}
			noun := sentence[loc[0]:loc[1]]
			if noun == "I" {
				continue
			}
			lower := strings.ToLower(noun)
			if seen[lower] {
				continue
			}
			seen[lower] = true
			nouns = append(nouns, noun)
		}
	}
	return nouns
}

// containsToken reports whether text contains the token as a case
// insensitive substring with light stemming (plural/singular).
func containsToken(textLower, token string) bool {
	if strings.Contains(textLower, token) {
		return true
	}
	if len(token) > 3 && strings.HasSuffix(token, "s") {
		return strings.Contains(textLower, token[:len(token)-1])
	}
	return false
}
