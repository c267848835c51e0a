// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import "regexp"

// Citation markers tie answer text back to evidence documents. Two forms
// are accepted:
//
//	[source:weather-svc]  - names an evidence document's SourceID
//	[doc 2]               - 1-based index into the evidence sequence
var (
	// sourceCitationPattern matches [source:ID] markers.
	sourceCitationPattern = regexp.MustCompile(`\[source:([^\[\]\s]+)\]`)

	// indexCitationPattern matches [doc N] markers.
	indexCitationPattern = regexp.MustCompile(`\[doc\s+(\d+)\]`)
)

// Citation is one parsed citation marker from an answer.
type Citation struct {
	// Raw is the original marker text (e.g. "[source:weather-svc]").
	Raw string

	// SourceID is the cited document's source, empty for index citations.
	SourceID string

	// DocIndex is the 1-based evidence index, 0 for source citations.
	DocIndex int

	// Position is the character offset of the marker in the answer.
	Position int
}

// ExtractCitations parses all citation markers from text, in order of
// appearance. Returns nil when the text carries no markers.
func ExtractCitations(text string) []Citation {
	var citations []Citation

	for _, match := range sourceCitationPattern.FindAllStringSubmatchIndex(text, -1) {
		citations = append(citations, Citation{
			Raw:      text[match[0]:match[1]],
			SourceID: text[match[2]:match[3]],
			Position: match[0],
		})
	}

	for _, match := range indexCitationPattern.FindAllStringSubmatchIndex(text, -1) {
		idx := 0
		for _, ch := range text[match[2]:match[3]] {
			idx = idx*10 + int(ch-'0')
		}
		citations = append(citations, Citation{
			Raw:      text[match[0]:match[1]],
			DocIndex: idx,
			Position: match[0],
		})
	}

	// Restore document order across the two pattern passes.
	for i := 1; i < len(citations); i++ {
		for j := i; j > 0 && citations[j-1].Position > citations[j].Position; j-- {
			citations[j-1], citations[j] = citations[j], citations[j-1]
		}
	}

	return citations
}

// CountCitations returns the number of citation markers in text.
func CountCitations(text string) int {
	return len(sourceCitationPattern.FindAllStringIndex(text, -1)) +
		len(indexCitationPattern.FindAllStringIndex(text, -1))
}

// Resolve maps a citation to its evidence document, if any.
//
// Inputs:
//
//	evidence - The run's evidence documents, in caller order.
//
// Outputs:
//
//	*EvidenceDocument - The cited document, or nil when unresolvable.
func (c Citation) Resolve(evidence []EvidenceDocument) *EvidenceDocument {
	if c.SourceID != "" {
		for i := range evidence {
			if evidence[i].SourceID == c.SourceID {
				return &evidence[i]
			}
		}
		return nil
	}
	if c.DocIndex >= 1 && c.DocIndex <= len(evidence) {
		return &evidence[c.DocIndex-1]
	}
	return nil
}
