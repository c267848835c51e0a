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

import "testing"

func TestExtractCitations_BothForms(t *testing.T) {
	text := "Rainfall rose 12% [source:weather-svc] while reservoirs fell [doc 2]."

	citations := ExtractCitations(text)
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}

	if citations[0].SourceID != "weather-svc" {
		t.Errorf("first citation SourceID = %q", citations[0].SourceID)
	}
	if citations[0].Raw != "[source:weather-svc]" {
		t.Errorf("first citation Raw = %q", citations[0].Raw)
	}
	if citations[1].DocIndex != 2 {
		t.Errorf("second citation DocIndex = %d", citations[1].DocIndex)
	}
}

func TestExtractCitations_DocumentOrder(t *testing.T) {
	text := "First [doc 1], then [source:alpha], then [doc 3]."

	citations := ExtractCitations(text)
	if len(citations) != 3 {
		t.Fatalf("expected 3 citations, got %d", len(citations))
	}
	if citations[0].DocIndex != 1 || citations[1].SourceID != "alpha" || citations[2].DocIndex != 3 {
		t.Errorf("citations out of document order: %+v", citations)
	}
	for i := 1; i < len(citations); i++ {
		if citations[i-1].Position > citations[i].Position {
			t.Errorf("positions not monotonic at %d", i)
		}
	}
}

func TestExtractCitations_None(t *testing.T) {
	if citations := ExtractCitations("no markers here"); citations != nil {
		t.Errorf("expected nil, got %v", citations)
	}
}

func TestExtractCitations_MalformedMarkersIgnored(t *testing.T) {
	malformed := []string{
		"[source: spaced]",
		"[source:]",
		"[doc two]",
		"[doc]",
	}
	for _, text := range malformed {
		if n := CountCitations(text); n != 0 {
			t.Errorf("CountCitations(%q) = %d, want 0", text, n)
		}
	}
}

func TestCountCitations(t *testing.T) {
	text := "[source:a] and [doc 1] and [source:b]"
	if n := CountCitations(text); n != 3 {
		t.Errorf("CountCitations() = %d, want 3", n)
	}
}

func TestCitation_Resolve(t *testing.T) {
	evidence := []EvidenceDocument{
		{Text: "first", SourceID: "alpha"},
		{Text: "second", SourceID: "beta"},
	}

	bySource := Citation{SourceID: "beta"}
	if doc := bySource.Resolve(evidence); doc == nil || doc.Text != "second" {
		t.Error("source citation should resolve to the matching document")
	}

	byIndex := Citation{DocIndex: 1}
	if doc := byIndex.Resolve(evidence); doc == nil || doc.Text != "first" {
		t.Error("index citation should resolve 1-based")
	}

	unknown := Citation{SourceID: "gamma"}
	if doc := unknown.Resolve(evidence); doc != nil {
		t.Error("unknown source should not resolve")
	}

	outOfRange := Citation{DocIndex: 3}
	if doc := outOfRange.Resolve(evidence); doc != nil {
		t.Error("out-of-range index should not resolve")
	}

	zeroIndex := Citation{DocIndex: 0}
	if doc := zeroIndex.Resolve(evidence); doc != nil {
		t.Error("zero index should not resolve")
	}
}
