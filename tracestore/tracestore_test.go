// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tracestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeracityAI/veracity/pipeline"
)

func sampleTrace(id string) *Trace {
	return NewTrace(&pipeline.Outcome{
		TraceID:        id,
		FinalAnswer:    "The bridge opened in 1937 [source:bridge-history].",
		Confidence:     0.91,
		EpistemicState: pipeline.StateKnown,
		ReasonCodes:    nil,
		Phases: [][]pipeline.ValidationResult{
			{{ValidatorName: "language_match", Passed: true}},
			{{ValidatorName: "citation_required", Passed: true}},
		},
		Elapsed: 12 * time.Millisecond,
	}, time.Now())
}

func TestNewTrace_PhaseIndexesAndExcerpt(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'a'
	}
	trace := NewTrace(&pipeline.Outcome{
		TraceID:     "t-1",
		FinalAnswer: string(long),
		Phases: [][]pipeline.ValidationResult{
			{{ValidatorName: "language_match", Passed: true}},
			{{ValidatorName: "citation_required", Passed: false}},
		},
	}, time.Now())

	require.Len(t, trace.Phases, 2)
	assert.Equal(t, 0, trace.Phases[0].PhaseIndex)
	assert.Equal(t, 1, trace.Phases[1].PhaseIndex)
	assert.Len(t, trace.Final.FinalAnswerExcerpt, excerptLimit)
}

func TestBadgerRecorder_PutGetRoundTrip(t *testing.T) {
	store, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	original := sampleTrace("run-42")
	require.NoError(t, store.Put(ctx, original))

	loaded, err := store.Get(ctx, "run-42")
	require.NoError(t, err)
	assert.Equal(t, original.TraceID, loaded.TraceID)
	assert.Equal(t, original.Final.EpistemicState, loaded.Final.EpistemicState)
	assert.Equal(t, original.Final.Confidence, loaded.Final.Confidence)
	require.Len(t, loaded.Phases, 2)
	assert.Equal(t, "language_match", loaded.Phases[0].Results[0].ValidatorName)
}

func TestBadgerRecorder_UnknownIDNotFound(t *testing.T) {
	store, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(context.Background(), "never-stored")
	assert.ErrorIs(t, err, ErrTraceNotFound)
}

func TestBadgerRecorder_ExpiredTraceNotFound(t *testing.T) {
	cfg := InMemoryBadgerConfig()
	cfg.Retention = 50 * time.Millisecond
	store, err := OpenBadger(cfg)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, sampleTrace("short-lived")))

	time.Sleep(120 * time.Millisecond)

	_, err = store.Get(ctx, "short-lived")
	assert.ErrorIs(t, err, ErrTraceNotFound)
}

func TestMemoryRecorder_PutGetRoundTrip(t *testing.T) {
	store := NewMemoryRecorder(DefaultRetention)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, sampleTrace("run-7")))

	loaded, err := store.Get(ctx, "run-7")
	require.NoError(t, err)
	assert.Equal(t, "run-7", loaded.TraceID)
}

func TestMemoryRecorder_ExpiryOnRead(t *testing.T) {
	store := NewMemoryRecorder(time.Hour)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, sampleTrace("aging")))

	// Move the clock past the retention window.
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := store.Get(ctx, "aging")
	assert.ErrorIs(t, err, ErrTraceNotFound)
}

func TestMemoryRecorder_RejectsAnonymousTrace(t *testing.T) {
	store := NewMemoryRecorder(DefaultRetention)
	defer store.Close()

	err := store.Put(context.Background(), &Trace{})
	assert.Error(t, err)
}
