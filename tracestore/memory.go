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
	"errors"
	"sync"
	"time"
)

// memoryEntry pairs a trace with its expiry deadline.
type memoryEntry struct {
	trace     *Trace
	expiresAt time.Time
}

// MemoryRecorder keeps traces in process memory with TTL eviction.
//
// Expiry is checked on read, so a Get past the retention window fails
// even between janitor sweeps. A background janitor reclaims memory
// for traces nobody asks about.
//
// Thread Safety: Safe for concurrent use.
type MemoryRecorder struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	retention time.Duration
	now       func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// NewMemoryRecorder creates an in-memory recorder.
//
// Inputs:
//
//	retention - TTL per trace. Non-positive uses DefaultRetention.
//
// Outputs:
//
//	*MemoryRecorder - The recorder, janitor running. Close it when done.
func NewMemoryRecorder(retention time.Duration) *MemoryRecorder {
	if retention <= 0 {
		retention = DefaultRetention
	}
	r := &MemoryRecorder{
		entries:   make(map[string]memoryEntry),
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Put implements Recorder.
func (r *MemoryRecorder) Put(ctx context.Context, trace *Trace) error {
	if trace == nil || trace.TraceID == "" {
		return errors.New("trace must have an id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.entries[trace.TraceID] = memoryEntry{
		trace:     trace,
		expiresAt: r.now().Add(r.retention),
	}
	r.mu.Unlock()
	return nil
}

// Get implements Recorder.
func (r *MemoryRecorder) Get(ctx context.Context, traceID string) (*Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	entry, ok := r.entries[traceID]
	r.mu.RUnlock()

	if !ok || r.now().After(entry.expiresAt) {
		return nil, ErrTraceNotFound
	}
	return entry.trace, nil
}

// Len returns the number of stored traces, expired ones included until
// the next sweep.
func (r *MemoryRecorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close implements Recorder. Stops the janitor.
func (r *MemoryRecorder) Close() error {
	r.once.Do(func() { close(r.stopCh) })
	<-r.doneCh
	return nil
}

// janitor sweeps expired entries periodically.
func (r *MemoryRecorder) janitor() {
	defer close(r.doneCh)

	interval := r.retention / 10
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			now := r.now()
			r.mu.Lock()
			for id, entry := range r.entries {
				if now.After(entry.expiresAt) {
					delete(r.entries, id)
				}
			}
			r.mu.Unlock()
		}
	}
}
