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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces trace keys inside the database.
const keyPrefix = "trace:"

// BadgerConfig holds configuration for the embedded trace store.
type BadgerConfig struct {
	// Path is the directory for database files. Required unless
	// InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful
	// for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Retention is how long a trace stays queryable. BadgerDB's TTL
	// enforces it at the storage layer. Default: DefaultRetention.
	Retention time.Duration

	// GCInterval is how often to run value log garbage collection.
	// Default: 5 minutes. Set to a negative value to disable.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before
	// GC rewrites a value log file. Default: 0.5.
	GCDiscardRatio float64

	// Logger for store and database logs. If nil, the database's
	// internal logging is disabled and store logs use slog.Default().
	Logger *slog.Logger
}

// DefaultBadgerConfig returns production defaults.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		Retention:      DefaultRetention,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryBadgerConfig returns configuration for tests.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{
		InMemory:   true,
		Retention:  DefaultRetention,
		GCInterval: -1,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerRecorder persists traces in an embedded BadgerDB with per-key
// TTL matching the retention window.
//
// Thread Safety: Safe for concurrent use.
type BadgerRecorder struct {
	db        *badger.DB
	retention time.Duration
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// OpenBadger opens the embedded trace store.
//
// Description:
//
//	Opens a BadgerDB at the configured path (creating the directory),
//	or in memory, and starts the periodic value log GC loop unless
//	disabled. Expiry is enforced by BadgerDB's native TTL: a Get after
//	the retention window fails with ErrTraceNotFound without any
//	store-level sweeping.
//
// Inputs:
//
//	cfg - Store configuration. Path is required unless InMemory.
//
// Outputs:
//
//	*BadgerRecorder - The opened store. Caller must Close it.
//	error - Non-nil if the path is invalid or the database cannot open.
func OpenBadger(cfg BadgerConfig) (*BadgerRecorder, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent trace store")
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.GCInterval == 0 {
		cfg.GCInterval = 5 * time.Minute
	}
	if cfg.GCDiscardRatio <= 0 {
		cfg.GCDiscardRatio = 0.5
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create trace store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open trace store: %w", err)
	}

	r := &BadgerRecorder{
		db:        db,
		retention: cfg.Retention,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		go r.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	} else {
		close(r.doneCh)
	}
	return r, nil
}

// Put implements Recorder.
func (r *BadgerRecorder) Put(ctx context.Context, trace *Trace) error {
	if trace == nil || trace.TraceID == "" {
		return errors.New("trace must have an id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("marshal trace %s: %w", trace.TraceID, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+trace.TraceID), payload).
			WithTTL(r.retention)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("store trace %s: %w", trace.TraceID, err)
	}
	return nil
}

// Get implements Recorder.
func (r *BadgerRecorder) Get(ctx context.Context, traceID string) (*Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var trace Trace
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + traceID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &trace)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrTraceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load trace %s: %w", traceID, err)
	}
	return &trace, nil
}

// Close implements Recorder. Stops the GC loop and closes the database.
func (r *BadgerRecorder) Close() error {
	select {
	case <-r.stopCh:
		// Already closed.
	default:
		close(r.stopCh)
	}
	<-r.doneCh
	return r.db.Close()
}

// runGC triggers value log GC on a ticker until Close.
func (r *BadgerRecorder) runGC(interval time.Duration, ratio float64) {
	defer close(r.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			// RunValueLogGC returns nil when a log file was rewritten;
			// loop until there is nothing left worth collecting.
			for {
				if err := r.db.RunValueLogGC(ratio); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						r.logger.Warn("trace store gc failed", slog.Any("error", err))
					}
					break
				}
			}
		}
	}
}
