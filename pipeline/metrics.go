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

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for pipeline operations.
var (
	tracer = otel.Tracer("veracity.pipeline")
	meter  = otel.Meter("veracity.pipeline")
)

// Metrics for pipeline operations. Initialized lazily on the first run;
// a nil instrument means metric creation failed and recording is skipped
// (observability degrades, execution does not).
var (
	metricsOnce sync.Once

	runsTotal           metric.Int64Counter
	runLatency          metric.Float64Histogram
	validatorLatency    metric.Float64Histogram
	validatorFailures   metric.Int64Counter
	validatorTimeouts   metric.Int64Counter
	validatorPanics     metric.Int64Counter
	criticalFailures    metric.Int64Counter
	advisoryFailures    metric.Int64Counter
	fallbacksServed     metric.Int64Counter
	patchesApplied      metric.Int64Counter
	confidenceHistogram metric.Float64Histogram
	epistemicStates     metric.Int64Counter
)

// initMetrics creates all pipeline instruments exactly once.
func initMetrics(logger *slog.Logger) {
	metricsOnce.Do(func() {
		var initErrors []string
		record := func(name string, err error) {
			if err != nil {
				initErrors = append(initErrors, name+": "+err.Error())
			}
		}

		var err error
		runsTotal, err = meter.Int64Counter("validation_runs_total",
			metric.WithDescription("Number of pipeline runs"),
		)
		record("runs_total", err)

		runLatency, err = meter.Float64Histogram("validation_run_duration_seconds",
			metric.WithDescription("Total pipeline run time"),
			metric.WithUnit("s"),
		)
		record("run_latency", err)

		validatorLatency, err = meter.Float64Histogram("validator_duration_seconds",
			metric.WithDescription("Time spent in each validator"),
			metric.WithUnit("s"),
		)
		record("validator_latency", err)

		validatorFailures, err = meter.Int64Counter("validator_failures_total",
			metric.WithDescription("Number of failing validator results"),
		)
		record("validator_failures", err)

		validatorTimeouts, err = meter.Int64Counter("validator_timeouts_total",
			metric.WithDescription("Number of validators degraded to synthetic timeout results"),
		)
		record("validator_timeouts", err)

		validatorPanics, err = meter.Int64Counter("validator_panics_total",
			metric.WithDescription("Number of validator panics recovered as synthetic failures"),
		)
		record("validator_panics", err)

		criticalFailures, err = meter.Int64Counter("critical_failures_total",
			metric.WithDescription("Number of runs blocked by a critical reason code"),
		)
		record("critical_failures", err)

		advisoryFailures, err = meter.Int64Counter("advisory_failures_total",
			metric.WithDescription("Number of failing results that did not block delivery"),
		)
		record("advisory_failures", err)

		fallbacksServed, err = meter.Int64Counter("fallbacks_served_total",
			metric.WithDescription("Number of runs answered with the safe fallback"),
		)
		record("fallbacks_served", err)

		patchesApplied, err = meter.Int64Counter("patches_applied_total",
			metric.WithDescription("Number of runs served a validator-patched answer"),
		)
		record("patches_applied", err)

		confidenceHistogram, err = meter.Float64Histogram("answer_confidence",
			metric.WithDescription("Calibrated confidence of served answers"),
		)
		record("confidence", err)

		epistemicStates, err = meter.Int64Counter("epistemic_states_total",
			metric.WithDescription("Trust labels emitted, by state"),
		)
		record("epistemic_states", err)

		if len(initErrors) > 0 {
			logger.Error("failed to initialize some pipeline metrics (observability degraded)",
				slog.Int("failed_count", len(initErrors)),
				slog.Any("errors", initErrors),
			)
		}
	})
}
