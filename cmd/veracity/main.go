// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command veracity starts the Veracity validation API server.
//
// Veracity validates LLM candidate answers against retrieved evidence
// and serves a trust decision per answer: the final text, a calibrated
// confidence, and a KNOWN/UNCERTAIN/UNKNOWN label, with a replayable
// trace per run.
//
// Usage:
//
//	go run ./cmd/veracity
//	go run ./cmd/veracity -config veracity.yaml
//	go run ./cmd/veracity -port 9090 -debug
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8093/health
//
//	# Validate an answer
//	curl -X POST http://localhost:8093/v1/veracity/validate \
//	  -H "Content-Type: application/json" \
//	  -d '{
//	    "answer": "The bridge opened in 1937 [source:bridge-history].",
//	    "question": "When did the bridge open?",
//	    "evidence": [{"text": "The bridge opened in 1937.", "source_id": "bridge-history"}]
//	  }'
//
//	# Fetch the run trace
//	curl http://localhost:8093/v1/veracity/traces/<trace_id> | jq
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/VeracityAI/veracity"
	"github.com/VeracityAI/veracity/config"
	"github.com/VeracityAI/veracity/pipeline"
	"github.com/VeracityAI/veracity/pkg/logging"
	"github.com/VeracityAI/veracity/telemetry"
	"github.com/VeracityAI/veracity/tracestore"
	"github.com/VeracityAI/veracity/validators"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	port := flag.Int("port", 0, "Override the configured listen port")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	if err := run(*configPath, *port, *debug); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configPath string, portOverride int, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if portOverride > 0 {
		cfg.Server.Port = portOverride
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if debug {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		JSON:    cfg.Logging.Format == "json",
		File:    cfg.Logging.File,
		Service: "veracity",
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "veracity",
		ServiceVersion: veracity.ServiceVersion,
		Environment:    envOr("VERACITY_ENV", "development"),
		TraceExporter:  cfg.Telemetry.TracesExporter,
		MetricExporter: cfg.Telemetry.MetricsExporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:   true,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	recorder, err := openRecorder(cfg, logger.Slog())
	if err != nil {
		return fmt.Errorf("open trace store: %w", err)
	}
	defer recorder.Close()

	registry, err := validators.DefaultRegistry(&cfg.Validators)
	if err != nil {
		return fmt.Errorf("build validator registry: %w", err)
	}
	p, err := pipeline.NewPipeline(registry, pipeline.Config{
		ScoreSource: validators.NameConfidence,
		Logger:      logger.Slog(),
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	svc, err := veracity.NewService(p, recorder, logger.Slog())
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := veracity.NewRouter(veracity.NewHandlers(svc, logger.Slog()), veracity.RouterConfig{
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		Metrics:        telemetry.MetricsHandler(),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	printBanner(addr, svc.Stats())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting veracity server",
			slog.String("address", addr),
			slog.String("store", cfg.Store.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down veracity server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openRecorder builds the trace recorder for the configured backend.
func openRecorder(cfg *config.Config, logger *slog.Logger) (tracestore.Recorder, error) {
	switch cfg.Store.Backend {
	case "memory":
		return tracestore.NewMemoryRecorder(cfg.Store.Retention), nil
	default:
		storeCfg := tracestore.DefaultBadgerConfig(logging.ExpandPath(cfg.Store.Path))
		storeCfg.Retention = cfg.Store.Retention
		storeCfg.SyncWrites = cfg.Store.SyncWrites
		storeCfg.Logger = logger
		return tracestore.OpenBadger(storeCfg)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printBanner(addr string, stats veracity.StatsResponse) {
	fmt.Printf(`
 Veracity %s
 ------------------------------------------
 listening      %s
 validators     %d
 phases         %d (base) / %d (philosophical)
 run bound      %dms

`, veracity.ServiceVersion, addr, stats.Validators, stats.Phases,
		stats.PhasesPhilosophical, stats.MaxDurationMs)
}
