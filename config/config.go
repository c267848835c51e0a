// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the service configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML
// file, then VERACITY_* environment overrides. The merged result is
// validated once at startup and treated as immutable afterwards;
// nothing reads configuration from ambient state at request time.
//
// Thread Safety:
//
//	All exported functions are safe for concurrent use. The returned
//	Config must not be mutated after Load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/VeracityAI/veracity/validators"
)

// MaxConfigFileSize is the maximum allowed configuration file size.
const MaxConfigFileSize = 1024 * 1024

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`

	// Port is the listen port.
	Port int `yaml:"port" validate:"min=1,max=65535"`

	// ReadTimeout bounds request reading.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds response writing.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RateLimitRPS is the sustained request rate per instance. Zero
	// disables rate limiting.
	RateLimitRPS float64 `yaml:"rate_limit_rps" validate:"min=0"`

	// RateLimitBurst is the rate limiter burst size.
	RateLimitBurst int `yaml:"rate_limit_burst" validate:"min=0"`
}

// StoreConfig configures trace persistence.
type StoreConfig struct {
	// Backend selects the recorder: "badger" or "memory".
	Backend string `yaml:"backend" validate:"oneof=badger memory"`

	// Path is the BadgerDB directory. Required for the badger backend.
	Path string `yaml:"path"`

	// Retention is how long traces stay queryable.
	Retention time.Duration `yaml:"retention" validate:"min=0"`

	// SyncWrites enables synchronous writes on the badger backend.
	SyncWrites bool `yaml:"sync_writes"`
}

// TelemetryConfig configures metrics and trace export.
type TelemetryConfig struct {
	// MetricsExporter selects "prometheus", "stdout", or "none".
	MetricsExporter string `yaml:"metrics_exporter" validate:"oneof=prometheus stdout none"`

	// TracesExporter selects "otlp", "stdout", or "none".
	TracesExporter string `yaml:"traces_exporter" validate:"oneof=otlp stdout none"`

	// OTLPEndpoint is the collector address for the otlp exporter.
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// SampleRatio is the trace sampling ratio in [0,1].
	SampleRatio float64 `yaml:"sample_ratio" validate:"min=0,max=1"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format selects "json" or "text" output.
	Format string `yaml:"format" validate:"oneof=json text"`

	// File is an optional log file path ("~" expands). Empty logs to
	// stderr only.
	File string `yaml:"file"`
}

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Store      StoreConfig       `yaml:"store"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`
	Logging    LoggingConfig     `yaml:"logging"`
	Validators validators.Config `yaml:"validators"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8093,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  100,
		},
		Store: StoreConfig{
			Backend:    "badger",
			Path:       "~/.veracity/traces",
			Retention:  24 * time.Hour,
			SyncWrites: true,
		},
		Telemetry: TelemetryConfig{
			MetricsExporter: "prometheus",
			TracesExporter:  "none",
			OTLPEndpoint:    "localhost:4317",
			SampleRatio:     1.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Validators: *validators.DefaultConfig(),
	}
}

// Load builds the effective configuration.
//
// Description:
//
//	Starts from Default, merges the YAML file at path if path is
//	non-empty, applies VERACITY_* environment overrides, and validates
//	the result. Any failure is a startup fault; the service must not
//	run on a partial configuration.
//
// Inputs:
//
//	path - Optional YAML file path. Empty skips the file layer.
//
// Outputs:
//
//	*Config - The validated configuration.
//	error - Non-nil on unreadable file, malformed YAML, or invalid
//	        values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if info.Size() > MaxConfigFileSize {
			return nil, fmt.Errorf("config file %s exceeds %d bytes", path, MaxConfigFileSize)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Store.Backend == "badger" && cfg.Store.Path == "" {
		return nil, fmt.Errorf("invalid configuration: store.path required for badger backend")
	}
	return cfg, nil
}

// applyEnv overlays VERACITY_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("VERACITY_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("VERACITY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VERACITY_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("VERACITY_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("VERACITY_STORE_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.Retention = d
		}
	}
	if v := os.Getenv("VERACITY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VERACITY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("VERACITY_METRICS_EXPORTER"); v != "" {
		cfg.Telemetry.MetricsExporter = v
	}
	if v := os.Getenv("VERACITY_TRACES_EXPORTER"); v != "" {
		cfg.Telemetry.TracesExporter = v
	}
	if v := os.Getenv("VERACITY_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
}
