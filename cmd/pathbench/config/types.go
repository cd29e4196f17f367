// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads pathbench configuration from YAML.
package config

import (
	"fmt"
	"time"

	"github.com/AleutianAI/pathbench/pkg/logging"
	"github.com/AleutianAI/pathbench/services/bench/orchestrator"
	"github.com/AleutianAI/pathbench/services/bench/results"
	"github.com/AleutianAI/pathbench/services/bench/runner"
	"github.com/AleutianAI/pathbench/services/bench/storage/badger"
	"github.com/AleutianAI/pathbench/services/bench/telemetry"
)

// Config is the contents of a pathbench YAML file.
type Config struct {
	// Corpus is the corpus root directory.
	Corpus string `yaml:"corpus" validate:"required"`

	// Repeat is the number of searches per graph instance and variant pair.
	Repeat int `yaml:"repeat" validate:"min=1"`

	// Preprocessing and Search list variant names in run order.
	Preprocessing []string `yaml:"preprocessing" validate:"min=1,unique,dive,required"`
	Search        []string `yaml:"search" validate:"min=1,unique,dive,required"`

	// Workers is the number of graph instances benchmarked concurrently.
	Workers int `yaml:"workers" validate:"min=1,max=256"`

	// TrialTimeout bounds a single search, e.g. "2s". Zero disables it.
	TrialTimeout time.Duration `yaml:"trial_timeout" validate:"gte=0"`

	// FailurePolicy is "include" or "exclude".
	FailurePolicy string `yaml:"failure_policy" validate:"omitempty,oneof=include exclude"`

	Axes      AxesConfig      `yaml:"axes"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AxesConfig labels the two benchmark axes in reports.
type AxesConfig struct {
	StructuralParameter string `yaml:"structural_parameter" validate:"required"`
	Preprocessing       string `yaml:"preprocessing" validate:"required"`
}

// StoreConfig controls where finished runs are kept.
type StoreConfig struct {
	// Path is the BadgerDB directory. Supports a leading ~.
	Path string `yaml:"path" validate:"required_without_all=InMemory Disabled"`

	// InMemory keeps runs only for the life of the process.
	InMemory bool `yaml:"in_memory"`

	// Disabled skips storing runs.
	Disabled bool `yaml:"disabled"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// TelemetryConfig adds the metrics listener to the telemetry settings.
type TelemetryConfig struct {
	telemetry.Config `yaml:",inline"`

	// MetricsAddr serves /metrics when set, e.g. ":9464".
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns the configuration written by "pathbench config init".
func DefaultConfig() Config {
	return Config{
		Repeat:        runner.DefaultConfig().Repeat,
		Preprocessing: []string{"none"},
		Search:        []string{"astar"},
		Workers:       1,
		FailurePolicy: results.FailuresIncluded.String(),
		Axes: AxesConfig{
			StructuralParameter: results.DefaultAxes().StructuralParameter,
			Preprocessing:       results.DefaultAxes().Preprocessing,
		},
		Store:     StoreConfig{Path: "~/.pathbench/runs"},
		Logging:   LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{Config: telemetry.DefaultConfig()},
	}
}

// Orchestrator converts the config into a run description.
//
// Outputs:
//   - orchestrator.Config: The run description.
//   - error: results.ErrUnknownFailurePolicy for an unknown policy name.
func (c Config) Orchestrator() (orchestrator.Config, error) {
	policy, err := results.ParseFailurePolicy(c.FailurePolicy)
	if err != nil {
		return orchestrator.Config{}, err
	}
	return orchestrator.Config{
		CorpusDir:     c.Corpus,
		Preprocessing: c.Preprocessing,
		Search:        c.Search,
		Runner: runner.Config{
			Repeat:       c.Repeat,
			TrialTimeout: c.TrialTimeout,
		},
		Workers:       c.Workers,
		FailurePolicy: policy,
		Axes: results.Axes{
			StructuralParameter: c.Axes.StructuralParameter,
			Preprocessing:       c.Axes.Preprocessing,
		},
	}, nil
}

// Logger converts the logging section into a logging.Config.
func (c Config) Logger() (logging.Config, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return logging.Config{}, fmt.Errorf("logging: %w", err)
	}
	return logging.Config{
		Level:   level,
		LogDir:  c.Logging.Dir,
		JSON:    c.Logging.JSON,
		Service: "pathbench",
	}, nil
}

// StoreEnabled reports whether runs should be stored.
func (c Config) StoreEnabled() bool {
	return !c.Store.Disabled
}

// Badger converts the store section into a badger.Config.
func (c Config) Badger() badger.Config {
	if c.Store.InMemory {
		return badger.InMemoryConfig()
	}
	return badger.DefaultConfig(ExpandHome(c.Store.Path))
}
