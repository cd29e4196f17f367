// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/pathbench/pkg/logging"
	"github.com/AleutianAI/pathbench/services/bench/results"
)

func validDefault() Config {
	cfg := DefaultConfig()
	cfg.Corpus = "/data/corpus"
	return cfg
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pathbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeFile(t, `
corpus: /corpus
repeat: 3
preprocessing: [none, corner-jumps]
search: [astar, bfs]
workers: 4
trial_timeout: 250ms
failure_policy: exclude
axes:
  structural_parameter: openness
  preprocessing: pruning
telemetry:
  trace_exporter: stdout
  metrics_addr: ":9464"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/corpus", cfg.Corpus)
	assert.Equal(t, 3, cfg.Repeat)
	assert.Equal(t, []string{"none", "corner-jumps"}, cfg.Preprocessing)
	assert.Equal(t, []string{"astar", "bfs"}, cfg.Search)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.TrialTimeout)
	assert.Equal(t, "openness", cfg.Axes.StructuralParameter)
	assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
	assert.Equal(t, ":9464", cfg.Telemetry.MetricsAddr)

	// untouched sections keep defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "~/.pathbench/runs", cfg.Store.Path)
	assert.Equal(t, "pathbench", cfg.Telemetry.ServiceName)
	require.NoError(t, Validate(cfg))
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeFile(t, "corpus: /c\nrepaet: 3\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repaet")
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing corpus", func(c *Config) { c.Corpus = "" }, "Corpus is required"},
		{"zero repeat", func(c *Config) { c.Repeat = 0 }, "Repeat must be at least 1"},
		{"no search", func(c *Config) { c.Search = nil }, "Search must be at least 1"},
		{"duplicate search", func(c *Config) { c.Search = []string{"astar", "bfs", "astar"} }, "Search must not repeat a name"},
		{"duplicate preprocessing", func(c *Config) { c.Preprocessing = []string{"none", "none"} }, "Preprocessing must not repeat a name"},
		{"blank variant", func(c *Config) { c.Preprocessing = []string{""} }, "Preprocessing[0] is required"},
		{"too many workers", func(c *Config) { c.Workers = 1000 }, "Workers must be at most 256"},
		{"negative timeout", func(c *Config) { c.TrialTimeout = -time.Second }, "TrialTimeout must be at least"},
		{"bad policy", func(c *Config) { c.FailurePolicy = "drop" }, "FailurePolicy must be one of"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "Logging.Level must be one of"},
		{"bad exporter", func(c *Config) { c.Telemetry.TraceExporter = "zipkin" }, "TraceExporter must be one of"},
		{"no store path", func(c *Config) { c.Store.Path = "" }, "Store.Path is required"},
		{"in-memory store", func(c *Config) { c.Store = StoreConfig{InMemory: true} }, ""},
		{"disabled store", func(c *Config) { c.Store = StoreConfig{Disabled: true} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefault()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := validDefault()
	cfg.Corpus = ""
	cfg.Repeat = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "Corpus"))
	assert.Equal(t, 1, strings.Count(err.Error(), "Repeat"))
}

func TestConfig_Orchestrator(t *testing.T) {
	cfg := validDefault()
	cfg.FailurePolicy = "exclude"
	cfg.Repeat = 7
	cfg.TrialTimeout = time.Second
	cfg.Axes = AxesConfig{StructuralParameter: "complexity", Preprocessing: "optimization"}

	oc, err := cfg.Orchestrator()
	require.NoError(t, err)
	assert.Equal(t, "/data/corpus", oc.CorpusDir)
	assert.Equal(t, results.FailuresExcluded, oc.FailurePolicy)
	assert.Equal(t, 7, oc.Runner.Repeat)
	assert.Equal(t, time.Second, oc.Runner.TrialTimeout)
	assert.Equal(t, "complexity", oc.Axes.StructuralParameter)
	require.NoError(t, oc.Validate())

	cfg.FailurePolicy = "drop"
	_, err = cfg.Orchestrator()
	assert.ErrorIs(t, err, results.ErrUnknownFailurePolicy)
}

func TestConfig_Logger(t *testing.T) {
	cfg := validDefault()
	cfg.Logging = LoggingConfig{Level: "debug", Dir: "/tmp/logs", JSON: true}

	lc, err := cfg.Logger()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, "/tmp/logs", lc.LogDir)
	assert.True(t, lc.JSON)

	cfg.Logging.Level = "loud"
	_, err = cfg.Logger()
	assert.ErrorIs(t, err, logging.ErrUnknownLevel)
}

func TestConfig_Badger(t *testing.T) {
	cfg := validDefault()
	cfg.Store = StoreConfig{Path: "/var/lib/pathbench"}
	bc := cfg.Badger()
	assert.Equal(t, "/var/lib/pathbench", bc.Path)
	assert.False(t, bc.InMemory)

	cfg.Store.InMemory = true
	assert.True(t, cfg.Badger().InMemory)
	assert.True(t, cfg.StoreEnabled())

	cfg.Store.Disabled = true
	assert.False(t, cfg.StoreEnabled())
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pathbench.yaml")
	want := validDefault()
	want.TrialTimeout = 1500 * time.Millisecond

	require.NoError(t, Write(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWrite_DoesNotOverwrite(t *testing.T) {
	path := writeFile(t, "corpus: /keep\n")
	err := Write(path, DefaultConfig())
	assert.ErrorIs(t, err, os.ErrExist)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/keep", cfg.Corpus)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, filepath.Join(home, "runs"), ExpandHome("~/runs"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
	assert.Equal(t, "/abs", ExpandHome("/abs"))
}
