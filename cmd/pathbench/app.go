// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/pathbench/cmd/pathbench/config"
	"github.com/AleutianAI/pathbench/pkg/logging"
	"github.com/AleutianAI/pathbench/pkg/ux"
	"github.com/AleutianAI/pathbench/services/bench/storage/badger"
)

// app holds the state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logDir     string
	plain      bool

	cfg    config.Config
	logger *logging.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

// newRootCmd builds the command tree. Every call returns a fresh tree so
// tests can execute commands independently.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pathbench",
		Short:         "Benchmark graph preprocessing and pathfinding variants",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to a pathbench YAML config")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logDir, "log-dir", "", "also write JSON logs to this directory")
	pf.BoolVar(&a.plain, "plain", false, "disable colors and the progress bar")

	root.AddCommand(
		newRunCmd(a),
		newCountCmd(a),
		newVariantsCmd(a),
		newRunsCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logDir != "" {
		cfg.Logging.Dir = a.logDir
	}
	lc, err := cfg.Logger()
	if err != nil {
		return err
	}
	lc.Output = a.stderr
	a.cfg = cfg
	a.logger = logging.New(lc)
	slog.SetDefault(a.logger.Slog())
	return nil
}

// teardown closes the logger. Called once after the command finishes,
// whether or not it failed.
func (a *app) teardown() error {
	if a.logger == nil {
		return nil
	}
	return a.logger.Close()
}

func (a *app) mode(w io.Writer) ux.Mode {
	if a.plain {
		return ux.ModePlain
	}
	return ux.DetectMode(w)
}

func (a *app) printer() *ux.Printer {
	return ux.NewPrinter(a.stdout, a.mode(a.stdout))
}

// openStore opens the configured run store.
func (a *app) openStore() (*badger.Store, error) {
	bc := a.cfg.Badger()
	bc.Logger = a.logger.Slog()
	store, err := badger.OpenStore(bc)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	return store, nil
}
