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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AleutianAI/pathbench/cmd/pathbench/config"
	"github.com/AleutianAI/pathbench/pkg/ux"
	"github.com/AleutianAI/pathbench/services/bench/orchestrator"
	"github.com/AleutianAI/pathbench/services/bench/results"
	"github.com/AleutianAI/pathbench/services/bench/storage/badger"
	"github.com/AleutianAI/pathbench/services/bench/telemetry"
)

// runFlags are the run command's overrides of the config file.
type runFlags struct {
	corpus        string
	repeat        int
	preprocess    []string
	search        []string
	workers       int
	trialTimeout  time.Duration
	failurePolicy string
	output        string
	noStore       bool
	metricsAddr   string
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every variant pair over the corpus",
		Long: `Run loads every graph instance in the corpus, runs each requested
preprocessing and search pair on it, and prints mean and median search time,
explored nodes and explored ratio per structural parameter and size.

Flags override the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBenchmark(cmd.Context(), cmd.Flags(), &f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.corpus, "corpus", "", "corpus root directory")
	fl.IntVarP(&f.repeat, "repeat", "n", 0, "searches per graph instance and variant pair")
	fl.StringSliceVarP(&f.preprocess, "preprocess", "p", nil, "preprocessing variants, comma separated")
	fl.StringSliceVarP(&f.search, "search", "s", nil, "search variants, comma separated")
	fl.IntVarP(&f.workers, "workers", "w", 0, "graph instances benchmarked concurrently")
	fl.DurationVar(&f.trialTimeout, "trial-timeout", 0, "deadline for one search, 0 for none")
	fl.StringVar(&f.failurePolicy, "failure-policy", "", "include or exclude failed searches in aggregates")
	fl.StringVarP(&f.output, "output", "o", "", "export the run to a .json, .yaml or .yml file")
	fl.BoolVar(&f.noStore, "no-store", false, "do not store the run")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address during the run")
	return cmd
}

// apply copies every flag the user set onto cfg.
func (f *runFlags) apply(fl *pflag.FlagSet, cfg *config.Config) {
	if fl.Changed("corpus") {
		cfg.Corpus = f.corpus
	}
	if fl.Changed("repeat") {
		cfg.Repeat = f.repeat
	}
	if fl.Changed("preprocess") {
		cfg.Preprocessing = f.preprocess
	}
	if fl.Changed("search") {
		cfg.Search = f.search
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("trial-timeout") {
		cfg.TrialTimeout = f.trialTimeout
	}
	if fl.Changed("failure-policy") {
		cfg.FailurePolicy = f.failurePolicy
	}
	if fl.Changed("no-store") {
		cfg.Store.Disabled = f.noStore
	}
	if fl.Changed("metrics-addr") {
		cfg.Telemetry.MetricsAddr = f.metricsAddr
	}
}

// runBenchmark executes one benchmark run end to end.
//
// Description:
//
//	Validates the merged configuration, starts telemetry and the optional
//	metrics listener, runs the orchestrator with a progress reporter,
//	prints the summary, then stores and exports the snapshot.
func (a *app) runBenchmark(ctx context.Context, fl *pflag.FlagSet, f *runFlags) error {
	cfg := a.cfg
	f.apply(fl, &cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	oc, err := cfg.Orchestrator()
	if err != nil {
		return err
	}
	log := a.logger.Slog()

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry.Config)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if cfg.Telemetry.MetricsAddr != "" {
		srv, err := serveMetrics(cfg.Telemetry.MetricsAddr, log)
		if err != nil {
			return err
		}
		defer srv.Close()
	}

	var store *badger.Store
	if cfg.StoreEnabled() {
		if store, err = a.openStore(); err != nil {
			return err
		}
		defer store.Close()
	}

	progress := ux.NewProgress(a.stderr, a.mode(a.stderr), "graphs")
	orch := orchestrator.New(
		orchestrator.WithLogger(log),
		orchestrator.WithProgress(progress),
	)

	started := time.Now()
	tree, err := orch.Run(ctx, oc)
	progress.Done()
	if err != nil {
		return err
	}
	finished := time.Now()

	snap := tree.Snapshot()
	snap.RunID = badger.NewRunID()
	snap.StartedAt = started.UnixMilli()
	snap.FinishedAt = finished.UnixMilli()
	snap.Repeat = cfg.Repeat
	snap.CorpusDir = cfg.Corpus

	p := a.printer()
	fmt.Fprintln(a.stdout, ux.Summary(p.Mode(), snap))
	p.KeyValues(
		[2]string{"run", snap.RunID},
		[2]string{"trials", strconv.Itoa(snap.TrialCount())},
		[2]string{"failed", strconv.Itoa(failedTrials(snap))},
		[2]string{"elapsed", finished.Sub(started).Round(time.Millisecond).String()},
	)

	if store != nil {
		if _, err := store.Save(ctx, snap); err != nil {
			return err
		}
		p.Success("stored run " + snap.RunID)
	}
	if f.output != "" {
		if err := exportSnapshot(f.output, snap); err != nil {
			return err
		}
		p.Success("exported run to " + f.output)
	}
	return nil
}

// serveMetrics starts an HTTP listener serving /metrics.
func serveMetrics(addr string, log *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	log.Info("serving metrics", slog.String("addr", ln.Addr().String()))
	return srv, nil
}

func failedTrials(snap results.Snapshot) int {
	n := 0
	for _, v := range snap.Variants {
		for _, p := range v.Params {
			for _, s := range p.Sizes {
				for _, rep := range s.Repeats {
					for _, t := range rep.Trials {
						if t.Failed() {
							n++
						}
					}
				}
			}
		}
	}
	return n
}
