// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runner executes the trials of one graph instance for one
// (preprocessing, search) variant pair.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/pathbench/services/bench/graph"
	"github.com/AleutianAI/pathbench/services/bench/results"
	"github.com/AleutianAI/pathbench/services/bench/telemetry"
	"github.com/AleutianAI/pathbench/services/bench/variants"
)

const tracerName = "bench.runner"

var (
	// ErrInvalidConfig indicates a runner configuration that fails validation.
	ErrInvalidConfig = errors.New("invalid runner config")

	// ErrPreprocessing wraps an error returned by a preprocessing variant.
	ErrPreprocessing = errors.New("preprocessing failed")

	// ErrEndpointRemoved indicates a preprocessing variant removed a trial endpoint.
	ErrEndpointRemoved = errors.New("preprocessing removed an endpoint")
)

// Config controls trial execution.
type Config struct {
	// Repeat is the number of searches per graph instance. Must be >= 1.
	Repeat int `json:"repeat" yaml:"repeat"`

	// TrialTimeout bounds one search. Zero disables the deadline.
	TrialTimeout time.Duration `json:"trial_timeout" yaml:"trial_timeout"`
}

// DefaultConfig returns a Config with ten searches and no deadline.
func DefaultConfig() Config {
	return Config{Repeat: 10}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Repeat < 1 {
		return fmt.Errorf("%w: repeat must be >= 1, got %d", ErrInvalidConfig, c.Repeat)
	}
	if c.TrialTimeout < 0 {
		return fmt.Errorf("%w: trial timeout must be >= 0, got %s", ErrInvalidConfig, c.TrialTimeout)
	}
	return nil
}

// Runner executes trials.
//
// Thread Safety: Safe for concurrent use on distinct graphs.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Runner.
//
// Outputs:
//   - *Runner: The runner.
//   - error: ErrInvalidConfig when cfg fails validation.
func New(cfg Config, logger *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger}, nil
}

// Config returns the runner configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// Run preprocesses g once and searches it Repeat times.
//
// Description:
//
//	The preprocessing variant is applied to g in place and timed with the
//	wall clock; the "none" variant is not invoked and reports zero. Each
//	search is then timed on its own. A search that finds no path records
//	results.FailedSearchTime together with its explored counts. The
//	explored ratio divides by the node count after preprocessing.
//
//	With a TrialTimeout, a search still running at its deadline is
//	abandoned and recorded as a failed trial with TimedOut set. The
//	abandoned search keeps running in the background until it returns; it
//	only reads g.
//
// Inputs:
//   - ctx: Cancellation aborts the run between or during trials.
//   - g: The graph to preprocess and search. Mutated by preprocessing.
//   - source, destination: Trial endpoints. Must survive preprocessing.
//   - pre: The preprocessing variant.
//   - search: The search variant.
//
// Outputs:
//   - []results.RawTrial: Repeat trials in execution order.
//   - results.PreprocessingTiming: The preprocessing duration.
//   - error: ErrPreprocessing, ErrEndpointRemoved or ctx.Err().
func (r *Runner) Run(
	ctx context.Context,
	g *graph.Graph,
	source, destination graph.Node,
	pre variants.Preprocessor,
	search variants.Searcher,
) ([]results.RawTrial, results.PreprocessingTiming, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "runner.Runner.Run",
		append(telemetry.Variant(preName(pre), search.Name()),
			telemetry.AttrNodes.Int(g.NodeCount()),
			telemetry.AttrRepeat.Int(r.cfg.Repeat),
		)...,
	)
	trials, timing, err := r.run(ctx, g, source, destination, pre, search)
	telemetry.End(span, err)
	return trials, timing, err
}

func (r *Runner) run(
	ctx context.Context,
	g *graph.Graph,
	source, destination graph.Node,
	pre variants.Preprocessor,
	search variants.Searcher,
) ([]results.RawTrial, results.PreprocessingTiming, error) {
	timing, err := r.preprocess(g, source, destination, pre)
	if err != nil {
		return nil, results.PreprocessingTiming{}, err
	}

	nodes := g.NodeCount()
	trials := make([]results.RawTrial, 0, r.cfg.Repeat)
	failed := 0
	for i := 0; i < r.cfg.Repeat; i++ {
		if err := ctx.Err(); err != nil {
			return nil, results.PreprocessingTiming{}, err
		}
		trial, err := r.trial(ctx, g, source, destination, search, nodes)
		if err != nil {
			return nil, results.PreprocessingTiming{}, err
		}
		if trial.Failed() {
			failed++
		}
		trials = append(trials, trial)
	}

	trace.SpanFromContext(ctx).SetAttributes(
		telemetry.AttrNodesAfter.Int(nodes),
		telemetry.AttrFailedTrials.Int(failed),
	)
	telemetry.LoggerWithTrace(ctx, r.logger).Debug("trials complete",
		slog.String("preprocessing", preName(pre)),
		slog.String("search", search.Name()),
		slog.Int("nodes", nodes),
		slog.Int("trials", len(trials)),
		slog.Int("failed", failed),
	)
	return trials, timing, nil
}

func (r *Runner) preprocess(g *graph.Graph, source, destination graph.Node, pre variants.Preprocessor) (results.PreprocessingTiming, error) {
	if variants.IsNone(pre) {
		return results.PreprocessingTiming{}, nil
	}

	start := time.Now()
	err := pre.Apply(g, [2]graph.Node{source, destination})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return results.PreprocessingTiming{}, fmt.Errorf("%w: %s: %w", ErrPreprocessing, pre.Name(), err)
	}
	for _, n := range []graph.Node{source, destination} {
		if _, ok := g.Node(n.ID()); !ok {
			return results.PreprocessingTiming{}, fmt.Errorf("%w: %s removed node %d", ErrEndpointRemoved, pre.Name(), n.ID())
		}
	}
	preprocessingDuration.WithLabelValues(pre.Name()).Observe(elapsed)
	return results.PreprocessingTiming{Duration: elapsed}, nil
}

// trial times one search. Only ctx.Err() is returned as an error.
func (r *Runner) trial(
	ctx context.Context,
	g *graph.Graph,
	source, destination graph.Node,
	search variants.Searcher,
	nodes int,
) (results.RawTrial, error) {
	var (
		res     graph.SearchResult
		elapsed time.Duration
	)

	if r.cfg.TrialTimeout <= 0 {
		start := time.Now()
		res = search.Search(g, source, destination)
		elapsed = time.Since(start)
	} else {
		type outcome struct {
			res     graph.SearchResult
			elapsed time.Duration
		}
		done := make(chan outcome, 1)
		timer := time.NewTimer(r.cfg.TrialTimeout)
		defer timer.Stop()

		go func() {
			start := time.Now()
			res := search.Search(g, source, destination)
			done <- outcome{res: res, elapsed: time.Since(start)}
		}()

		select {
		case o := <-done:
			res, elapsed = o.res, o.elapsed
		case <-timer.C:
			trialsTotal.WithLabelValues(search.Name(), outcomeTimeout).Inc()
			r.logger.Warn("search timed out",
				slog.String("search", search.Name()),
				slog.Duration("timeout", r.cfg.TrialTimeout),
			)
			return results.RawTrial{SearchTime: results.FailedSearchTime, TimedOut: true}, nil
		case <-ctx.Done():
			return results.RawTrial{}, ctx.Err()
		}
	}

	trial := results.RawTrial{ExploredNodes: res.Explored}
	if nodes > 0 {
		trial.ExploredRatio = float64(res.Explored) / float64(nodes)
	}
	if !res.Found {
		trial.SearchTime = results.FailedSearchTime
		trialsTotal.WithLabelValues(search.Name(), outcomeNotFound).Inc()
		return trial, nil
	}
	trial.SearchTime = elapsed.Seconds()
	trialsTotal.WithLabelValues(search.Name(), outcomeFound).Inc()
	searchDuration.WithLabelValues(search.Name()).Observe(trial.SearchTime)
	return trial, nil
}

func preName(p variants.Preprocessor) string {
	if p == nil {
		return variants.None
	}
	return p.Name()
}
