// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator drives a complete benchmark run: it scans the corpus,
// loads every graph instance, runs every (preprocessing, search) variant pair
// on it and records the trials into a result tree.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/pathbench/services/bench/corpus"
	"github.com/AleutianAI/pathbench/services/bench/graph"
	"github.com/AleutianAI/pathbench/services/bench/results"
	"github.com/AleutianAI/pathbench/services/bench/runner"
	"github.com/AleutianAI/pathbench/services/bench/telemetry"
	"github.com/AleutianAI/pathbench/services/bench/variants"
)

const tracerName = "bench.orchestrator"

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidConfig indicates a run configuration that fails validation.
	ErrInvalidConfig = errors.New("invalid run config")

	// ErrLoad indicates a graph file that could not be opened or parsed.
	ErrLoad = errors.New("loading graph")
)

// -----------------------------------------------------------------------------
// Collaborators
// -----------------------------------------------------------------------------

// ProgressReporter receives the fraction of graph instances processed.
//
// Description:
//
//	Update is called once per graph instance, after every variant pair of
//	that instance has been recorded. Calls never overlap and fractions
//	never decrease, even with several workers.
type ProgressReporter interface {
	Update(fraction float64)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(fraction float64)

// Update calls f.
func (f ProgressFunc) Update(fraction float64) { f(fraction) }

// Loader turns an open graph file into a graph.
type Loader func(r io.Reader) (*graph.Graph, error)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config describes one benchmark run.
type Config struct {
	// CorpusDir is the corpus root.
	CorpusDir string

	// Preprocessing lists preprocessing variant names in run order.
	Preprocessing []string

	// Search lists search variant names in run order.
	Search []string

	// Runner controls trial repetition and deadlines.
	Runner runner.Config

	// Workers is the number of graph instances processed concurrently.
	// Values below 1 mean 1, which processes instances sequentially.
	Workers int

	// FailurePolicy decides whether failed searches enter aggregates.
	FailurePolicy results.FailurePolicy

	// Axes labels the structural parameter and preprocessing axes.
	Axes results.Axes
}

// Validate checks the config without touching the file system.
func (c Config) Validate() error {
	if c.CorpusDir == "" {
		return fmt.Errorf("%w: corpus directory is required", ErrInvalidConfig)
	}
	if len(c.Preprocessing) == 0 {
		return fmt.Errorf("%w: at least one preprocessing variant is required", ErrInvalidConfig)
	}
	if len(c.Search) == 0 {
		return fmt.Errorf("%w: at least one search variant is required", ErrInvalidConfig)
	}
	if name, ok := duplicate(c.Preprocessing); ok {
		return fmt.Errorf("%w: preprocessing variant %q listed twice", ErrInvalidConfig, name)
	}
	if name, ok := duplicate(c.Search); ok {
		return fmt.Errorf("%w: search variant %q listed twice", ErrInvalidConfig, name)
	}
	if err := c.Runner.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// duplicate returns the first name that occurs more than once.
func duplicate(names []string) (string, bool) {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n, true
		}
		seen[n] = struct{}{}
	}
	return "", false
}

// -----------------------------------------------------------------------------
// Orchestrator
// -----------------------------------------------------------------------------

// Orchestrator runs benchmarks.
//
// Thread Safety: Safe for concurrent use; each Run owns its result tree.
type Orchestrator struct {
	registry *variants.Registry
	loader   Loader
	progress ProgressReporter
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRegistry sets the variant registry. Defaults to variants.Default().
func WithRegistry(r *variants.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

// WithLoader sets the graph loader. Defaults to graph.Load.
func WithLoader(l Loader) Option {
	return func(o *Orchestrator) { o.loader = l }
}

// WithProgress sets the progress reporter. Defaults to none.
func WithProgress(p ProgressReporter) Option {
	return func(o *Orchestrator) { o.progress = p }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics sets the OTel instruments. Defaults to instruments from the
// global meter provider.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = variants.Default()
	}
	if o.loader == nil {
		o.loader = graph.Load
	}
	if o.progress == nil {
		o.progress = ProgressFunc(func(float64) {})
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		m, err := telemetry.NewMetrics(otel.Meter(tracerName))
		if err != nil {
			o.logger.Warn("orchestrator metrics disabled", slog.String("error", err.Error()))
		}
		o.metrics = m
	}
	return o
}

// plan is the resolved form of a Config.
type plan struct {
	cfg      Config
	pres     []variants.Preprocessor
	searches []variants.Searcher
	runner   *runner.Runner
	tree     *results.TestResult
	progress *progress
}

// Run executes a benchmark and returns its result tree.
//
// Description:
//
//	Every variant name is resolved before the corpus is read, so an unknown
//	name fails the run without loading a graph. The result tree is created
//	with one VariantNode per pair, then the corpus is counted and scanned.
//	Each graph instance is loaded once and cloned for every variant pair;
//	source and destination are the first and last node of the loaded graph.
//	After all pairs of an instance are recorded, progress is reported as
//	processed / total.
//
// Inputs:
//   - ctx: Cancellation stops the run at the next trial.
//   - cfg: The run configuration.
//
// Outputs:
//   - *results.TestResult: The populated tree.
//   - error: ErrInvalidConfig, variants.ErrUnknownVariant, ErrLoad, a
//     corpus I/O error, a runner error or ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, cfg Config) (*results.TestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "orchestrator.Orchestrator.Run",
		telemetry.AttrCorpus.String(cfg.CorpusDir),
		telemetry.AttrPreprocessing.StringSlice(cfg.Preprocessing),
		telemetry.AttrSearch.StringSlice(cfg.Search),
		telemetry.AttrRepeat.Int(cfg.Runner.Repeat),
		telemetry.AttrWorkers.Int(cfg.Workers),
	)
	tree, err := o.run(ctx, cfg)
	telemetry.End(span, err)

	status := "ok"
	if err != nil {
		status = "error"
	}
	if o.metrics != nil {
		o.metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(telemetry.AttrStatus.String(status)))
	}
	return tree, err
}

func (o *Orchestrator) run(ctx context.Context, cfg Config) (*results.TestResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pres, searches, err := o.registry.Resolve(cfg.Preprocessing, cfg.Search)
	if err != nil {
		return nil, err
	}
	r, err := runner.New(cfg.Runner, o.logger)
	if err != nil {
		return nil, err
	}

	p := &plan{
		cfg:      cfg,
		pres:     pres,
		searches: searches,
		runner:   r,
		tree:     results.NewTestResult(cfg.Preprocessing, cfg.Search, cfg.FailurePolicy, cfg.Axes),
	}

	scanner := corpus.NewScanner(cfg.CorpusDir, corpus.WithLogger(o.logger))
	total, err := scanner.Count()
	if err != nil {
		return nil, err
	}
	p.progress = &progress{total: total, reporter: o.progress}

	logger := telemetry.LoggerWithTrace(ctx, o.logger)
	logger.Info("benchmark run starting",
		slog.String("corpus", cfg.CorpusDir),
		slog.Int("instances", total),
		slog.Int("variants", len(pres)*len(searches)),
		slog.Int("repeat", cfg.Runner.Repeat),
		slog.Int("workers", max(cfg.Workers, 1)),
		slog.String("failure_policy", cfg.FailurePolicy.String()),
	)
	start := time.Now()

	if cfg.Workers <= 1 {
		err = o.sequential(ctx, scanner, p)
	} else {
		err = o.parallel(ctx, scanner, p, cfg.Workers)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("benchmark run complete",
		slog.Int("instances", p.progress.processed()),
		slog.Int("trials", p.tree.TrialCount()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return p.tree, nil
}

func (o *Orchestrator) sequential(ctx context.Context, scanner *corpus.Scanner, p *plan) error {
	for entry, err := range scanner.Scan(ctx) {
		if err != nil {
			return err
		}
		if err := o.instance(ctx, entry, p); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) parallel(ctx context.Context, scanner *corpus.Scanner, p *plan, workers int) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	var scanErr error
	for entry, err := range scanner.Scan(gctx) {
		if err != nil {
			scanErr = err
			break
		}
		eg.Go(func() error {
			return o.instance(gctx, entry, p)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return scanErr
}

// instance loads one graph and runs every variant pair on it.
func (o *Orchestrator) instance(ctx context.Context, entry corpus.Entry, p *plan) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "orchestrator.Orchestrator.instance",
		telemetry.Instance(entry.StructuralParameter, entry.Size, entry.Repeat)...,
	)
	err := o.runInstance(ctx, entry, p)
	telemetry.End(span, err)
	return err
}

func (o *Orchestrator) runInstance(ctx context.Context, entry corpus.Entry, p *plan) error {
	g, err := o.load(ctx, entry)
	if err != nil {
		return err
	}
	source, destination, err := g.Endpoints()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoad, entry.Path, err)
	}

	for _, pre := range p.pres {
		for _, search := range p.searches {
			key := results.VariantKey{Preprocessing: pre.Name(), Search: search.Name()}
			trials, timing, err := p.runner.Run(ctx, g.Clone(), source, destination, pre, search)
			if err != nil {
				return fmt.Errorf("%s %s: %w", key, entry.Path, err)
			}
			rep := p.tree.GetOrCreate(key, entry.StructuralParameter, entry.Size, entry.Repeat)
			if err := rep.SizeNode().Record(rep, trials, timing); err != nil {
				return err
			}
		}
	}

	if o.metrics != nil {
		o.metrics.InstancesTotal.Add(ctx, 1, metric.WithAttributes(
			telemetry.AttrParam.Float64(entry.StructuralParameter),
			telemetry.AttrSize.Int(entry.Size),
		))
	}
	o.logger.Debug("instance complete",
		slog.String("path", entry.Path),
		slog.Float64("param", entry.StructuralParameter),
		slog.Int("size", entry.Size),
		slog.Int("repeat", entry.Repeat),
	)
	p.progress.step()
	return nil
}

func (o *Orchestrator) load(ctx context.Context, entry corpus.Entry) (*graph.Graph, error) {
	f, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	start := time.Now()
	g, err := o.loader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, entry.Path, err)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, entry.Path, graph.ErrEmptyGraph)
	}
	if o.metrics != nil {
		o.metrics.GraphLoadDuration.Record(ctx, time.Since(start).Seconds())
		o.metrics.GraphNodes.Record(ctx, int64(g.NodeCount()))
	}
	return g, nil
}

// progress serializes reporter calls so fractions are monotonic.
type progress struct {
	mu       sync.Mutex
	done     int
	total    int
	reporter ProgressReporter
}

func (p *progress) step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.total <= 0 {
		return
	}
	p.reporter.Update(min(float64(p.done)/float64(p.total), 1))
}

func (p *progress) processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
