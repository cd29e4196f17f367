// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/pathbench/services/bench/graph"
	"github.com/AleutianAI/pathbench/services/bench/results"
	"github.com/AleutianAI/pathbench/services/bench/variants"
)

// chain builds 0-1-...-(n-1) on the x axis.
func chain(t *testing.T, n int) (*graph.Graph, graph.Node, graph.Node) {
	t.Helper()
	g := graph.New()
	for i := 0; i < n; i++ {
		require.NoError(t, g.AddNode(int64(i), float64(i), 0))
	}
	for i := 1; i < n; i++ {
		require.NoError(t, g.AddEdge(int64(i-1), int64(i), 1))
	}
	src, dst, err := g.Endpoints()
	require.NoError(t, err)
	return g, src, dst
}

func newRunner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	r, err := New(cfg, nil)
	require.NoError(t, err)
	return r
}

func fixedSearch(name string, found bool, explored int) variants.Searcher {
	return variants.NewSearcher(name, "", func(*graph.Graph, graph.Node, graph.Node) graph.SearchResult {
		return graph.SearchResult{Found: found, Explored: explored}
	})
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{Repeat: 0}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{Repeat: 1, TrialTimeout: -time.Second}.Validate(), ErrInvalidConfig)

	_, err := New(Config{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRun_RepeatsSearchWithFreshTimers(t *testing.T) {
	g, src, dst := chain(t, 4)
	var calls atomic.Int32
	search := variants.NewSearcher("sleepy", "", func(*graph.Graph, graph.Node, graph.Node) graph.SearchResult {
		calls.Add(1)
		time.Sleep(2 * time.Millisecond)
		return graph.SearchResult{Found: true, Explored: 2}
	})

	trials, timing, err := newRunner(t, Config{Repeat: 3}).Run(context.Background(), g, src, dst, variants.NonePreprocessor, search)
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, trials, 3)
	for _, tr := range trials {
		assert.GreaterOrEqual(t, tr.SearchTime, 0.002)
		assert.Less(t, tr.SearchTime, 1.0, "each timer measures one search only")
		assert.Equal(t, 2, tr.ExploredNodes)
		assert.InDelta(t, 0.5, tr.ExploredRatio, 1e-12)
	}
	assert.Equal(t, results.PreprocessingTiming{}, timing)
}

func TestRun_NotFoundRecordsSentinel(t *testing.T) {
	g, src, dst := chain(t, 10)
	search := fixedSearch("never-finds", false, 7)
	before := testutil.ToFloat64(trialsTotal.WithLabelValues("never-finds", outcomeNotFound))

	trials, _, err := newRunner(t, Config{Repeat: 3}).Run(context.Background(), g, src, dst, variants.NonePreprocessor, search)
	require.NoError(t, err)

	require.Len(t, trials, 3)
	for _, tr := range trials {
		assert.Equal(t, results.FailedSearchTime, tr.SearchTime)
		assert.Equal(t, 7, tr.ExploredNodes)
		assert.InDelta(t, 0.7, tr.ExploredRatio, 1e-12)
		assert.False(t, tr.TimedOut)
	}
	after := testutil.ToFloat64(trialsTotal.WithLabelValues("never-finds", outcomeNotFound))
	assert.Equal(t, 3.0, after-before)
}

func TestRun_NoneIsNotInvoked(t *testing.T) {
	g, src, dst := chain(t, 3)
	pre := variants.NewPreprocessor(variants.None, "", func(*graph.Graph, [2]graph.Node) error {
		return errors.New("must not run")
	})

	_, timing, err := newRunner(t, Config{Repeat: 1}).Run(context.Background(), g, src, dst, pre, fixedSearch("f1", true, 1))
	require.NoError(t, err)
	assert.Zero(t, timing.Duration)
}

func TestRun_PreprocessesOnceAndRatioUsesShrunkGraph(t *testing.T) {
	g, src, dst := chain(t, 10)
	var applied atomic.Int32
	pre := variants.NewPreprocessor("counting-jumps", "", func(g *graph.Graph, ep [2]graph.Node) error {
		applied.Add(1)
		return variants.IntersectionJumps.Apply(g, ep)
	})

	trials, timing, err := newRunner(t, Config{Repeat: 4}).Run(context.Background(), g, src, dst, pre, variants.BFS)
	require.NoError(t, err)

	assert.Equal(t, int32(1), applied.Load())
	assert.Equal(t, 2, g.NodeCount())
	assert.GreaterOrEqual(t, timing.Duration, 0.0)
	require.Len(t, trials, 4)
	for _, tr := range trials {
		assert.Equal(t, 2, tr.ExploredNodes)
		assert.Equal(t, 1.0, tr.ExploredRatio)
	}
}

func TestRun_PreprocessingErrors(t *testing.T) {
	g, src, dst := chain(t, 3)
	boom := errors.New("boom")
	failing := variants.NewPreprocessor("failing", "", func(*graph.Graph, [2]graph.Node) error { return boom })

	_, _, err := newRunner(t, Config{Repeat: 1}).Run(context.Background(), g, src, dst, failing, variants.BFS)
	assert.ErrorIs(t, err, ErrPreprocessing)
	assert.ErrorIs(t, err, boom)

	greedy := variants.NewPreprocessor("greedy", "", func(g *graph.Graph, ep [2]graph.Node) error {
		g.RemoveNode(ep[1].ID())
		return nil
	})
	_, _, err = newRunner(t, Config{Repeat: 1}).Run(context.Background(), g, src, dst, greedy, variants.BFS)
	assert.ErrorIs(t, err, ErrEndpointRemoved)
}

func TestRun_TrialTimeout(t *testing.T) {
	g, src, dst := chain(t, 3)
	release := make(chan struct{})
	defer close(release)
	hang := variants.NewSearcher("hang", "", func(*graph.Graph, graph.Node, graph.Node) graph.SearchResult {
		<-release
		return graph.SearchResult{Found: true}
	})

	trials, _, err := newRunner(t, Config{Repeat: 2, TrialTimeout: 10 * time.Millisecond}).
		Run(context.Background(), g, src, dst, variants.NonePreprocessor, hang)
	require.NoError(t, err)

	require.Len(t, trials, 2)
	for _, tr := range trials {
		assert.True(t, tr.TimedOut)
		assert.True(t, tr.Failed())
		assert.Zero(t, tr.ExploredNodes)
		assert.Zero(t, tr.ExploredRatio)
	}
}

func TestRun_TimeoutNotHitRecordsNormally(t *testing.T) {
	g, src, dst := chain(t, 5)

	trials, _, err := newRunner(t, Config{Repeat: 2, TrialTimeout: time.Minute}).
		Run(context.Background(), g, src, dst, variants.NonePreprocessor, variants.AStar)
	require.NoError(t, err)

	for _, tr := range trials {
		assert.False(t, tr.TimedOut)
		assert.GreaterOrEqual(t, tr.SearchTime, 0.0)
		assert.Equal(t, 5, tr.ExploredNodes)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	g, src, dst := chain(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newRunner(t, Config{Repeat: 3}).Run(ctx, g, src, dst, variants.NonePreprocessor, variants.BFS)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_CancelDuringDeadlinedSearch(t *testing.T) {
	g, src, dst := chain(t, 3)
	release := make(chan struct{})
	defer close(release)
	ctx, cancel := context.WithCancel(context.Background())
	hang := variants.NewSearcher("hang-cancel", "", func(*graph.Graph, graph.Node, graph.Node) graph.SearchResult {
		cancel()
		<-release
		return graph.SearchResult{}
	})

	_, _, err := newRunner(t, Config{Repeat: 1, TrialTimeout: time.Minute}).
		Run(ctx, g, src, dst, variants.NonePreprocessor, hang)
	assert.ErrorIs(t, err, context.Canceled)
}
