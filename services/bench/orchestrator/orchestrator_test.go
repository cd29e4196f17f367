// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/pathbench/services/bench/graph"
	"github.com/AleutianAI/pathbench/services/bench/results"
	"github.com/AleutianAI/pathbench/services/bench/runner"
	"github.com/AleutianAI/pathbench/services/bench/variants"
)

// writeChain writes a path graph of n nodes to root/rel.
func writeChain(t *testing.T, root, rel string, n int, c graph.Compression) {
	t.Helper()
	g := graph.New()
	for i := 0; i < n; i++ {
		require.NoError(t, g.AddNode(int64(i), float64(i), 0))
	}
	for i := 1; i < n; i++ {
		require.NoError(t, g.AddEdge(int64(i-1), int64(i), 1))
	}
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, graph.Write(f, g, c))
}

type recorder struct {
	mu        sync.Mutex
	fractions []float64
}

func (r *recorder) Update(f float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fractions = append(r.fractions, f)
}

func baseConfig(root string) Config {
	return Config{
		CorpusDir:     root,
		Preprocessing: []string{variants.None},
		Search:        []string{"astar", "bfs"},
		Runner:        runner.Config{Repeat: 3},
		Axes:          results.DefaultAxes(),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	root := t.TempDir()
	writeChain(t, root, "0.5/10/0", 10, graph.CompressionNone)
	writeChain(t, root, "0.5/10/1", 10, graph.CompressionGzip)

	rec := &recorder{}
	tree, err := New(WithProgress(rec)).Run(context.Background(), baseConfig(root))
	require.NoError(t, err)

	assert.Equal(t, 12, tree.TrialCount())
	assert.Equal(t, []float64{0.5, 1}, rec.fractions)

	snap := tree.Snapshot()
	require.Len(t, snap.Variants, 2)
	for _, v := range snap.Variants {
		require.Len(t, v.Params, 1)
		assert.Equal(t, 0.5, v.Params[0].Value)
		require.Len(t, v.Params[0].Sizes, 1)
		size := v.Params[0].Sizes[0]
		assert.Equal(t, 10, size.Size)
		require.Len(t, size.Repeats, 2)
		for _, rep := range size.Repeats {
			assert.Len(t, rep.Trials, 3)
		}
		assert.Equal(t, 6, size.AverageSearch.Count)
		assert.Equal(t, 10, size.AverageSearch.Mean.ExploredNodes)
	}
}

func TestRun_UnknownVariantFailsBeforeLoading(t *testing.T) {
	root := t.TempDir()
	writeChain(t, root, "0.5/10/0", 4, graph.CompressionNone)

	var loads atomic.Int32
	loader := func(r io.Reader) (*graph.Graph, error) {
		loads.Add(1)
		return graph.Load(r)
	}
	cfg := baseConfig(root)
	cfg.Search = []string{"astar", "teleport"}

	_, err := New(WithLoader(loader)).Run(context.Background(), cfg)
	require.ErrorIs(t, err, variants.ErrUnknownVariant)
	assert.Zero(t, loads.Load())
}

func TestRun_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no corpus", func(c *Config) { c.CorpusDir = "" }},
		{"no preprocessing", func(c *Config) { c.Preprocessing = nil }},
		{"no search", func(c *Config) { c.Search = nil }},
		{"zero repeat", func(c *Config) { c.Runner.Repeat = 0 }},
		{"duplicate search", func(c *Config) { c.Search = []string{"astar", "astar"} }},
		{"duplicate preprocessing", func(c *Config) { c.Preprocessing = []string{"none", "none"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t.TempDir())
			tt.mutate(&cfg)
			_, err := New().Run(context.Background(), cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRun_LoadFailureAborts(t *testing.T) {
	root := t.TempDir()
	writeChain(t, root, "0.5/10/0", 4, graph.CompressionNone)
	require.NoError(t, os.WriteFile(filepath.Join(root, "0.5", "10", "1"), []byte("garbage\n"), 0o644))

	_, err := New().Run(context.Background(), baseConfig(root))
	require.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, graph.ErrSyntax)
}

func TestRun_NeverFoundIncludesSentinel(t *testing.T) {
	root := t.TempDir()
	writeChain(t, root, "1/5/0", 5, graph.CompressionNone)

	reg := variants.NewRegistry()
	reg.MustRegisterPreprocessor(variants.NonePreprocessor)
	reg.MustRegisterSearcher(variants.NewSearcher("lost", "", func(*graph.Graph, graph.Node, graph.Node) graph.SearchResult {
		return graph.SearchResult{Explored: 5}
	}))
	cfg := baseConfig(root)
	cfg.Search = []string{"lost"}

	tree, err := New(WithRegistry(reg)).Run(context.Background(), cfg)
	require.NoError(t, err)

	rep := tree.GetOrCreate(results.VariantKey{Preprocessing: variants.None, Search: "lost"}, 1, 5, 0)
	trials := rep.Trials()
	require.Len(t, trials, 3)
	for _, tr := range trials {
		assert.Equal(t, results.FailedSearchTime, tr.SearchTime)
	}
	avg := rep.SizeNode().AverageSearch()
	assert.Equal(t, -1.0, avg.Mean.SearchTime)
	assert.Equal(t, 5, avg.Mean.ExploredNodes)
	assert.Equal(t, 1.0, avg.Mean.ExploredRatio)

	cfg.FailurePolicy = results.FailuresExcluded
	tree, err = New(WithRegistry(reg)).Run(context.Background(), cfg)
	require.NoError(t, err)
	rep = tree.GetOrCreate(results.VariantKey{Preprocessing: variants.None, Search: "lost"}, 1, 5, 0)
	assert.Equal(t, 0, rep.SizeNode().AverageSearch().Count)
	assert.Len(t, rep.Trials(), 3)
}

func TestRun_SizesRecordedInNumericOrder(t *testing.T) {
	root := t.TempDir()
	for _, size := range []string{"2", "10", "1"} {
		writeChain(t, root, "0.5/"+size+"/0", 3, graph.CompressionNone)
	}
	cfg := baseConfig(root)
	cfg.Search = []string{"bfs"}
	cfg.Runner.Repeat = 1

	tree, err := New().Run(context.Background(), cfg)
	require.NoError(t, err)

	var sizes []int
	for _, s := range tree.Snapshot().Variants[0].Params[0].Sizes {
		sizes = append(sizes, s.Size)
	}
	assert.Equal(t, []int{1, 2, 10}, sizes)
}

func TestRun_VariantsGetIndependentClones(t *testing.T) {
	root := t.TempDir()
	writeChain(t, root, "0.5/8/0", 8, graph.CompressionZstd)
	cfg := baseConfig(root)
	cfg.Preprocessing = []string{"intersection-jumps", variants.None}
	cfg.Search = []string{"bfs"}
	cfg.Runner.Repeat = 1

	tree, err := New().Run(context.Background(), cfg)
	require.NoError(t, err)

	jumps := tree.GetOrCreate(results.VariantKey{Preprocessing: "intersection-jumps", Search: "bfs"}, 0.5, 8, 0)
	none := tree.GetOrCreate(results.VariantKey{Preprocessing: variants.None, Search: "bfs"}, 0.5, 8, 0)
	assert.Equal(t, 2, jumps.Trials()[0].ExploredNodes)
	assert.Equal(t, 8, none.Trials()[0].ExploredNodes, "none runs on an unprocessed clone")
	assert.Zero(t, none.Preprocessing().Duration)
}

func TestRun_ParallelWorkers(t *testing.T) {
	root := t.TempDir()
	for _, param := range []string{"0.1", "0.2", "0.3"} {
		for _, size := range []string{"4", "8"} {
			for _, rep := range []string{"0", "1", "2"} {
				writeChain(t, root, param+"/"+size+"/"+rep, 6, graph.CompressionNone)
			}
		}
	}
	cfg := baseConfig(root)
	cfg.Workers = 4

	rec := &recorder{}
	tree, err := New(WithProgress(rec)).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 18*2*3, tree.TrialCount())
	require.Len(t, rec.fractions, 18)
	assert.True(t, slices.IsSorted(rec.fractions), "progress is monotonic")
	assert.Equal(t, 1.0, rec.fractions[17])
	for _, v := range tree.Snapshot().Variants {
		assert.Len(t, v.Params, 3)
	}
}

func TestRun_ParallelLoadFailure(t *testing.T) {
	root := t.TempDir()
	for _, rep := range []string{"0", "1", "2", "3"} {
		writeChain(t, root, "0.5/4/"+rep, 4, graph.CompressionNone)
	}
	boom := errors.New("disk on fire")
	var calls atomic.Int32
	loader := func(r io.Reader) (*graph.Graph, error) {
		if calls.Add(1) == 2 {
			return nil, boom
		}
		return graph.Load(r)
	}
	cfg := baseConfig(root)
	cfg.Workers = 2

	_, err := New(WithLoader(loader)).Run(context.Background(), cfg)
	require.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, boom)
}

func TestRun_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeChain(t, root, "0.5/4/0", 4, graph.CompressionNone)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Run(ctx, baseConfig(root))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_MissingCorpus(t *testing.T) {
	_, err := New().Run(context.Background(), baseConfig(filepath.Join(t.TempDir(), "nope")))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_EmptyCorpusReportsNothing(t *testing.T) {
	rec := &recorder{}
	tree, err := New(WithProgress(rec)).Run(context.Background(), baseConfig(t.TempDir()))
	require.NoError(t, err)
	assert.Zero(t, tree.TrialCount())
	assert.Empty(t, rec.fractions)
	assert.Len(t, tree.Variants(), 2, "variant nodes exist before any graph is seen")
}
