// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package variants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/pathbench/services/bench/graph"
)

func TestDefault_HasBuiltins(t *testing.T) {
	r := Default()

	var pre, search []string
	for _, p := range r.Preprocessors() {
		pre = append(pre, p.Name())
	}
	for _, s := range r.Searchers() {
		search = append(search, s.Name())
	}
	assert.Equal(t, []string{"corner-jumps", "intersection-jumps", "none"}, pre)
	assert.Equal(t, []string{"astar", "bfs", "dijkstra"}, search)
}

func TestResolve(t *testing.T) {
	r := Default()

	pres, searches, err := r.Resolve([]string{"none", "corner-jumps"}, []string{"bfs"})
	require.NoError(t, err)
	require.Len(t, pres, 2)
	require.Len(t, searches, 1)
	assert.Equal(t, "corner-jumps", pres[1].Name())

	_, _, err = r.Resolve([]string{"none", "magic"}, []string{"bfs"})
	require.ErrorIs(t, err, ErrUnknownVariant)
	assert.Contains(t, err.Error(), "magic")

	_, _, err = r.Resolve([]string{"none"}, []string{"jps"})
	require.ErrorIs(t, err, ErrUnknownVariant)
}

func TestRegister_Errors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterSearcher(BFS))

	assert.ErrorIs(t, r.RegisterSearcher(BFS), ErrAlreadyRegistered)
	assert.ErrorIs(t, r.RegisterSearcher(nil), ErrNilVariant)
	assert.ErrorIs(t, r.RegisterPreprocessor(nil), ErrNilVariant)
	assert.Panics(t, func() { r.MustRegisterSearcher(BFS) })

	// namespaces are separate
	require.NoError(t, r.RegisterPreprocessor(NewPreprocessor("bfs", "", nil)))
}

func TestIsNone(t *testing.T) {
	assert.True(t, IsNone(NonePreprocessor))
	assert.True(t, IsNone(nil))
	assert.False(t, IsNone(IntersectionJumps))
}

func TestBuiltinPreprocessors_KeepEndpoints(t *testing.T) {
	build := func() *graph.Graph {
		g := graph.New()
		for i := 0; i < 4; i++ {
			require.NoError(t, g.AddNode(int64(i), float64(i), 0))
		}
		for i := 1; i < 4; i++ {
			require.NoError(t, g.AddEdge(int64(i-1), int64(i), 1))
		}
		return g
	}

	for _, p := range []Preprocessor{NonePreprocessor, IntersectionJumps, CornerJumps} {
		t.Run(p.Name(), func(t *testing.T) {
			g := build()
			src, dst, err := g.Endpoints()
			require.NoError(t, err)

			require.NoError(t, p.Apply(g, [2]graph.Node{src, dst}))
			res := BFS.Search(g, src, dst)
			assert.True(t, res.Found)

			n := g.NodeCount()
			require.NoError(t, p.Apply(g, [2]graph.Node{src, dst}))
			assert.Equal(t, n, g.NodeCount(), "second application removes nothing")
		})
	}
}
