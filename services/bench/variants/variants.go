// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package variants defines the preprocessing and search capabilities a
// benchmark run compares, and the registry that resolves them by name.
package variants

import (
	"errors"

	"github.com/AleutianAI/pathbench/services/bench/graph"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrUnknownVariant indicates a variant name that is not registered.
	ErrUnknownVariant = errors.New("unknown variant")

	// ErrAlreadyRegistered indicates a variant name that is already taken.
	ErrAlreadyRegistered = errors.New("variant already registered")

	// ErrNilVariant indicates a nil variant passed to Register.
	ErrNilVariant = errors.New("variant is nil")
)

// None is the name of the preprocessing variant that leaves the graph alone.
const None = "none"

// Preprocessor rewrites a graph before it is searched.
//
// Description:
//
//	Apply mutates g in place. It must keep both endpoints and must be safe
//	to apply to its own output, removing nothing further.
type Preprocessor interface {
	Name() string
	Description() string
	Apply(g *graph.Graph, endpoints [2]graph.Node) error
}

// Searcher finds a path between two nodes.
//
// Description:
//
//	Search must not mutate g. Not finding a path is a result, not an error.
type Searcher interface {
	Name() string
	Description() string
	Search(g *graph.Graph, source, destination graph.Node) graph.SearchResult
}

// IsNone reports whether p is the no-op preprocessing variant.
func IsNone(p Preprocessor) bool {
	return p == nil || p.Name() == None
}

// -----------------------------------------------------------------------------
// Function adapters
// -----------------------------------------------------------------------------

type preprocessorFunc struct {
	name, description string
	apply             func(*graph.Graph, [2]graph.Node) error
}

// NewPreprocessor wraps a function as a Preprocessor.
func NewPreprocessor(name, description string, apply func(*graph.Graph, [2]graph.Node) error) Preprocessor {
	return &preprocessorFunc{name: name, description: description, apply: apply}
}

func (p *preprocessorFunc) Name() string        { return p.name }
func (p *preprocessorFunc) Description() string { return p.description }

func (p *preprocessorFunc) Apply(g *graph.Graph, endpoints [2]graph.Node) error {
	if p.apply == nil {
		return nil
	}
	return p.apply(g, endpoints)
}

type searcherFunc struct {
	name, description string
	search            func(*graph.Graph, graph.Node, graph.Node) graph.SearchResult
}

// NewSearcher wraps a function as a Searcher.
func NewSearcher(name, description string, search func(*graph.Graph, graph.Node, graph.Node) graph.SearchResult) Searcher {
	return &searcherFunc{name: name, description: description, search: search}
}

func (s *searcherFunc) Name() string        { return s.name }
func (s *searcherFunc) Description() string { return s.description }

func (s *searcherFunc) Search(g *graph.Graph, source, destination graph.Node) graph.SearchResult {
	return s.search(g, source, destination)
}

// -----------------------------------------------------------------------------
// Built-ins
// -----------------------------------------------------------------------------

func keepEndpoints(endpoints [2]graph.Node) map[int64]bool {
	return map[int64]bool{endpoints[0].ID(): true, endpoints[1].ID(): true}
}

// Builtin preprocessing variants.
var (
	NonePreprocessor = NewPreprocessor(None, "leave the graph unchanged", nil)

	IntersectionJumps = NewPreprocessor("intersection-jumps",
		"bypass every degree-2 node so edges jump between intersections",
		func(g *graph.Graph, endpoints [2]graph.Node) error {
			graph.Contract(g, keepEndpoints(endpoints), nil)
			return nil
		})

	CornerJumps = NewPreprocessor("corner-jumps",
		"bypass degree-2 nodes on straight runs so edges jump between corners",
		func(g *graph.Graph, endpoints [2]graph.Node) error {
			graph.Contract(g, keepEndpoints(endpoints), graph.Straight)
			return nil
		})
)

// Builtin search variants.
var (
	AStar    = NewSearcher("astar", "A* with a Euclidean heuristic", graph.AStar)
	Dijkstra = NewSearcher("dijkstra", "Dijkstra's algorithm", graph.Dijkstra)
	BFS      = NewSearcher("bfs", "breadth-first search, fewest edges", graph.BFS)
)
