// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/traverse"
)

// SearchResult is the outcome of one search.
type SearchResult struct {
	// Found is false when the destination is unreachable.
	Found bool

	// Path runs from source to destination inclusive. Nil when not found.
	Path []Node

	// Explored is the number of nodes the search expanded.
	Explored int
}

// AStar finds a path with gonum's A* and a Euclidean heuristic.
//
// Description:
//
//	The heuristic is admissible when edge weights are at least the
//	distance between their endpoints, which holds for weights the loader
//	derives from positions. Smaller explicit weights still yield a path,
//	but not necessarily the shortest one.
func AStar(g *Graph, source, destination Node) SearchResult {
	return shortest(g, source, destination, euclidean)
}

// Dijkstra finds the shortest path with gonum's A* and no heuristic.
func Dijkstra(g *Graph, source, destination Node) SearchResult {
	return shortest(g, source, destination, path.NullHeuristic)
}

func shortest(g *Graph, source, destination Node, h path.Heuristic) SearchResult {
	if _, ok := g.Node(source.ID()); !ok {
		return SearchResult{}
	}
	if _, ok := g.Node(destination.ID()); !ok {
		return SearchResult{}
	}
	sp, expanded := path.AStar(source, destination, g.g, h)
	nodes, _ := sp.To(destination.ID())
	res := SearchResult{Explored: expanded}
	if len(nodes) == 0 {
		return res
	}
	res.Found = true
	res.Path = toNodes(nodes)
	return res
}

func euclidean(x, y gonum.Node) float64 {
	a, okA := x.(Node)
	b, okB := y.(Node)
	if !okA || !okB {
		return 0
	}
	return a.Distance(b)
}

// BFS finds the path with the fewest edges using gonum's breadth-first walk.
//
// Explored counts every node dequeued before the destination, inclusive.
func BFS(g *Graph, source, destination Node) SearchResult {
	if _, ok := g.Node(source.ID()); !ok {
		return SearchResult{}
	}
	if _, ok := g.Node(destination.ID()); !ok {
		return SearchResult{}
	}

	parent := map[int64]int64{source.ID(): source.ID()}
	explored := 0
	bf := traverse.BreadthFirst{
		Traverse: func(e gonum.Edge) bool {
			from, to := e.From().ID(), e.To().ID()
			_, seenFrom := parent[from]
			_, seenTo := parent[to]
			switch {
			case seenFrom && !seenTo:
				parent[to] = from
			case seenTo && !seenFrom:
				parent[from] = to
			}
			return true
		},
	}
	found := bf.Walk(g.g, source, func(n gonum.Node, _ int) bool {
		explored++
		return n.ID() == destination.ID()
	})

	res := SearchResult{Explored: explored}
	if found == nil {
		return res
	}
	var rev []Node
	for id := destination.ID(); ; id = parent[id] {
		n, _ := g.Node(id)
		rev = append(rev, n)
		if id == source.ID() {
			break
		}
	}
	res.Found = true
	res.Path = make([]Node, len(rev))
	for i, n := range rev {
		res.Path[len(rev)-1-i] = n
	}
	return res
}

func toNodes(nodes []gonum.Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.(Node)
	}
	return out
}
