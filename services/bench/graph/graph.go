// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the positioned, weighted graph that benchmark
// variants operate on, together with its loader and the built-in search and
// preprocessing algorithms.
//
// A Graph wraps a gonum simple.WeightedUndirectedGraph and remembers the
// order in which nodes were added. The first and last surviving nodes in
// that order are the default source and destination of every trial.
package graph

import (
	"errors"
	"fmt"
	"math"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrDuplicateNode indicates a node ID that was already added.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrUnknownNode indicates an edge endpoint that is not in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop indicates an edge whose endpoints are the same node.
	ErrSelfLoop = errors.New("self loop")

	// ErrInvalidWeight indicates a negative or non-finite edge weight.
	ErrInvalidWeight = errors.New("invalid edge weight")

	// ErrEmptyGraph indicates a graph without nodes.
	ErrEmptyGraph = errors.New("graph has no nodes")
)

// -----------------------------------------------------------------------------
// Nodes
// -----------------------------------------------------------------------------

// Node is a graph node with a position in the plane.
type Node struct {
	id   int64
	X, Y float64
}

// NewNode creates a positioned node.
func NewNode(id int64, x, y float64) Node {
	return Node{id: id, X: x, Y: y}
}

// ID implements gonum's graph.Node.
func (n Node) ID() int64 {
	return n.id
}

// Distance returns the Euclidean distance between n and o.
func (n Node) Distance(o Node) float64 {
	return math.Hypot(n.X-o.X, n.Y-o.Y)
}

// -----------------------------------------------------------------------------
// Graph
// -----------------------------------------------------------------------------

// Graph is an undirected, weighted graph of positioned nodes.
//
// Thread Safety: Not safe for concurrent mutation. Searches may run
// concurrently on a graph that is no longer being modified.
type Graph struct {
	g     *simple.WeightedUndirectedGraph
	order []int64
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{g: simple.NewWeightedUndirectedGraph(0, math.Inf(1))}
}

// AddNode adds a positioned node.
func (g *Graph) AddNode(id int64, x, y float64) error {
	if g.g.Node(id) != nil {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, id)
	}
	g.g.AddNode(NewNode(id, x, y))
	g.order = append(g.order, id)
	return nil
}

// AddEdge adds or replaces the edge between a and b.
//
// Inputs:
//   - a, b: IDs of nodes already in the graph.
//   - weight: A finite, non-negative weight.
//
// Outputs:
//   - error: ErrUnknownNode, ErrSelfLoop or ErrInvalidWeight.
func (g *Graph) AddEdge(a, b int64, weight float64) error {
	if a == b {
		return fmt.Errorf("%w: %d", ErrSelfLoop, a)
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: %d-%d: %v", ErrInvalidWeight, a, b, weight)
	}
	from, to := g.g.Node(a), g.g.Node(b)
	if from == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, a)
	}
	if to == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, b)
	}
	g.g.SetWeightedEdge(simple.WeightedEdge{F: from, T: to, W: weight})
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id int64) (Node, bool) {
	n := g.g.Node(id)
	if n == nil {
		return Node{}, false
	}
	return n.(Node), true
}

// Nodes returns the surviving nodes in insertion order.
func (g *Graph) Nodes() []Node {
	g.compact()
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.g.Node(id).(Node))
	}
	return out
}

// First returns the first surviving node in insertion order.
func (g *Graph) First() (Node, bool) {
	for _, id := range g.order {
		if n, ok := g.Node(id); ok {
			return n, true
		}
	}
	return Node{}, false
}

// Last returns the last surviving node in insertion order.
func (g *Graph) Last() (Node, bool) {
	for i := len(g.order) - 1; i >= 0; i-- {
		if n, ok := g.Node(g.order[i]); ok {
			return n, true
		}
	}
	return Node{}, false
}

// Endpoints returns the default source and destination of a trial.
func (g *Graph) Endpoints() (source, destination Node, err error) {
	source, ok := g.First()
	if !ok {
		return Node{}, Node{}, ErrEmptyGraph
	}
	destination, _ = g.Last()
	return source, destination, nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return g.g.Nodes().Len()
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return g.g.Edges().Len()
}

// Neighbors returns the nodes adjacent to id.
func (g *Graph) Neighbors(id int64) []Node {
	it := g.g.From(id)
	out := make([]Node, 0, it.Len())
	for it.Next() {
		out = append(out, it.Node().(Node))
	}
	return out
}

// Degree returns the number of edges incident to id.
func (g *Graph) Degree(id int64) int {
	return g.g.From(id).Len()
}

// Weight returns the weight of the edge between a and b.
func (g *Graph) Weight(a, b int64) (float64, bool) {
	if !g.g.HasEdgeBetween(a, b) {
		return 0, false
	}
	return g.g.Weight(a, b)
}

// RemoveNode deletes a node and its edges. Unknown IDs are ignored.
func (g *Graph) RemoveNode(id int64) {
	g.g.RemoveNode(id)
}

// Clone returns a deep copy that can be mutated independently.
func (g *Graph) Clone() *Graph {
	g.compact()
	dst := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	gonum.CopyWeighted(dst, g.g)
	order := make([]int64, len(g.order))
	copy(order, g.order)
	return &Graph{g: dst, order: order}
}

// Gonum exposes the underlying gonum graph for read-only algorithms.
func (g *Graph) Gonum() gonum.WeightedUndirected {
	return g.g
}

// compact drops removed IDs from the insertion order.
func (g *Graph) compact() {
	if len(g.order) == g.g.Nodes().Len() {
		return
	}
	kept := g.order[:0]
	for _, id := range g.order {
		if g.g.Node(id) != nil {
			kept = append(kept, id)
		}
	}
	g.order = kept
}
