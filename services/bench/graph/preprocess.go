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

import "math"

// collinearTolerance bounds |sin| of the turn angle accepted as straight.
const collinearTolerance = 1e-9

// ContractFunc decides whether a degree-2 node may be bypassed by an edge
// joining its neighbours prev and next.
type ContractFunc func(prev, mid, next Node) bool

// Contract bypasses degree-2 nodes until none qualifies.
//
// Description:
//
//	A node qualifies when it has exactly two neighbours, is not in keep,
//	and accept returns true. It is removed and its neighbours are joined by
//	an edge carrying the summed weight of the two removed edges. If the
//	neighbours are already adjacent, the lighter of the two edges is kept.
//	Path lengths between surviving nodes are preserved.
//
//	Passes repeat until a fixed point, so applying Contract to its own
//	output removes nothing.
//
// Inputs:
//   - g: The graph to rewrite in place.
//   - keep: Node IDs that must survive, typically the trial endpoints.
//   - accept: Additional predicate. Nil accepts every degree-2 node.
//
// Outputs:
//   - int: Number of nodes removed.
func Contract(g *Graph, keep map[int64]bool, accept ContractFunc) int {
	removed := 0
	for {
		pass := 0
		for _, n := range g.Nodes() {
			if keep[n.ID()] || g.Degree(n.ID()) != 2 {
				continue
			}
			nb := g.Neighbors(n.ID())
			prev, next := nb[0], nb[1]
			if accept != nil && !accept(prev, n, next) {
				continue
			}
			w1, _ := g.Weight(prev.ID(), n.ID())
			w2, _ := g.Weight(n.ID(), next.ID())
			joined := w1 + w2
			if existing, ok := g.Weight(prev.ID(), next.ID()); ok {
				joined = math.Min(joined, existing)
			}
			g.RemoveNode(n.ID())
			// Both endpoints exist and differ, so AddEdge cannot fail.
			_ = g.AddEdge(prev.ID(), next.ID(), joined)
			pass++
		}
		if pass == 0 {
			return removed
		}
		removed += pass
	}
}

// Straight accepts nodes lying on the segment between their neighbours.
func Straight(prev, mid, next Node) bool {
	ax, ay := mid.X-prev.X, mid.Y-prev.Y
	bx, by := next.X-mid.X, next.Y-mid.Y
	la, lb := math.Hypot(ax, ay), math.Hypot(bx, by)
	if la == 0 || lb == 0 {
		return true
	}
	cross := ax*by - ay*bx
	dot := ax*bx + ay*by
	return math.Abs(cross) <= collinearTolerance*la*lb && dot > 0
}
