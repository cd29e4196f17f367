// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package results

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/AleutianAI/pathbench/services/bench/stats"
)

// ==============================================================================
// Tree Nodes
// ==============================================================================

// TestResult is the root of the result tree of one benchmarking run.
//
// Description:
//
//	TestResult owns one VariantNode per (preprocessing, search) pair. The
//	top level is created eagerly by NewTestResult; every level below is
//	created lazily by GetOrCreate. All levels iterate in insertion order.
//
//	    TestResult
//	      └─ VariantNode      (preprocessing, search)
//	           └─ ParamNode   structural parameter
//	                └─ SizeNode    size, aggregates, sorted series
//	                     └─ RepeatNode  repeat, raw trials, preprocessing timing
//
// Invariants:
//   - Exactly one node exists per key path at every level.
//   - Lookups that miss create and return; they never fail.
//
// Thread Safety: Safe for concurrent use. mu guards the variant, parameter and
// size maps; each SizeNode guards its own repeats and aggregates.
type TestResult struct {
	mu       sync.Mutex
	policy   FailurePolicy
	axes     Axes
	variants *orderedmap.OrderedMap[VariantKey, *VariantNode]
}

// VariantNode holds results for one (preprocessing, search) pair.
type VariantNode struct {
	key    VariantKey
	params *orderedmap.OrderedMap[float64, *ParamNode]
}

// ParamNode holds results for one structural parameter value.
type ParamNode struct {
	value float64
	sizes *orderedmap.OrderedMap[int, *SizeNode]
}

// SizeNode holds every repeat of one graph size plus its cached aggregates.
//
// Description:
//
//	Besides its repeats, a SizeNode owns three sorted series (search time,
//	explored nodes, explored ratio) fed by every recorded trial, and the
//	aggregates derived from them. Aggregates are recomputed whenever a
//	repeat beneath the node is updated.
//
// Thread Safety: Safe for concurrent use via mu.
type SizeNode struct {
	mu      sync.Mutex
	size    int
	policy  FailurePolicy
	repeats *orderedmap.OrderedMap[int, *RepeatNode]

	searchTimes    *stats.SortedSeries[float64]
	exploredNodes  *stats.SortedSeries[int]
	exploredRatios *stats.SortedSeries[float64]

	averageSearch        AverageSearchResult
	averagePreprocessing AveragePreprocessingTime
}

// RepeatNode holds the raw trials of one graph instance.
//
// Thread Safety: Fields are guarded by the owning SizeNode's mutex.
type RepeatNode struct {
	repeat        int
	owner         *SizeNode
	trials        []RawTrial
	preprocessing PreprocessingTiming
	hasTiming     bool
}

// ==============================================================================
// Construction and Lookup
// ==============================================================================

// NewTestResult creates a result tree with one empty VariantNode per pair.
//
// Description:
//
//	Variants are created in preprocessing-major order: for preprocessing
//	["none", "jumps"] and search ["astar", "bfs"] the order is none/astar,
//	none/bfs, jumps/astar, jumps/bfs.
//
// Inputs:
//   - preprocessing: Preprocessing variant names.
//   - search: Search variant names.
//   - policy: Failure policy applied by every SizeNode in the tree.
//   - axes: Axis labels carried into snapshots.
//
// Outputs:
//   - *TestResult: The new tree. Never nil.
func NewTestResult(preprocessing, search []string, policy FailurePolicy, axes Axes) *TestResult {
	r := &TestResult{
		policy:   policy,
		axes:     axes,
		variants: orderedmap.New[VariantKey, *VariantNode](),
	}
	for _, p := range preprocessing {
		for _, s := range search {
			r.variantLocked(VariantKey{Preprocessing: p, Search: s})
		}
	}
	return r
}

// getOrCreate returns m[key], creating it with create on a miss.
//
// This is the single place where tree nodes come into existence.
func getOrCreate[K comparable, V any](m *orderedmap.OrderedMap[K, V], key K, create func() V) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	v := create()
	m.Set(key, v)
	return v
}

func (r *TestResult) variantLocked(key VariantKey) *VariantNode {
	return getOrCreate(r.variants, key, func() *VariantNode {
		return &VariantNode{key: key, params: orderedmap.New[float64, *ParamNode]()}
	})
}

// GetOrCreate returns the RepeatNode at the given key path.
//
// Description:
//
//	Walks variant → structural parameter → size → repeat, creating every
//	missing node on the way. Calling it twice with the same path returns
//	the identical *RepeatNode.
//
// Inputs:
//   - key: The variant pair. Created if it was not pre-created.
//   - param: Structural parameter value.
//   - size: Graph size.
//   - repeat: Repeat index.
//
// Outputs:
//   - *RepeatNode: The node at the path. Never nil.
//
// Thread Safety: Safe for concurrent use.
func (r *TestResult) GetOrCreate(key VariantKey, param float64, size, repeat int) *RepeatNode {
	r.mu.Lock()
	v := r.variantLocked(key)
	p := getOrCreate(v.params, param, func() *ParamNode {
		return &ParamNode{value: param, sizes: orderedmap.New[int, *SizeNode]()}
	})
	s := getOrCreate(p.sizes, size, func() *SizeNode {
		return newSizeNode(size, r.policy)
	})
	r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return getOrCreate(s.repeats, repeat, func() *RepeatNode {
		return &RepeatNode{repeat: repeat, owner: s}
	})
}

// Variant returns the VariantNode for key, if present.
func (r *TestResult) Variant(key VariantKey) (*VariantNode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.variants.Get(key)
}

// Variants returns every VariantNode in creation order.
func (r *TestResult) Variants() []*VariantNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return values(r.variants)
}

// Policy returns the failure policy of the tree.
func (r *TestResult) Policy() FailurePolicy {
	return r.policy
}

// Axes returns the axis labels of the tree.
func (r *TestResult) Axes() Axes {
	return r.axes
}

// TrialCount returns the number of raw trials stored in the whole tree.
func (r *TestResult) TrialCount() int {
	total := 0
	for _, v := range r.Variants() {
		for _, p := range r.params(v) {
			for _, s := range r.sizes(p) {
				for _, rep := range s.Repeats() {
					total += len(rep.Trials())
				}
			}
		}
	}
	return total
}

func (r *TestResult) params(v *VariantNode) []*ParamNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return values(v.params)
}

func (r *TestResult) sizes(p *ParamNode) []*SizeNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return values(p.sizes)
}

// Key returns the variant pair of the node.
func (v *VariantNode) Key() VariantKey {
	return v.key
}

// Value returns the structural parameter of the node.
func (p *ParamNode) Value() float64 {
	return p.value
}

// Size returns the graph size of the node.
func (s *SizeNode) Size() int {
	return s.size
}

// Index returns the repeat index of the node.
func (rep *RepeatNode) Index() int {
	return rep.repeat
}

// SizeNode returns the SizeNode owning the repeat.
func (rep *RepeatNode) SizeNode() *SizeNode {
	return rep.owner
}

// Trials returns a copy of the repeat's trials in recording order.
func (rep *RepeatNode) Trials() []RawTrial {
	rep.owner.mu.Lock()
	defer rep.owner.mu.Unlock()
	out := make([]RawTrial, len(rep.trials))
	copy(out, rep.trials)
	return out
}

// Preprocessing returns the preprocessing timing of the repeat.
func (rep *RepeatNode) Preprocessing() PreprocessingTiming {
	rep.owner.mu.Lock()
	defer rep.owner.mu.Unlock()
	return rep.preprocessing
}

// values flattens an ordered map into a slice in insertion order.
func values[K comparable, V any](m *orderedmap.OrderedMap[K, V]) []V {
	out := make([]V, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
