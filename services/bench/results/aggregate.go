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
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/AleutianAI/pathbench/services/bench/stats"
)

func newSizeNode(size int, policy FailurePolicy) *SizeNode {
	return &SizeNode{
		size:           size,
		policy:         policy,
		repeats:        orderedmap.New[int, *RepeatNode](),
		searchTimes:    stats.NewSortedSeries[float64](0),
		exploredNodes:  stats.NewSortedSeries[int](0),
		exploredRatios: stats.NewSortedSeries[float64](0),
	}
}

// Record stores the outcome of one trial run and refreshes the aggregates.
//
// Description:
//
//	Appends every trial to the repeat, inserts their numeric fields into
//	the size-level sorted series, stores the preprocessing timing and then
//	recomputes this SizeNode's aggregates. No other node is touched.
//
// Inputs:
//   - rep: A RepeatNode owned by s, as returned by TestResult.GetOrCreate.
//   - trials: Trials in execution order.
//   - timing: Preprocessing timing of the instance.
//
// Outputs:
//   - error: ErrForeignRepeat if rep belongs to another SizeNode.
//
// Thread Safety: Safe for concurrent use.
func (s *SizeNode) Record(rep *RepeatNode, trials []RawTrial, timing PreprocessingTiming) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rep == nil || rep.owner != s {
		return fmt.Errorf("%w: size %d", ErrForeignRepeat, s.size)
	}
	for _, t := range trials {
		s.recordTrialLocked(rep, t)
	}
	rep.preprocessing = timing
	rep.hasTiming = true
	s.recomputeLocked()
	return nil
}

// RecordTrial appends one trial to rep without recomputing aggregates.
//
// Description:
//
//	Lower-level building block of Record. Callers batching many trials
//	call Recompute once afterwards.
//
// Thread Safety: Safe for concurrent use.
func (s *SizeNode) RecordTrial(rep *RepeatNode, t RawTrial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rep == nil || rep.owner != s {
		return fmt.Errorf("%w: size %d", ErrForeignRepeat, s.size)
	}
	s.recordTrialLocked(rep, t)
	return nil
}

func (s *SizeNode) recordTrialLocked(rep *RepeatNode, t RawTrial) {
	rep.trials = append(rep.trials, t)
	if !s.policy.counts(t) {
		return
	}
	s.searchTimes.Insert(t.SearchTime)
	s.exploredNodes.Insert(t.ExploredNodes)
	s.exploredRatios.Insert(t.ExploredRatio)
}

// Recompute rebuilds the cached aggregates of s from the data beneath it.
//
// Thread Safety: Safe for concurrent use.
func (s *SizeNode) Recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

// recomputeLocked derives both aggregates from scratch.
//
// Means are summed over the raw trials of every repeat; medians are read
// from the sorted series, which hold exactly the trials the policy counts.
// Preprocessing statistics use one timing per repeat, not per trial.
func (s *SizeNode) recomputeLocked() {
	var (
		timeSum  float64
		nodeSum  int
		ratioSum float64
		count    int
	)
	timings := stats.NewSortedSeries[float64](s.repeats.Len())
	var timingSum float64

	for pair := s.repeats.Oldest(); pair != nil; pair = pair.Next() {
		rep := pair.Value
		if rep.hasTiming {
			timings.Insert(rep.preprocessing.Duration)
			timingSum += rep.preprocessing.Duration
		}
		for _, t := range rep.trials {
			if !s.policy.counts(t) {
				continue
			}
			timeSum += t.SearchTime
			nodeSum += t.ExploredNodes
			ratioSum += t.ExploredRatio
			count++
		}
	}

	avg := AverageSearchResult{Count: count}
	if count > 0 {
		avg.Mean = SearchMetrics{
			SearchTime:    timeSum / float64(count),
			ExploredNodes: nodeSum / count,
			ExploredRatio: ratioSum / float64(count),
		}
		avg.Median = SearchMetrics{
			SearchTime:    s.searchTimes.Median(),
			ExploredNodes: s.exploredNodes.Median(),
			ExploredRatio: s.exploredRatios.Median(),
		}
	}
	s.averageSearch = avg

	var pre AveragePreprocessingTime
	if n := timings.Len(); n > 0 {
		pre.Mean = timingSum / float64(n)
		pre.Median = timings.Median()
	}
	s.averagePreprocessing = pre
}

// AverageSearch returns the cached search aggregate.
func (s *SizeNode) AverageSearch() AverageSearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.averageSearch
}

// AveragePreprocessing returns the cached preprocessing aggregate.
func (s *SizeNode) AveragePreprocessing() AveragePreprocessingTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.averagePreprocessing
}

// Repeats returns the repeats of s in creation order.
func (s *SizeNode) Repeats() []*RepeatNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.repeats)
}

// SearchTimeSeries returns a copy of the sorted search-time series.
func (s *SizeNode) SearchTimeSeries() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchTimes.Values()
}
