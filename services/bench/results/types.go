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
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrUnknownFailurePolicy indicates a failure policy name that is not recognised.
	ErrUnknownFailurePolicy = errors.New("unknown failure policy")

	// ErrForeignRepeat indicates a RepeatNode recorded into a SizeNode that does not own it.
	ErrForeignRepeat = errors.New("repeat node does not belong to this size node")
)

// -----------------------------------------------------------------------------
// Raw measurements
// -----------------------------------------------------------------------------

// FailedSearchTime is the sentinel SearchTime of a search that found no path.
const FailedSearchTime = -1.0

// RawTrial is the measurement of one timed search execution.
//
// Description:
//
//	SearchTime is in seconds, or FailedSearchTime when no path was found.
//	ExploredNodes and ExploredRatio are recorded for failed searches too.
type RawTrial struct {
	SearchTime    float64 `json:"search_time" yaml:"search_time"`
	ExploredNodes int     `json:"explored_nodes" yaml:"explored_nodes"`
	ExploredRatio float64 `json:"explored_ratio" yaml:"explored_ratio"`

	// TimedOut is set when the trial was abandoned at its deadline. The
	// search never returned, so ExploredNodes and ExploredRatio are unknown
	// and recorded as 0.
	TimedOut bool `json:"timed_out,omitempty" yaml:"timed_out,omitempty"`
}

// Failed reports whether the trial carries the failure sentinel.
func (t RawTrial) Failed() bool {
	return t.SearchTime == FailedSearchTime
}

// PreprocessingTiming is the duration, in seconds, of one preprocessing pass.
type PreprocessingTiming struct {
	Duration float64 `json:"duration" yaml:"duration"`
}

// -----------------------------------------------------------------------------
// Aggregates
// -----------------------------------------------------------------------------

// SearchMetrics holds one value per RawTrial quantity.
type SearchMetrics struct {
	SearchTime    float64 `json:"search_time" yaml:"search_time"`
	ExploredNodes int     `json:"explored_nodes" yaml:"explored_nodes"`
	ExploredRatio float64 `json:"explored_ratio" yaml:"explored_ratio"`
}

// AverageSearchResult is the mean and median of every trial beneath a size.
type AverageSearchResult struct {
	Mean   SearchMetrics `json:"mean" yaml:"mean"`
	Median SearchMetrics `json:"median" yaml:"median"`

	// Count is the number of trials that went into the aggregate.
	Count int `json:"count" yaml:"count"`
}

// AveragePreprocessingTime is the mean and median of one timing per repeat.
type AveragePreprocessingTime struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
}

// -----------------------------------------------------------------------------
// Keys and policy
// -----------------------------------------------------------------------------

// VariantKey identifies one (preprocessing, search) combination.
type VariantKey struct {
	Preprocessing string `json:"preprocessing" yaml:"preprocessing"`
	Search        string `json:"search" yaml:"search"`
}

// String returns "preprocessing/search".
func (k VariantKey) String() string {
	return k.Preprocessing + "/" + k.Search
}

// FailurePolicy decides whether failed searches enter search aggregates.
//
// Description:
//
//	FailuresIncluded is the default arithmetic, where the -1
//	sentinel is averaged like any other time. FailuresExcluded leaves failed
//	trials out of every search aggregate; they remain in the raw trial lists.
//	Preprocessing aggregates are unaffected by the policy.
type FailurePolicy int

const (
	// FailuresIncluded averages failed trials, sentinel and all.
	FailuresIncluded FailurePolicy = iota

	// FailuresExcluded drops failed trials from search aggregates.
	FailuresExcluded
)

// String returns the configuration name of the policy.
func (p FailurePolicy) String() string {
	switch p {
	case FailuresIncluded:
		return "include"
	case FailuresExcluded:
		return "exclude"
	default:
		return "unknown"
	}
}

// ParseFailurePolicy converts a configuration name into a FailurePolicy.
//
// Inputs:
//   - s: "include" or "exclude", case-insensitive. Empty selects "include".
//
// Outputs:
//   - FailurePolicy: The parsed policy.
//   - error: ErrUnknownFailurePolicy for any other value.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "include":
		return FailuresIncluded, nil
	case "exclude":
		return FailuresExcluded, nil
	default:
		return FailuresIncluded, fmt.Errorf("%w: %q", ErrUnknownFailurePolicy, s)
	}
}

// counts reports whether a trial enters the search aggregates under p.
func (p FailurePolicy) counts(t RawTrial) bool {
	return p != FailuresExcluded || !t.Failed()
}

// Axes names the two configurable benchmark axes for reporting.
type Axes struct {
	// StructuralParameter labels the graph property axis, e.g. "complexity" or "openness".
	StructuralParameter string `json:"structural_parameter" yaml:"structural_parameter"`

	// Preprocessing labels the preprocessing axis, e.g. "pruning" or "optimization".
	Preprocessing string `json:"preprocessing" yaml:"preprocessing"`
}

// DefaultAxes returns the neutral axis names.
func DefaultAxes() Axes {
	return Axes{
		StructuralParameter: "structural parameter",
		Preprocessing:       "preprocessing",
	}
}
