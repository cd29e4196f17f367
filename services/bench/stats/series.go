// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stats provides the numeric primitives behind benchmark aggregation:
// an always-sorted series for O(1) median lookup, plus generic mean and
// midpoint helpers.
//
// # Integer Semantics
//
// All helpers are generic over Number. Integer series average with integer
// division, so the median of [1, 2] as ints is 1 while the median of
// [1.0, 2.0] as floats is 1.5. Callers pick the element type to pick the
// arithmetic.
//
// # Thread Safety
//
// SortedSeries is NOT safe for concurrent use. Owners guard it with their
// own lock (see results.SizeNode).
package stats

import (
	"slices"
)

// Number is the set of element types a series can hold.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// SortedSeries is a growing numeric series kept in ascending order.
//
// Description:
//
//	Every Insert places the value at its sorted position using binary
//	search, so the series is sorted after every call and the median is a
//	positional lookup. Equal values are inserted adjacent to the existing
//	run of equal values.
//
// Invariants:
//   - values is sorted ascending after every Insert.
//   - Len() equals the number of Insert calls since the last Reset.
//
// Thread Safety: NOT safe for concurrent use.
type SortedSeries[T Number] struct {
	values []T
}

// NewSortedSeries creates an empty series with room for capacity values.
func NewSortedSeries[T Number](capacity int) *SortedSeries[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &SortedSeries[T]{values: make([]T, 0, capacity)}
}

// Insert adds v at its sorted position.
//
// Description:
//
//	O(log n) search plus O(n) shift. NaN values are not supported and
//	must be filtered by the caller.
func (s *SortedSeries[T]) Insert(v T) {
	i, _ := slices.BinarySearch(s.values, v)
	s.values = slices.Insert(s.values, i, v)
}

// Len returns the number of values in the series.
func (s *SortedSeries[T]) Len() int {
	return len(s.values)
}

// Values returns a copy of the sorted values.
func (s *SortedSeries[T]) Values() []T {
	return slices.Clone(s.values)
}

// Reset empties the series, keeping its capacity.
func (s *SortedSeries[T]) Reset() {
	s.values = s.values[:0]
}

// Median returns the middle value of the series.
//
// Outputs:
//   - T: The middle element for an odd count, the Midpoint of the two middle
//     elements for an even count, zero for an empty series.
func (s *SortedSeries[T]) Median() T {
	return MedianOfSorted(s.values)
}

// Mean returns the arithmetic mean of the series, zero when empty.
func (s *SortedSeries[T]) Mean() T {
	return Mean(s.values)
}

// MedianOfSorted returns the median of an already sorted slice.
//
// Assumptions:
//   - sorted is in ascending order. The result is meaningless otherwise.
func MedianOfSorted[T Number](sorted []T) T {
	n := len(sorted)
	switch {
	case n == 0:
		var zero T
		return zero
	case n%2 == 1:
		return sorted[n/2]
	default:
		return Midpoint(sorted[n/2-1], sorted[n/2])
	}
}

// Midpoint returns (a + b) / 2 in T's arithmetic.
func Midpoint[T Number](a, b T) T {
	return (a + b) / 2
}

// Mean returns sum(values) / len(values) in T's arithmetic, zero when empty.
func Mean[T Number](values []T) T {
	if len(values) == 0 {
		var zero T
		return zero
	}
	var sum T
	for _, v := range values {
		sum += v
	}
	return sum / T(len(values))
}
