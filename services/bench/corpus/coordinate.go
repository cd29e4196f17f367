// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package corpus enumerates the on-disk graph corpus of a benchmarking run.
//
// # Layout
//
// A corpus root holds one directory per structural parameter value, each
// holding one directory per graph size, each holding one file per repeat:
//
//	corpus/
//	  0.5/
//	    10/
//	      0.graph
//	      1.graph.gz
//	    100/
//	      0.graph
//	  0.75/
//	    ...
//
// Every path segment is parsed into a Coordinate. A segment that does not
// parse becomes zero for its axis; the scan carries on.
//
// # Ordering
//
// Parameter directories are visited in directory-listing order, size
// directories in ascending numeric order ("1", "2", "10"), and repeat files
// in directory-listing order.
package corpus

import (
	"math"
	"strconv"
	"strings"
)

// Coordinate identifies one graph instance in the corpus.
type Coordinate struct {
	// StructuralParameter is the real-valued property of the graph, e.g. openness.
	StructuralParameter float64 `json:"structural_parameter" yaml:"structural_parameter"`

	// Size is the node count the graph was generated with.
	Size int `json:"size" yaml:"size"`

	// Repeat distinguishes independently generated instances of one size.
	Repeat int `json:"repeat" yaml:"repeat"`
}

// ParseCoordinate derives a Coordinate from the three path segments of a
// repeat file.
//
// Description:
//
//	The parameter is parsed as a float, the size and repeat as integers.
//	Every extension is stripped from the file name first, so "3.graph.gz"
//	is repeat 3. Non-finite parameter values count as parse failures.
//
// Inputs:
//   - paramDir: Name of the structural parameter directory.
//   - sizeDir: Name of the size directory.
//   - file: Name of the repeat file.
//
// Outputs:
//   - Coordinate: The parsed coordinate. Failed segments are zero.
func ParseCoordinate(paramDir, sizeDir, file string) Coordinate {
	return Coordinate{
		StructuralParameter: parseParam(paramDir),
		Size:                parseInt(sizeDir),
		Repeat:              parseInt(stripExtensions(file)),
	}
}

func parseParam(name string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(name), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseInt(name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil {
		return 0
	}
	return v
}

func stripExtensions(name string) string {
	base, _, _ := strings.Cut(name, ".")
	return base
}
