// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of trialsTotal.
const (
	outcomeFound    = "found"
	outcomeNotFound = "not_found"
	outcomeTimeout  = "timeout"
)

var (
	// trialsTotal counts trials by search variant and outcome.
	trialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathbench_trials_total",
		Help: "Total search trials by variant and outcome",
	}, []string{"search", "outcome"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pathbench_search_duration_seconds",
		Help:    "Search duration of found paths",
		Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1, 1, 10},
	}, []string{"search"})

	preprocessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pathbench_preprocessing_duration_seconds",
		Help:    "Preprocessing duration per graph instance",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1, 10},
	}, []string{"preprocessing"})
)
