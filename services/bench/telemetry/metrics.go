// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the OTel instruments of a benchmark run.
//
// Description:
//
//	Complements the Prometheus collectors registered by the trial runner:
//	these instruments follow the configured meter provider, so they reach
//	stdout or Prometheus depending on Config.MetricExporter.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// RunsTotal counts benchmark runs by status.
	RunsTotal metric.Int64Counter

	// InstancesTotal counts graph instances processed.
	InstancesTotal metric.Int64Counter

	// GraphLoadDuration records graph load duration in seconds.
	GraphLoadDuration metric.Float64Histogram

	// GraphNodes records the node count of loaded graphs.
	GraphNodes metric.Int64Histogram
}

// NewMetrics registers every instrument with meter.
//
// Example:
//
//	metrics, err := telemetry.NewMetrics(otel.Meter("bench.orchestrator"))
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.RunsTotal, err = meter.Int64Counter(
		"pathbench_runs_total",
		metric.WithDescription("Total benchmark runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs_total: %w", err)
	}

	m.InstancesTotal, err = meter.Int64Counter(
		"pathbench_instances_total",
		metric.WithDescription("Total graph instances processed"),
		metric.WithUnit("{instance}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create instances_total: %w", err)
	}

	m.GraphLoadDuration, err = meter.Float64Histogram(
		"pathbench_graph_load_duration_seconds",
		metric.WithDescription("Graph load duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("create graph_load_duration: %w", err)
	}

	m.GraphNodes, err = meter.Int64Histogram(
		"pathbench_graph_nodes",
		metric.WithDescription("Node count of loaded graphs"),
		metric.WithUnit("{node}"),
		metric.WithExplicitBucketBoundaries(10, 100, 1000, 10000, 100000, 1000000),
	)
	if err != nil {
		return nil, fmt.Errorf("create graph_nodes: %w", err)
	}

	return m, nil
}
