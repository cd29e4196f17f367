// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires OpenTelemetry traces and metrics into benchmark
// runs.
//
// Init installs the global providers for the configured exporters. Code in
// the bench packages opens spans with StartSpan, tags them with the Attr*
// keys and closes them with End. Spans describe the structure of a run
// (one per run, one per graph instance, one per variant pair); the timings
// reported in results come from the runner's own clock, never from spans.
//
// Exporters:
//
//	traces   otlp | stdout | none
//	metrics  prometheus | stdout | none
//
// The defaults read OTEL_TRACES_EXPORTER, OTEL_METRICS_EXPORTER,
// OTEL_EXPORTER_OTLP_ENDPOINT and PATHBENCH_ENV.
package telemetry
