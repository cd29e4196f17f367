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
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span and metric attribute keys shared by the benchmark packages.
const (
	AttrCorpus        = attribute.Key("bench.corpus")
	AttrPreprocessing = attribute.Key("bench.preprocessing")
	AttrSearch        = attribute.Key("bench.search")
	AttrRepeat        = attribute.Key("bench.repeat")
	AttrWorkers       = attribute.Key("bench.workers")
	AttrStatus        = attribute.Key("bench.status")
	AttrParam         = attribute.Key("bench.structural_parameter")
	AttrSize          = attribute.Key("bench.size")
	AttrInstance      = attribute.Key("bench.repeat_index")
	AttrNodes         = attribute.Key("graph.nodes")
	AttrNodesAfter    = attribute.Key("graph.nodes_after_preprocessing")
	AttrFailedTrials  = attribute.Key("bench.failed_trials")
)

// StartSpan starts a span named spanName on the global tracer tracerName.
//
// Thread Safety: Safe for concurrent use.
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// End records err on span, sets the matching status and ends the span.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Variant returns the attributes identifying one variant pair.
func Variant(preprocessing, search string) []attribute.KeyValue {
	return []attribute.KeyValue{AttrPreprocessing.String(preprocessing), AttrSearch.String(search)}
}

// Instance returns the attributes identifying one graph instance.
func Instance(param float64, size, repeat int) []attribute.KeyValue {
	return []attribute.KeyValue{AttrParam.Float64(param), AttrSize.Int(size), AttrInstance.Int(repeat)}
}

// LoggerWithTrace returns logger annotated with the trace and span IDs of
// ctx. Without a valid span the logger is returned unchanged.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
