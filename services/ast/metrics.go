// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for document inspection.
var (
	tracer = otel.Tracer("forge.ast")
	meter  = otel.Meter("forge.ast")
)

// Metrics for inspection operations.
var (
	inspectLatency     metric.Float64Histogram
	inspectTotal       metric.Int64Counter
	callablesExtracted metric.Int64Histogram
	inspectFailures    metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		inspectLatency, err = meter.Float64Histogram(
			"ast_inspect_duration_seconds",
			metric.WithDescription("Duration of document inspection operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		inspectTotal, err = meter.Int64Counter(
			"ast_inspect_total",
			metric.WithDescription("Total number of inspection operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		callablesExtracted, err = meter.Int64Histogram(
			"ast_callables_extracted",
			metric.WithDescription("Number of callables extracted per inventory pass"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		inspectFailures, err = meter.Int64Counter(
			"ast_inspect_failures_total",
			metric.WithDescription("Total number of inspections degraded to empty results"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordInspectMetrics records metrics for one inspection pass.
//
// Parameters:
//   - ctx: Context for metric recording
//   - language: Language being inspected (e.g., "python")
//   - op: Operation name ("inventory" or "references")
//   - duration: How long the inspection took
//   - resultCount: Number of callables or references extracted
//   - degraded: Whether the pass degraded to an empty result
func recordInspectMetrics(ctx context.Context, language, op string, duration time.Duration, resultCount int, degraded bool) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}

	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("operation", op),
	)

	inspectLatency.Record(ctx, duration.Seconds(), attrs)
	inspectTotal.Add(ctx, 1, attrs)

	if degraded {
		inspectFailures.Add(ctx, 1, attrs)
		return
	}
	if op == "inventory" {
		callablesExtracted.Record(ctx, int64(resultCount),
			metric.WithAttributes(attribute.String("language", language)),
		)
	}
}

// startInspectSpan creates a span for an inspection pass.
func startInspectSpan(ctx context.Context, language, op string, contentSize int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ast."+op,
		trace.WithAttributes(
			attribute.String("language", language),
			attribute.Int("content_bytes", contentSize),
		),
	)
}

// setInspectSpanResult records the result size on a span.
func setInspectSpanResult(span trace.Span, resultCount int, degraded bool) {
	span.SetAttributes(
		attribute.Int("result_count", resultCount),
		attribute.Bool("degraded", degraded),
	)
}
