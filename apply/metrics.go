// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package apply

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for elementwise application.
var meter = otel.Meter("treefn.apply")

// Metrics for apply invocations.
var (
	applyLatency   metric.Float64Histogram
	applyTotal     metric.Int64Counter
	nodesEvaluated metric.Int64Histogram
	mismatchTotal  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		applyLatency, err = meter.Float64Histogram(
			"apply_duration_seconds",
			metric.WithDescription("Duration of elementwise apply invocations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		applyTotal, err = meter.Int64Counter(
			"apply_total",
			metric.WithDescription("Total number of apply invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesEvaluated, err = meter.Int64Histogram(
			"apply_nodes_evaluated",
			metric.WithDescription("Number of node positions evaluated per invocation"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		mismatchTotal, err = meter.Int64Counter(
			"apply_structural_mismatch_total",
			metric.WithDescription("Total number of structural synchronization failures"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordApply records latency, invocation count, and node throughput.
func recordApply(ctx context.Context, d time.Duration, nodes int, status string) {
	if applyLatency == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	applyLatency.Record(ctx, d.Seconds(), attrs)
	applyTotal.Add(ctx, 1, attrs)
	nodesEvaluated.Record(ctx, int64(nodes), attrs)
}

// recordMismatch counts a structural synchronization failure.
func recordMismatch(ctx context.Context) {
	if mismatchTotal == nil {
		return
	}
	mismatchTotal.Add(ctx, 1)
}
