// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package preflight

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for the Preflight service.
var (
	tracer = otel.Tracer("aleutian.preflight")
	meter  = otel.Meter("aleutian.preflight")
)

// Metrics for validation operations.
var (
	validateLatency metric.Float64Histogram
	validateTotal   metric.Int64Counter
	newErrorsCount  metric.Int64Histogram
	editsFailed     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		validateLatency, err = meter.Float64Histogram(
			"preflight_validate_duration_seconds",
			metric.WithDescription("Duration of validation requests"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		validateTotal, err = meter.Int64Counter(
			"preflight_validate_total",
			metric.WithDescription("Total number of validation requests"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		newErrorsCount, err = meter.Int64Histogram(
			"preflight_new_errors",
			metric.WithDescription("New diagnostics introduced per validation"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		editsFailed, err = meter.Int64Counter(
			"preflight_edits_failed_total",
			metric.WithDescription("Total edits that failed to apply"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordValidation records metrics for one completed validation.
func recordValidation(ctx context.Context, result *ValidationResult, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}

	attrs := metric.WithAttributes(attribute.Bool("safe", result.Safe))

	validateLatency.Record(ctx, duration.Seconds(), attrs)
	validateTotal.Add(ctx, 1, attrs)
	newErrorsCount.Record(ctx, int64(len(result.NewErrors)))

	for _, er := range result.EditResults {
		if !er.Applied {
			editsFailed.Add(ctx, 1)
		}
	}
}
