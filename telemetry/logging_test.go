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
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestLoggerWithTrace_NilLogger(t *testing.T) {
	logger := LoggerWithTrace(context.Background(), nil)
	assert.NotNil(t, logger, "nil logger falls back to slog.Default()")
}

func TestLoggerWithTrace_NoSpanContext(t *testing.T) {
	base := slog.Default()
	logger := LoggerWithTrace(context.Background(), base)
	assert.Same(t, base, logger, "no valid span context returns the original logger")
}

func TestLoggerWithTrace_InjectsTraceFields(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0123456789abcdef")
	require.NoError(t, err)

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	LoggerWithTrace(ctx, base).Info("hello")

	out := buf.String()
	assert.Contains(t, out, "trace_id=0123456789abcdef0123456789abcdef")
	assert.Contains(t, out, "span_id=0123456789abcdef")
}

func TestLoggerWithRun_AddsRunID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	LoggerWithRun(context.Background(), base, "run-42").Info("hello")

	assert.Contains(t, buf.String(), "run_id=run-42")
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_NoExporters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_UnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "carrier-pigeon"

	_, err := Init(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnknownExporter)
}
