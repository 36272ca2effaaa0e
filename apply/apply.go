// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package apply provides elementwise function application over trees.
//
// Apply evaluates a function once per node position of a reference tree,
// threading in the positionally aligned value from every additional
// argument — further synchronized trees, or scalars broadcast to the
// reference topology — and reassembles the results into one new tree per
// requested output. The reference tree defines the topology of every
// output.
//
// # Purity Contract
//
// Per-node calls are logically independent: the supplied function must not
// depend on evaluation order across positions. The default implementation
// evaluates sequentially in the reference tree's canonical order; with
// WithParallel, positions may be evaluated concurrently while result
// assembly stays positional.
//
// # Lifecycle
//
// Input trees are read-only for the duration of an invocation; only freshly
// allocated result trees are written. The package holds no state across
// invocations.
package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/treefn/fn"
	"github.com/AleutianAI/treefn/telemetry"
	"github.com/AleutianAI/treefn/tree"
)

var tracer = otel.Tracer("treefn.apply")

// Apply evaluates fun elementwise across the reference tree and the extra
// arguments, producing one result tree per requested output.
//
// Description:
//
//	Validates the invocation (callable, resolvable, input arity, output
//	arity), reconciles the extra arguments into sequences aligned with the
//	reference tree's nodes (broadcasting scalars, sync-checking trees),
//	invokes the function once per node position, and wraps each output
//	slot's flat result sequence in a topology clone of the reference.
//
// Inputs:
//
//   - ctx: Context for cancellation. Must not be nil.
//   - ref: The reference tree; defines the topology of every output.
//   - extras: Additional arguments in user order: *tree.Tree values must
//     be synchronized with ref; anything else broadcasts. May be empty.
//   - fun: A *fn.Fn descriptor or any Go func value (adapted via fn.Of).
//   - numOut: Requested output count. 0 still computes and returns one
//     result tree.
//   - opts: Functional options (WithParallel, WithMaxWorkers, WithLogger).
//
// Outputs:
//
//   - []*tree.Tree: max(numOut, 1) result trees, one per output slot.
//   - error: A validation error (see errors.go) raised before any
//     node-level call, or the first failing position's error from the
//     function itself, unmodified.
//
// Example:
//
//	double := func(x float64) float64 { return 2 * x }
//	out, err := apply.Apply(ctx, t, nil, double, 1)
//	if err != nil {
//	    return err
//	}
//	// out[0] has t's topology with every value doubled
//
// Limitations:
//
//   - No partial results: validation failures abort before evaluation,
//     and a per-node error discards all accumulated output.
//
// Thread Safety: Safe for concurrent use (read-only on inputs).
func Apply(ctx context.Context, ref *tree.Tree, extras []any, fun any, numOut int, opts ...Option) ([]*tree.Tree, error) {
	options := applyOptions(opts)
	start := time.Now()

	if ref == nil {
		return nil, ErrNilReference
	}

	f, err := resolveFn(fun)
	if err != nil {
		return nil, err
	}

	// At least one usable result, mirroring the convention that
	// side-effecting functions still hand back their first output.
	requested := numOut
	if requested < 1 {
		requested = 1
	}

	if err := validateArity(f, len(extras), requested); err != nil {
		return nil, err
	}

	n := ref.NodeCount()
	ctx, span := tracer.Start(ctx, "apply.Apply",
		trace.WithAttributes(
			attribute.String("fn", f.Name),
			attribute.Int("node_count", n),
			attribute.Int("extra_args", len(extras)),
			attribute.Int("requested_outputs", requested),
			attribute.Bool("parallel", options.Parallel),
		),
	)
	defer span.End()

	logger := telemetry.LoggerWithTrace(ctx, options.Logger)

	if err := ctx.Err(); err != nil {
		span.AddEvent("context_cancelled_early")
		return nil, err
	}

	if err := initMetrics(); err != nil {
		// Metrics are best-effort; the invocation proceeds without them.
		logger.Warn("apply: metrics init failed", slog.String("error", err.Error()))
	}

	aligned, err := reconcile(ref, extras)
	if err != nil {
		telemetry.RecordError(span, err)
		recordMismatch(ctx)
		logger.Warn("apply: reconciliation failed", slog.String("error", err.Error()))
		return nil, err
	}
	span.AddEvent("reconcile_complete", trace.WithAttributes(
		attribute.Int("aligned_sequences", len(aligned)),
	))

	seqs := make([][]any, 0, len(aligned)+1)
	seqs = append(seqs, ref.Values())
	seqs = append(seqs, aligned...)

	flats, err := evaluate(ctx, seqs, f, requested, options)
	if err != nil {
		telemetry.RecordError(span, err)
		recordApply(ctx, time.Since(start), n, "error")
		return nil, err
	}
	span.AddEvent("evaluate_complete", trace.WithAttributes(
		attribute.Int("positions", n),
	))

	outs := make([]*tree.Tree, requested)
	for k := range outs {
		outs[k], err = ref.WithValues(flats[k])
		if err != nil {
			// Unreachable: flat sequences are allocated at node count.
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	telemetry.SetSpanOK(span)
	recordApply(ctx, time.Since(start), n, "ok")
	logger.Debug("apply: complete",
		slog.String("fn", f.Name),
		slog.Int("nodes", n),
		slog.Int("outputs", requested),
		slog.Duration("duration", time.Since(start)),
	)
	return outs, nil
}

// resolveFn normalizes the function argument into a resolvable descriptor.
//
// Accepts a ready descriptor or a raw Go func value; anything else is a
// NotCallableError naming the concrete type received.
func resolveFn(fun any) (*fn.Fn, error) {
	switch v := fun.(type) {
	case *fn.Fn:
		if !v.Resolvable() {
			return nil, &UnresolvedFunctionError{Name: fnName(v)}
		}
		return v, nil
	case nil:
		return nil, &NotCallableError{Type: "<nil>"}
	default:
		if !fn.IsCallable(fun) {
			return nil, &NotCallableError{Type: typeName(fun)}
		}
		f, err := fn.Of("", fun)
		if err != nil {
			// A func-typed value can still be nil: right kind, nothing
			// to invoke.
			if errors.Is(err, fn.ErrUnresolved) {
				return nil, &UnresolvedFunctionError{Name: typeName(fun)}
			}
			return nil, &NotCallableError{Type: typeName(fun)}
		}
		return f, nil
	}
}

// validateArity enforces the input and output arity invariants before any
// node-level call.
//
// The input bound applies only to fixed arities; variadic functions
// (negative sentinel) accept any argument count. The output check skips
// variable-output functions.
func validateArity(f *fn.Fn, numExtras, requested int) error {
	if !f.Variadic() && numExtras > f.InArity {
		return &TooManyArgumentsError{Given: numExtras, Arity: f.InArity}
	}
	if f.OutArity >= 0 && requested > f.OutArity {
		return &TooManyOutputsError{Requested: requested, Arity: f.OutArity}
	}
	return nil
}

func fnName(f *fn.Fn) string {
	if f == nil || f.Name == "" {
		return "<anonymous>"
	}
	return f.Name
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}
