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

import "log/slog"

// Options configures invocation behavior.
type Options struct {
	// Parallel enables position-parallel evaluation for trees with at
	// least parallelThreshold nodes. The supplied function must be free
	// of cross-call side effects; result assembly stays positional.
	Parallel bool

	// MaxWorkers caps the number of evaluation goroutines when Parallel
	// is set. Values <= 0 or above maxParallelWorkers fall back to
	// maxParallelWorkers.
	MaxWorkers int

	// Logger receives per-invocation debug logs. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Reorder is the canonical-order permutation rule used by ApplyPair.
	// Defaults to DefaultReorder.
	Reorder ReorderFunc
}

// DefaultOptions returns sensible defaults for invocations.
func DefaultOptions() Options {
	return Options{
		Parallel:   false,
		MaxWorkers: maxParallelWorkers,
		Logger:     slog.Default(),
		Reorder:    DefaultReorder,
	}
}

// Option is a functional option for configuring invocations.
type Option func(*Options)

// WithParallel enables or disables position-parallel evaluation.
func WithParallel(enabled bool) Option {
	return func(o *Options) {
		o.Parallel = enabled
	}
}

// WithMaxWorkers caps the evaluation goroutine count in parallel mode.
func WithMaxWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxWorkers = n
		}
	}
}

// WithLogger sets the logger for per-invocation debug logs.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithReorder sets the canonical-order permutation rule for ApplyPair.
func WithReorder(f ReorderFunc) Option {
	return func(o *Options) {
		if f != nil {
			o.Reorder = f
		}
	}
}

// applyOptions applies functional options and returns the configured options.
func applyOptions(opts []Option) Options {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxWorkers > maxParallelWorkers {
		options.MaxWorkers = maxParallelWorkers
	}
	return options
}
