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
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/treefn/fn"
)

// Parallel evaluation configuration constants.
const (
	// parallelThreshold is the minimum node count to trigger parallel
	// evaluation. Small trees evaluate sequentially for better cache
	// locality.
	parallelThreshold = 32

	// maxParallelWorkers caps the number of goroutines regardless of CPU
	// count. Per-node calls are usually cheap; excessive parallelism
	// costs more in scheduling than it saves.
	maxParallelWorkers = 8
)

// evaluate invokes f once per node position and regroups the results by
// output slot.
//
// Description:
//
//	seqs holds the reference value sequence followed by the aligned extra
//	sequences, all of equal length n. For each position p the function is
//	called with the p-th value of every sequence, in order, and its k-th
//	return value lands in slot results[k][p]. Sequential evaluation in
//	canonical order is the default; parallel mode distributes positions
//	over a bounded worker pool while keeping assembly positional.
//
// Outputs:
//
//   - [][]any: numOut flat result sequences of length n.
//   - error: The first failing position's error, unmodified, or a short
//     count error when the function returned fewer values than requested.
//
// Thread Safety: Safe for concurrent use; all state is invocation-local.
func evaluate(ctx context.Context, seqs [][]any, f *fn.Fn, numOut int, o Options) ([][]any, error) {
	n := len(seqs[0])

	results := make([][]any, numOut)
	for k := range results {
		results[k] = make([]any, n)
	}

	if o.Parallel && n >= parallelThreshold {
		if err := evaluateParallel(ctx, seqs, f, results, o); err != nil {
			return nil, err
		}
		return results, nil
	}

	for p := 0; p < n; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := evaluateAt(seqs, f, results, p); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// evaluateAt applies f at one position and scatters its outputs.
func evaluateAt(seqs [][]any, f *fn.Fn, results [][]any, p int) error {
	args := make([]any, len(seqs))
	for i, seq := range seqs {
		args[i] = seq[p]
	}

	outs, err := f.Call(args)
	if err != nil {
		// User-function errors propagate unmodified.
		return err
	}
	if len(outs) < len(results) {
		return fmt.Errorf("function %q returned %d values at position %d, need %d",
			f.Name, len(outs), p, len(results))
	}
	for k := range results {
		results[k][p] = outs[k]
	}
	return nil
}

// evaluateParallel distributes positions over a bounded worker pool.
//
// Every position writes to its own result slots, so no locking is needed;
// the first error cancels the remaining positions via the group context.
func evaluateParallel(ctx context.Context, seqs [][]any, f *fn.Fn, results [][]any, o Options) error {
	workers := o.MaxWorkers
	if workers <= 0 || workers > maxParallelWorkers {
		workers = maxParallelWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	n := len(seqs[0])
	for p := 0; p < n; p++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return evaluateAt(seqs, f, results, p)
		})
	}
	return g.Wait()
}
