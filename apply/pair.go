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

	"github.com/AleutianAI/treefn/tree"
)

// ReorderFunc permutes two trees into canonical (reference, other) order
// before delegation to Apply.
//
// A rule must preserve the synchronization relationship: it may only swap
// the pair, never substitute trees, so it can never turn an invalid pairing
// into a valid one.
type ReorderFunc func(a, b *tree.Tree) (ref, other *tree.Tree)

// DefaultReorder prefers the tree with more nodes as reference and
// otherwise preserves argument order.
func DefaultReorder(a, b *tree.Tree) (*tree.Tree, *tree.Tree) {
	if b.NodeCount() > a.NodeCount() {
		return b, a
	}
	return a, b
}

// ApplyPair evaluates fun elementwise across exactly two trees.
//
// Description:
//
//	Thin convenience wrapper over Apply: permutes the two trees into
//	canonical (reference, other) order via the configured ReorderFunc,
//	then delegates with the pair as the full argument list. All
//	validation, broadcasting (none here — both arguments are trees), and
//	fan-out semantics are Apply's.
//
// Inputs:
//
//   - ctx: Context for cancellation. Must not be nil.
//   - a, b: The two trees. Both must be non-nil and synchronized.
//   - fun: A *fn.Fn descriptor or any Go func value of input arity >= 1.
//   - numOut: Requested output count, as for Apply.
//   - opts: Functional options; WithReorder overrides the permutation rule.
//
// Outputs:
//
//   - []*tree.Tree: Result trees with the reference tree's topology.
//   - error: ErrNilReference if either tree is nil, otherwise whatever
//     Apply returns.
//
// Thread Safety: Safe for concurrent use (read-only on inputs).
func ApplyPair(ctx context.Context, a, b *tree.Tree, fun any, numOut int, opts ...Option) ([]*tree.Tree, error) {
	if a == nil || b == nil {
		return nil, ErrNilReference
	}
	options := applyOptions(opts)
	ref, other := options.Reorder(a, b)
	return Apply(ctx, ref, []any{other}, fun, numOut, opts...)
}
