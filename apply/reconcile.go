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
	"github.com/AleutianAI/treefn/tree"
)

// argKind tags an extra argument as a tree or a broadcast scalar. The tag
// is resolved exactly once per argument during reconciliation and never
// re-checked afterwards.
type argKind int

const (
	argScalar argKind = iota
	argTree
)

// resolvedArg is the tagged-union form of one extra argument.
type resolvedArg struct {
	kind   argKind
	tree   *tree.Tree
	scalar any
}

// classify resolves the tree-or-scalar tag for one argument.
//
// Tree-ness is the only test: compound non-tree values (structs, slices,
// maps) broadcast like any other scalar. A typed-nil *tree.Tree keeps the
// tree tag — it is a tree argument that can never be synchronized, not a
// scalar to broadcast.
func classify(v any) resolvedArg {
	if t, ok := v.(*tree.Tree); ok {
		return resolvedArg{kind: argTree, tree: t}
	}
	return resolvedArg{kind: argScalar, scalar: v}
}

// reconcile aligns every extra argument with the reference tree's nodes.
//
// Description:
//
//	Produces one flat value sequence per extra argument, positionally
//	aligned with the reference tree's canonical order. Scalars broadcast
//	to the reference node count; tree arguments are validated for
//	structural synchronization and have their value sequences extracted.
//
// Inputs:
//
//   - ref: The reference tree. Must not be nil (validated by the caller).
//   - extras: Extra arguments in user order. May be empty (unary
//     application).
//
// Outputs:
//
//   - [][]any: One aligned sequence per extra, all of length
//     ref.NodeCount().
//   - error: *StructuralMismatchError identifying the first offending
//     argument by its 1-based position among the extras. A nil tree
//     argument is never synchronized and fails the same way.
//
// Thread Safety: Safe for concurrent use (read-only on inputs).
func reconcile(ref *tree.Tree, extras []any) ([][]any, error) {
	n := ref.NodeCount()
	aligned := make([][]any, len(extras))

	for i, extra := range extras {
		arg := classify(extra)
		switch arg.kind {
		case argTree:
			if !tree.IsSync(ref, arg.tree) {
				return nil, &StructuralMismatchError{Arg: i + 1}
			}
			aligned[i] = arg.tree.Values()
		case argScalar:
			seq := make([]any, n)
			for p := range seq {
				seq[p] = arg.scalar
			}
			aligned[i] = seq
		}
	}
	return aligned, nil
}
