// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tree provides an ordered, rooted, acyclic container of values.
//
// A Tree stores its topology as a parent-index slice: node 0 is the root
// (parent -1), and every other node records the index of its parent. Node
// indices are assigned in insertion order, which doubles as the canonical
// traversal order: two trees built from the same topology assign the same
// index to the same position, so their flat value sequences align
// positionally.
//
// # Ownership Model
//
// Values are stored as-is; the tree does NOT copy or inspect them. Callers
// that hand the same value to multiple trees share it.
//
// # Thread Safety
//
// Tree is NOT safe for concurrent mutation. It is designed for:
//   - Single-writer access while building (AddChild, SetValue calls)
//   - Read-only access afterwards (Values, WithValues, IsSync, traversal)
//
// All read-only methods are safe for concurrent use once building is done.
package tree

import (
	"fmt"
	"reflect"
)

// Tree is an ordered, rooted, acyclic container of arbitrary values.
//
// The zero value is not usable; construct with New or FromDoc.
type Tree struct {
	// parent[i] is the index of node i's parent; parent[0] == -1 (root).
	// Entries are append-only and each parent index precedes its children,
	// so index order is a preorder-compatible traversal.
	parent []int

	// values[i] is the content of node i. May be nil (empty placeholder).
	values []any
}

// New returns a tree containing a single root node holding rootValue.
func New(rootValue any) *Tree {
	return &Tree{
		parent: []int{-1},
		values: []any{rootValue},
	}
}

// NodeCount returns the number of nodes in the tree.
func (t *Tree) NodeCount() int {
	if t == nil {
		return 0
	}
	return len(t.parent)
}

// AddChild appends a new node holding value under the node at parentIdx.
//
// Outputs:
//   - int: The index of the new node (its canonical position).
//   - error: ErrInvalidParent if parentIdx is out of range.
//
// Children are ordered by insertion; the new node's index is always greater
// than its parent's, preserving the positional alignment contract.
func (t *Tree) AddChild(parentIdx int, value any) (int, error) {
	if parentIdx < 0 || parentIdx >= len(t.parent) {
		return 0, fmt.Errorf("%w: %d (node count %d)", ErrInvalidParent, parentIdx, len(t.parent))
	}
	t.parent = append(t.parent, parentIdx)
	t.values = append(t.values, value)
	return len(t.parent) - 1, nil
}

// Value returns the content of the node at index i.
func (t *Tree) Value(i int) (any, error) {
	if i < 0 || i >= len(t.values) {
		return nil, fmt.Errorf("%w: %d (node count %d)", ErrNodeOutOfRange, i, len(t.values))
	}
	return t.values[i], nil
}

// SetValue replaces the content of the node at index i.
func (t *Tree) SetValue(i int, value any) error {
	if i < 0 || i >= len(t.values) {
		return fmt.Errorf("%w: %d (node count %d)", ErrNodeOutOfRange, i, len(t.values))
	}
	t.values[i] = value
	return nil
}

// Parent returns the index of node i's parent, or -1 for the root.
func (t *Tree) Parent(i int) (int, error) {
	if i < 0 || i >= len(t.parent) {
		return 0, fmt.Errorf("%w: %d (node count %d)", ErrNodeOutOfRange, i, len(t.parent))
	}
	return t.parent[i], nil
}

// Children returns the indices of node i's children in insertion order.
//
// Computed on demand in O(n); the container does not maintain child lists.
func (t *Tree) Children(i int) []int {
	children := make([]int, 0)
	for idx, p := range t.parent {
		if p == i {
			children = append(children, idx)
		}
	}
	return children
}

// Values returns the node contents as a flat sequence in canonical order.
//
// The returned slice is a copy: mutating it does not affect the tree, which
// keeps input trees read-only for the duration of an elementwise
// application.
func (t *Tree) Values() []any {
	out := make([]any, len(t.values))
	copy(out, t.values)
	return out
}

// WithValues returns a new tree sharing this tree's topology with values
// as its node contents.
//
// Description:
//
//	Clones the topology (an empty skeleton) and installs the given flat
//	sequence positionally. This is the result-assembly primitive for
//	elementwise application: outputs reuse the reference tree's shape.
//
// Inputs:
//
//   - values: One entry per node, in canonical order. Length must equal
//     NodeCount.
//
// Outputs:
//
//   - *Tree: The new tree. The receiver is not modified.
//   - error: ErrLengthMismatch if len(values) != NodeCount.
//
// Thread Safety: Safe for concurrent use (read-only on receiver).
func (t *Tree) WithValues(values []any) (*Tree, error) {
	if len(values) != len(t.parent) {
		return nil, fmt.Errorf("%w: got %d values for %d nodes", ErrLengthMismatch, len(values), len(t.parent))
	}
	nt := t.Skeleton()
	copy(nt.values, values)
	return nt, nil
}

// Skeleton returns a cleared clone: same topology, all node values nil.
//
// Thread Safety: Safe for concurrent use (read-only on receiver).
func (t *Tree) Skeleton() *Tree {
	parent := make([]int, len(t.parent))
	copy(parent, t.parent)
	return &Tree{
		parent: parent,
		values: make([]any, len(t.parent)),
	}
}

// Fill returns a new tree with this tree's topology and every node holding v.
//
// This is the materialized form of scalar broadcasting: a non-tree value
// expanded to a full tree of repeated entries.
func (t *Tree) Fill(v any) *Tree {
	nt := t.Skeleton()
	for i := range nt.values {
		nt.values[i] = v
	}
	return nt
}

// IsSync reports whether a and b share identical topology.
//
// Description:
//
//	Two trees are synchronized when they have the same node count and the
//	same parent-index structure, regardless of node content. Synchronized
//	trees assign the same canonical position to every node, so their flat
//	value sequences align elementwise.
//
// Outputs:
//
//   - bool: true iff both trees are non-nil and structurally identical.
//
// Thread Safety: Safe for concurrent use (read-only).
func IsSync(a, b *Tree) bool {
	if a == nil || b == nil {
		return false
	}
	if len(a.parent) != len(b.parent) {
		return false
	}
	for i := range a.parent {
		if a.parent[i] != b.parent[i] {
			return false
		}
	}
	return true
}

// Equal reports whether a and b are synchronized AND hold equal values at
// every position. Values are compared with reflect.DeepEqual.
func Equal(a, b *Tree) bool {
	if !IsSync(a, b) {
		return false
	}
	for i := range a.values {
		if !reflect.DeepEqual(a.values[i], b.values[i]) {
			return false
		}
	}
	return true
}
