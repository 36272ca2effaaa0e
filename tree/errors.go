// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tree

import "errors"

// Sentinel errors for tree operations.
var (
	// ErrInvalidParent is returned when AddChild references a node index
	// that does not exist in the tree.
	ErrInvalidParent = errors.New("invalid parent index")

	// ErrNodeOutOfRange is returned when a node index is outside the
	// range [0, NodeCount).
	ErrNodeOutOfRange = errors.New("node index out of range")

	// ErrLengthMismatch is returned by WithValues when the flat value
	// sequence does not have exactly one entry per node.
	ErrLengthMismatch = errors.New("value sequence length does not match node count")

	// ErrEmptyDocument is returned when decoding an empty tree document.
	// A tree always has at least a root node.
	ErrEmptyDocument = errors.New("tree document is empty")
)
