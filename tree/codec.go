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

import (
	"gopkg.in/yaml.v3"
)

// Doc is the nested document form of a tree, used for YAML/JSON exchange.
//
// A Doc mirrors one node: its value and the documents of its children in
// order. Decoding a Doc assigns canonical positions in preorder, so a tree
// whose insertion order is a preorder round-trips with positions intact;
// other insertion orders keep their structure and values but are
// renumbered into preorder.
type Doc struct {
	Value    any   `yaml:"value" json:"value"`
	Children []Doc `yaml:"children,omitempty" json:"children,omitempty"`
}

// Doc returns the nested document form of the tree.
//
// Child lists are built once up front; scanning the parent slice per node
// (as Children does) would make encoding quadratic in node count.
//
// Thread Safety: Safe for concurrent use (read-only on receiver).
func (t *Tree) Doc() Doc {
	children := make([][]int, len(t.parent))
	for i := 1; i < len(t.parent); i++ {
		p := t.parent[i]
		children[p] = append(children[p], i)
	}
	return t.docAt(0, children)
}

// docAt builds the document for the subtree rooted at node i.
func (t *Tree) docAt(i int, children [][]int) Doc {
	d := Doc{Value: t.values[i]}
	for _, c := range children[i] {
		d.Children = append(d.Children, t.docAt(c, children))
	}
	return d
}

// FromDoc builds a tree from its nested document form.
//
// Nodes are inserted in preorder, so trees decoded from structurally equal
// documents are synchronized.
func FromDoc(d Doc) *Tree {
	t := New(d.Value)
	for _, c := range d.Children {
		addDoc(t, 0, c)
	}
	return t
}

// addDoc inserts the document subtree under parentIdx.
func addDoc(t *Tree, parentIdx int, d Doc) {
	// AddChild cannot fail here: parentIdx was just produced by the tree.
	idx, _ := t.AddChild(parentIdx, d.Value)
	for _, c := range d.Children {
		addDoc(t, idx, c)
	}
}

// MarshalYAML encodes the tree as a nested YAML document.
func MarshalYAML(t *Tree) ([]byte, error) {
	return yaml.Marshal(t.Doc())
}

// UnmarshalYAML decodes a tree from a nested YAML document.
//
// Outputs:
//   - *Tree: The decoded tree with preorder canonical positions.
//   - error: ErrEmptyDocument if the document has no content, or the
//     yaml.v3 error for malformed input.
func UnmarshalYAML(data []byte) (*Tree, error) {
	var d Doc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d.Value == nil && len(d.Children) == 0 {
		return nil, ErrEmptyDocument
	}
	return FromDoc(d), nil
}
