// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

import (
	"iter"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/internal/base"
)

// NodeID is a stable handle to a node within a Tree's arena.
type NodeID int32

// NoNode is the NodeID of an absent node: the parent of a root or the child
// behind a zero vector.
const NoNode NodeID = -1

// Root identifies a root block: its pinned address and its type-tag. Roots are
// not referenced by any vector, so the tag cannot be inferred from a parent.
type Root struct {
	Address base.Address
	Tag     base.TypeTag
}

// Tree is an arena holding every node reachable from a set of roots. The
// arena's order is the order in which nodes were first visited while decoding
// (depth first, ascending vector offset), which is also the order in which
// Render lays them out.
//
// Children are owned by their parent through NodeIDs; the parent link is a
// non-owning NodeID into the same arena.
type Tree struct {
	registry *Registry
	nodes    []*Node
	roots    []NodeID
	pinned   []base.Address
}

// Node is one type-tagged record. Its payload is a private copy of the bytes
// following the header; it never aliases the image it was decoded from.
type Node struct {
	tree   *Tree
	id     NodeID
	layout *Layout
	parent NodeID
	vector int
	depth  int
	// headerTag is the raw byte following the length field. It is preserved
	// verbatim when rendering.
	headerTag byte
	payload   []byte
	// children is parallel to layout.Vectors.
	children []NodeID
	// start and end are the address range the node occupied in the image it
	// was last decoded from or rendered to; end is exclusive. They are stale
	// once any node in the tree changes size.
	start, end base.Address
}

// Registry returns the registry the tree was decoded with.
func (t *Tree) Registry() *Registry {
	return t.registry
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given handle.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes[id]
}

// Roots returns the root nodes in declaration order.
func (t *Tree) Roots() []*Node {
	r := make([]*Node, len(t.roots))
	for i, id := range t.roots {
		r[i] = t.nodes[id]
	}
	return r
}

// All returns a sequence over every node in first-visit order. The sequence
// may be iterated any number of times.
func (t *Tree) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, n := range t.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// Find returns the first node in first-visit order with the given tag.
func (t *Tree) Find(tag base.TypeTag) (*Node, bool) {
	for _, n := range t.nodes {
		if n.layout.Tag == tag {
			return n, true
		}
	}
	return nil, false
}

func (t *Tree) newNode(layout *Layout, parent NodeID, vector, depth int) *Node {
	n := &Node{
		tree:     t,
		id:       NodeID(len(t.nodes)),
		layout:   layout,
		parent:   parent,
		vector:   vector,
		depth:    depth,
		children: make([]NodeID, len(layout.Vectors)),
	}
	for i := range n.children {
		n.children[i] = NoNode
	}
	t.nodes = append(t.nodes, n)
	return n
}

// ID returns the node's handle.
func (n *Node) ID() NodeID { return n.id }

// Tag returns the node's type-tag.
func (n *Node) Tag() base.TypeTag { return n.layout.Tag }

// Layout returns the node's layout.
func (n *Node) Layout() *Layout { return n.layout }

// Description returns the description of the node's block type.
func (n *Node) Description() string { return n.layout.Name() }

// Depth returns the node's depth; roots have depth zero.
func (n *Node) Depth() int { return n.depth }

// HeaderTag returns the raw byte following the length field in the node's
// header.
func (n *Node) HeaderTag() byte { return n.headerTag }

// Start returns the address at which the node's header began in the image it
// was last decoded from or rendered to.
func (n *Node) Start() base.Address { return n.start }

// End returns the address immediately following the node in the image it was
// last decoded from or rendered to.
func (n *Node) End() base.Address { return n.end }

// Len returns the length of the node's payload.
func (n *Node) Len() int { return len(n.payload) }

// Size returns the number of bytes the node occupies when rendered, header
// included.
func (n *Node) Size() int { return n.layout.Header.Len() + len(n.payload) }

// Payload returns a copy of the node's payload.
func (n *Node) Payload() []byte { return slices.Clone(n.payload) }

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node {
	if n.parent == NoNode {
		return nil
	}
	return n.tree.nodes[n.parent]
}

// VectorOffset returns the offset of the vector in the parent's payload that
// locates this node, or -1 for a root.
func (n *Node) VectorOffset() int { return n.vector }

// Child returns the child located by the vector at the given payload offset.
// It returns false if no vector is declared at the offset or the vector is
// absent.
func (n *Node) Child(vectorOffset int) (*Node, bool) {
	i := n.layout.VectorIndex(vectorOffset)
	if i < 0 || n.children[i] == NoNode {
		return nil, false
	}
	return n.tree.nodes[n.children[i]], true
}

// ChildByName returns the child located by the named vector.
func (n *Node) ChildByName(name string) (*Node, bool) {
	for i, v := range n.layout.Vectors {
		if v.Name == name {
			return n.Child(n.layout.Vectors[i].Offset)
		}
	}
	return nil, false
}

// Children returns the node's present children in ascending vector order.
func (n *Node) Children() []*Node {
	var c []*Node
	for _, id := range n.children {
		if id != NoNode {
			c = append(c, n.tree.nodes[id])
		}
	}
	return c
}

// Find returns the first descendant of n, in first-visit order, with the given
// tag. The node itself is not considered.
func (n *Node) Find(tag base.TypeTag) (*Node, bool) {
	for _, c := range n.Children() {
		if c.layout.Tag == tag {
			return c, true
		}
		if d, ok := c.Find(tag); ok {
			return d, true
		}
	}
	return nil, false
}

// SetPayload replaces the node's payload with a copy of b. The new payload may
// change the node's size but must be at least the layout's minimum extent and
// fit the layout's header kind. Vector bytes within b are ignored when
// rendering; they are always recomputed from the tree.
func (n *Node) SetPayload(b []byte) error {
	if err := n.checkLen(len(b)); err != nil {
		return err
	}
	n.payload = slices.Clone(b)
	return nil
}

// Resize grows or shrinks the payload to length size. New bytes are zero.
func (n *Node) Resize(size int) error {
	if err := n.checkLen(size); err != nil {
		return err
	}
	p := make([]byte, size)
	copy(p, n.payload)
	n.payload = p
	return nil
}

func (n *Node) checkLen(size int) error {
	if size < n.layout.MinExtent() {
		return base.FieldRangeErrorf("codeplug: block %s payload length %d below minimum extent %d",
			n.layout.Tag, errors.Safe(size), errors.Safe(n.layout.MinExtent()))
	}
	if size > n.layout.Header.MaxPayload() {
		return base.FieldRangeErrorf("codeplug: block %s payload length %d exceeds %s header capacity %d",
			n.layout.Tag, errors.Safe(size), n.layout.Header, errors.Safe(n.layout.Header.MaxPayload()))
	}
	return nil
}
