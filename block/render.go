// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

import (
	"cmp"
	"encoding/binary"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/internal/base"
	"github.com/jedicomlink/codeplug/internal/invariants"
)

// RenderOptions configure Render.
type RenderOptions struct {
	// Checksums applies the checksum step to every block whose layout
	// declares one.
	Checksums bool
	// Source supplies the bytes preceding the first root and the gaps between
	// roots, typically the image the tree was decoded from. Bytes not covered
	// by Source are set to Fill.
	Source []byte
	Fill   byte
}

// Render serializes the tree into a new image. Every node's address is
// recomputed: roots are placed at their pinned addresses and every other
// node is laid out contiguously, depth first in ascending vector order, after
// its parent. Each vector is patched with its child's new address; absent
// vectors are written as zero.
//
// On success the nodes' addresses and the vector bytes of their payloads are
// updated to reflect the new image. On failure the tree is left unchanged.
func (t *Tree) Render(opts RenderOptions) ([]byte, error) {
	r := renderer{tree: t, opts: opts, starts: make([]base.Address, len(t.nodes))}
	cursor := 0
	for i, id := range t.roots {
		pinned := int(t.pinned[i])
		if cursor > pinned {
			return nil, base.FieldRangeErrorf("codeplug: root block %s pinned at %s overrun by preceding blocks ending at %s",
				t.nodes[id].layout.Tag, t.pinned[i], base.Address(cursor))
		}
		r.fill(cursor, pinned)
		var err error
		if cursor, err = r.render(id, pinned); err != nil {
			return nil, err
		}
	}
	return r.finish()
}

// Render serializes the subtree of the root n into a new image, placing n at
// its pinned address. Bytes before n come from opts.Source. Only n and its
// descendants have their addresses committed; the other roots of the tree
// are untouched.
func Render(n *Node, opts RenderOptions) ([]byte, error) {
	t := n.tree
	i := slices.Index(t.roots, n.id)
	if i < 0 {
		return nil, errors.Newf("codeplug: block %s at %s is not a root", n.layout.Tag, n.start)
	}
	r := renderer{tree: t, opts: opts, starts: make([]base.Address, len(t.nodes))}
	r.fill(0, int(t.pinned[i]))
	if _, err := r.render(n.id, int(t.pinned[i])); err != nil {
		return nil, err
	}
	return r.finish()
}

type renderer struct {
	tree   *Tree
	opts   RenderOptions
	out    []byte
	starts []base.Address
	order  []NodeID
}

// fill extends the output to end with gap bytes.
func (r *renderer) fill(start, end int) {
	for i := start; i < end; i++ {
		b := r.opts.Fill
		if i < len(r.opts.Source) {
			b = r.opts.Source[i]
		}
		r.out = append(r.out, b)
	}
}

// render writes the node with the given handle at cursor, followed by its
// descendants, and returns the cursor following the last byte written.
func (r *renderer) render(id NodeID, cursor int) (int, error) {
	n := r.tree.nodes[id]
	hdr := n.layout.Header
	if len(n.payload) > hdr.MaxPayload() {
		return 0, base.FieldRangeErrorf("codeplug: block %s payload length %d exceeds %s header capacity",
			n.layout.Tag, errors.Safe(len(n.payload)), hdr)
	}
	start := cursor
	if start > int(base.MaxAddress) {
		return 0, base.FieldRangeErrorf("codeplug: block %s would start at %s, beyond vector range",
			n.layout.Tag, base.Address(start))
	}
	r.starts[id] = base.Address(start)
	r.order = append(r.order, id)

	// Reserve the header and payload, then write them.
	payloadStart := start + hdr.Len()
	cursor = payloadStart + len(n.payload)
	if cursor > int(base.MaxAddress)+1 {
		return 0, base.FieldRangeErrorf("codeplug: block %s at %s ends at 0x%X, beyond vector range",
			n.layout.Tag, base.Address(start), errors.Safe(cursor))
	}
	r.out = append(r.out, make([]byte, cursor-start)...)
	if hdr == Long {
		binary.BigEndian.PutUint16(r.out[start:], uint16(len(n.payload)+1))
	} else {
		r.out[start] = byte(len(n.payload) + 1)
	}
	r.out[start+hdr.LengthWidth()] = n.headerTag
	copy(r.out[payloadStart:], n.payload)

	for i, v := range n.layout.Vectors {
		// The output may be reallocated while rendering the child, so the
		// vector is addressed by offset rather than by slice.
		vecOff := payloadStart + v.Offset
		invariants.CheckBounds(vecOff+1, len(r.out))
		child := n.children[i]
		if child == NoNode {
			binary.BigEndian.PutUint16(r.out[vecOff:], 0)
			continue
		}
		var err error
		if cursor, err = r.render(child, cursor); err != nil {
			return 0, err
		}
		binary.BigEndian.PutUint16(r.out[vecOff:], uint16(r.starts[child]))
	}
	return cursor, nil
}

// finish applies checksums, commits the new addresses and payloads to the
// rendered nodes and returns the image.
func (r *renderer) finish() ([]byte, error) {
	if r.opts.Checksums {
		for _, id := range r.order {
			n := r.tree.nodes[id]
			if n.layout.Checksum == nil {
				continue
			}
			payloadStart := int(r.starts[id]) + n.layout.Header.Len()
			n.layout.applyChecksum(r.out[payloadStart : payloadStart+len(n.payload)])
		}
	}
	for _, id := range r.order {
		n := r.tree.nodes[id]
		start := int(r.starts[id])
		payloadStart := start + n.layout.Header.Len()
		n.start = base.Address(start)
		n.end = base.Address(payloadStart + len(n.payload))
		n.payload = slices.Clone(r.out[payloadStart:n.end])
	}
	if invariants.Enabled {
		rendered := make([]*Node, len(r.order))
		for i, id := range r.order {
			rendered[i] = r.tree.nodes[id]
		}
		if err := checkConsistency(rendered, r.out); err != nil {
			panic(errors.NewAssertionErrorWithWrappedErrf(err, "render produced an inconsistent image"))
		}
	}
	return r.out, nil
}

// CheckConsistency verifies that image agrees with the addresses recorded in
// the tree: every present vector equals its child's start address in both the
// parent's payload and the image, every absent vector is zero, each node's
// header describes its payload, and no two nodes' byte ranges overlap.
func (t *Tree) CheckConsistency(image []byte) error {
	return checkConsistency(slices.Clone(t.nodes), image)
}

func checkConsistency(nodes []*Node, image []byte) error {
	for _, n := range nodes {
		t := n.tree
		start, end := int(n.start), int(n.end)
		if err := base.CheckBounds("block", len(image), start, end-start); err != nil {
			return errors.Wrapf(err, "block %s", n.layout.Tag)
		}
		hdr := n.layout.Header
		if end-start != hdr.Len()+len(n.payload) {
			return errors.Newf("block %s at %s spans %d bytes, expected %d",
				n.layout.Tag, n.start, end-start, hdr.Len()+len(n.payload))
		}
		for i, v := range n.layout.Vectors {
			want := 0
			if c := n.children[i]; c != NoNode {
				want = int(t.nodes[c].start)
			}
			if got := int(binary.BigEndian.Uint16(n.payload[v.Offset:])); got != want {
				return errors.Newf("block %s at %s: vector %02X holds %04X, child at %04X",
					n.layout.Tag, n.start, v.Offset, got, want)
			}
			if got := int(binary.BigEndian.Uint16(image[start+hdr.Len()+v.Offset:])); got != want {
				return errors.Newf("block %s at %s: image vector %02X holds %04X, child at %04X",
					n.layout.Tag, n.start, v.Offset, got, want)
			}
		}
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return cmp.Compare(a.start, b.start) })
	for i := 1; i < len(nodes); i++ {
		if nodes[i].start < nodes[i-1].end {
			return errors.Newf("block %s at %s overlaps block %s at %s",
				nodes[i].layout.Tag, nodes[i].start, nodes[i-1].layout.Tag, nodes[i-1].start)
		}
	}
	return nil
}
