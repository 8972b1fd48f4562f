// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

import (
	"encoding/binary"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/internal/base"
)

// TagCheck selects how the tag byte of a decoded header is validated against
// the type-tag the parent's vector declaration expects.
type TagCheck uint8

const (
	// TagCheckNonZero accepts a zero tag byte as untagged and otherwise
	// requires it to equal the expected tag.
	TagCheckNonZero TagCheck = iota
	// TagCheckNone ignores the tag byte.
	TagCheckNone
	// TagCheckStrict requires the tag byte to equal the expected tag.
	TagCheckStrict
)

// String implements fmt.Stringer.
func (c TagCheck) String() string {
	switch c {
	case TagCheckNone:
		return "none"
	case TagCheckStrict:
		return "strict"
	default:
		return "nonzero"
	}
}

// ParseTagCheck parses the result of TagCheck.String.
func ParseTagCheck(s string) (TagCheck, error) {
	switch s {
	case "none":
		return TagCheckNone, nil
	case "nonzero":
		return TagCheckNonZero, nil
	case "strict":
		return TagCheckStrict, nil
	}
	return 0, errors.Newf("unknown tag check %q", s)
}

// DefaultMaxDepth bounds the nesting of blocks accepted by Parse.
const DefaultMaxDepth = 64

// DecodeOptions configure Parse.
type DecodeOptions struct {
	TagCheck TagCheck
	// VerifyChecksums verifies the trailer of every block whose layout
	// declares a checksum.
	VerifyChecksums bool
	// MaxDepth bounds the nesting of blocks. Zero selects DefaultMaxDepth.
	MaxDepth int
}

// Parse decodes the tree of blocks reachable from the given roots. Each block
// is decoded top-down: the header at the block's address is read according to
// the layout's header kind, the payload is copied, and every non-zero vector,
// in ascending offset order, is followed to decode a child of the declared
// type.
//
// Every access is bounds checked. An access crossing the end of image fails
// with an error marked ErrOutOfBounds; a zero length, a vector pointing outside
// the image, a vector locating an already decoded block or a mismatched tag
// fails with an error marked ErrMalformedRecord.
func Parse(image []byte, registry *Registry, opts DecodeOptions, roots ...Root) (*Tree, error) {
	if len(roots) == 0 {
		return nil, errors.New("codeplug: no roots")
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	d := &decoder{
		image:   image,
		opts:    opts,
		tree:    &Tree{registry: registry},
		visited: make(map[base.Address]NodeID),
	}
	for _, r := range roots {
		layout, ok := registry.Lookup(r.Tag)
		if !ok {
			return nil, errors.Newf("codeplug: root block %s is not registered", r.Tag)
		}
		if int(r.Address) >= len(image) || r.Address < 0 {
			return nil, base.OutOfBoundsErrorf("codeplug: root block %s address %s outside image of %d bytes",
				r.Tag, r.Address, errors.Safe(len(image)))
		}
		id, err := d.decode(r.Address, layout, NoNode, -1, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding root block %s", r.Tag)
		}
		d.tree.roots = append(d.tree.roots, id)
		d.tree.pinned = append(d.tree.pinned, r.Address)
	}
	return d.tree, nil
}

type decoder struct {
	image   []byte
	opts    DecodeOptions
	tree    *Tree
	visited map[base.Address]NodeID
}

func (d *decoder) decode(
	addr base.Address, layout *Layout, parent NodeID, vector, depth int,
) (NodeID, error) {
	if depth >= d.opts.MaxDepth {
		return NoNode, base.MalformedRecordErrorf("codeplug: block %s at %s exceeds maximum depth %d",
			layout.Tag, addr, errors.Safe(d.opts.MaxDepth))
	}
	if prev, ok := d.visited[addr]; ok {
		return NoNode, base.MalformedRecordErrorf("codeplug: block %s at %s already decoded as block %s",
			layout.Tag, addr, d.tree.nodes[prev].layout.Tag)
	}

	hdr := layout.Header
	start := int(addr)
	if err := base.CheckBounds("header", len(d.image), start, hdr.Len()); err != nil {
		return NoNode, errors.Wrapf(err, "block %s at %s", layout.Tag, addr)
	}
	var length int
	if hdr == Long {
		length = int(binary.BigEndian.Uint16(d.image[start:]))
	} else {
		length = int(d.image[start])
	}
	if length == 0 {
		return NoNode, base.MalformedRecordErrorf("codeplug: block %s at %s has zero length",
			layout.Tag, addr)
	}
	tag := d.image[start+hdr.LengthWidth()]
	if err := d.checkTag(tag, layout, addr); err != nil {
		return NoNode, err
	}
	payloadStart, payloadLen := start+hdr.Len(), length-1
	if err := base.CheckBounds("payload", len(d.image), payloadStart, payloadLen); err != nil {
		return NoNode, errors.Wrapf(err, "block %s at %s", layout.Tag, addr)
	}
	if payloadLen < layout.MinExtent() {
		return NoNode, base.MalformedRecordErrorf("codeplug: block %s at %s has length %d, minimum %d",
			layout.Tag, addr, errors.Safe(payloadLen), errors.Safe(layout.MinExtent()))
	}

	n := d.tree.newNode(layout, parent, vector, depth)
	n.headerTag = tag
	n.payload = slices.Clone(d.image[payloadStart : payloadStart+payloadLen])
	n.start = addr
	n.end = base.Address(payloadStart + payloadLen)
	d.visited[addr] = n.id

	if d.opts.VerifyChecksums && layout.Checksum != nil {
		if err := layout.verifyChecksum(n.payload, addr); err != nil {
			return NoNode, err
		}
	}

	for i, v := range layout.Vectors {
		childAddr := base.Address(binary.BigEndian.Uint16(n.payload[v.Offset:]))
		if childAddr == 0 {
			continue
		}
		if int(childAddr) >= len(d.image) {
			return NoNode, base.MalformedRecordErrorf(
				"codeplug: block %s at %s: vector %02X locates %s outside image of %d bytes",
				layout.Tag, addr, errors.Safe(v.Offset), childAddr, errors.Safe(len(d.image)))
		}
		childLayout, _ := d.tree.registry.Lookup(v.Tag)
		id, err := d.decode(childAddr, childLayout, n.id, v.Offset, depth+1)
		if err != nil {
			return NoNode, errors.Wrapf(err, "block %s at %s vector %02X", layout.Tag, addr, errors.Safe(v.Offset))
		}
		n.children[i] = id
	}
	return n.id, nil
}

func (d *decoder) checkTag(tag byte, layout *Layout, addr base.Address) error {
	switch d.opts.TagCheck {
	case TagCheckNone:
		return nil
	case TagCheckNonZero:
		if tag == 0 {
			return nil
		}
	}
	if base.TypeTag(tag) != layout.Tag {
		return base.MalformedRecordErrorf("codeplug: block at %s has tag %s, expected %s",
			addr, base.TypeTag(tag), layout.Tag)
	}
	return nil
}
