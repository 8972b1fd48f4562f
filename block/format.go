// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jedicomlink/codeplug/field"
	"github.com/jedicomlink/codeplug/internal/binfmt"
)

// String returns an indented dump of every root and its descendants.
func (t *Tree) String() string {
	var sb strings.Builder
	for _, r := range t.Roots() {
		r.format(&sb, 0)
	}
	return sb.String()
}

// String returns an indented dump of the node and its descendants.
func (n *Node) String() string {
	var sb strings.Builder
	n.format(&sb, 0)
	return sb.String()
}

// format writes the node header line, its fields and then, in vector order,
// its children. Absent vectors are listed so that edits to them are visible.
func (n *Node) format(sb *strings.Builder, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(sb, "%sBlock %s Length %d Starting At %s    %s\n",
		pad, n.layout.Tag, len(n.payload), n.start, n.layout.Name())
	for _, d := range n.layout.Fields {
		v, err := n.FormatField(d.Name)
		if err != nil {
			v = "error: " + err.Error()
		}
		fmt.Fprintf(sb, "%s  %s: %s\n", pad, d.Name, v)
	}
	for i, v := range n.layout.Vectors {
		if n.children[i] == NoNode {
			fmt.Fprintf(sb, "%s  %s: absent\n", pad, v.Name)
			continue
		}
		n.tree.nodes[n.children[i]].format(sb, indent+1)
	}
}

// Describe writes an annotated layout of image to f: the header, fields and
// vectors of every node, in address order, with bytes not covered by any
// declaration marked as such. The tree's addresses describe image after Parse
// or a successful Render. A node resized since then is shown as the raw bytes
// of its last rendered extent.
func (t *Tree) Describe(image []byte, f *binfmt.Formatter) {
	nodes := slices.Clone(t.nodes)
	slices.SortFunc(nodes, func(a, b *Node) int { return cmp.Compare(a.start, b.start) })
	for _, n := range nodes {
		start, end := int(n.start), int(n.end)
		if start < f.Offset() || end > len(image) {
			f.CommentLine("block %s at %s overlaps preceding data", n.layout.Tag, n.start)
			continue
		}
		if gap := start - f.Offset(); gap > 0 {
			f.HexBytesln(gap, "unreferenced")
		}
		if start+n.Size() != end {
			f.CommentLine("block %s: %s resized to %d bytes since last render",
				n.layout.Tag, n.layout.Name(), len(n.payload))
			f.HexBytesln(end-start, "stale")
			continue
		}
		n.describe(f)
	}
	if f.More() {
		f.HexBytesln(f.Remaining(), "unreferenced")
	}
}

type declKind uint8

const (
	declField declKind = iota
	declText
	declVector
)

func (n *Node) describe(f *binfmt.Formatter) {
	hdr := n.layout.Header
	f.CommentLine("block %s: %s (depth %d)", n.layout.Tag, n.layout.Name(), n.depth)
	length := f.PeekUint(hdr.LengthWidth())
	f.Line(hdr.Len()).Append("x ").HexBytes(hdr.LengthWidth()).Append(" ").HexBytes(1).
		Done("%s header: length %d", hdr, length)

	payloadStart := f.Offset()
	type decl struct {
		offset, width int
		kind          declKind
		comment       string
	}
	var decls []decl
	for _, d := range n.layout.Fields {
		v, err := n.FormatField(d.Name)
		if err != nil {
			v = err.Error()
		}
		kind := declField
		if d.Codec == field.Text {
			kind = declText
		}
		decls = append(decls, decl{d.Offset, d.Width, kind, fmt.Sprintf("%s: %s", d.Name, v)})
	}
	for i, v := range n.layout.Vectors {
		target := "absent"
		if c := n.children[i]; c != NoNode {
			target = "block " + n.tree.nodes[c].layout.Tag.String()
		}
		decls = append(decls, decl{v.Offset, VectorLen, declVector, fmt.Sprintf("vector %s -> %s", v.Name, target)})
	}
	slices.SortFunc(decls, func(a, b decl) int { return cmp.Compare(a.offset, b.offset) })
	if w := n.layout.ChecksumWidth(); w > 0 {
		decls = append(decls, decl{len(n.payload) - w, w, declField, "checksum"})
	}

	for _, d := range decls {
		if gap := payloadStart + d.offset - f.Offset(); gap > 0 {
			f.HexBytesln(gap, "unknown")
		}
		switch d.kind {
		case declVector:
			f.Uint16ln("%s", d.comment)
		case declText:
			f.CommentLine("%s", d.comment)
			f.HexTextln(d.width)
		default:
			f.HexBytesln(d.width, "%s", d.comment)
		}
	}
	if rem := payloadStart + len(n.payload) - f.Offset(); rem > 0 {
		f.HexBytesln(rem, "unknown")
	}
}
