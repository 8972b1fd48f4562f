// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

import (
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/swiss"
	"github.com/jedicomlink/codeplug/field"
	"github.com/jedicomlink/codeplug/internal/base"
)

// HeaderKind describes the length prefix preceding a block's payload.
//
// A Short header is a single length byte followed by the tag byte:
//
//	+--------+-----+----------------------+
//	| len(1) | tag | payload (len-1 bytes) |
//	+--------+-----+----------------------+
//
// A Long header has the same shape with a two byte big-endian length. In both
// cases the length counts the tag byte and the payload.
type HeaderKind uint8

const (
	// Short headers use a one byte length.
	Short HeaderKind = iota
	// Long headers use a two byte length, for payloads exceeding 254 bytes.
	Long
)

// LengthWidth returns the width of the header's length field.
func (k HeaderKind) LengthWidth() int {
	if k == Long {
		return 2
	}
	return 1
}

// Len returns the total header length: the length field plus the tag byte.
func (k HeaderKind) Len() int {
	return k.LengthWidth() + 1
}

// MaxPayload returns the largest payload the header can describe.
func (k HeaderKind) MaxPayload() int {
	if k == Long {
		return 0xFFFF - 1
	}
	return 0xFF - 1
}

// String implements fmt.Stringer.
func (k HeaderKind) String() string {
	if k == Long {
		return "long"
	}
	return "short"
}

// SafeFormat implements redact.SafeFormatter.
func (k HeaderKind) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(k.String()))
}

// FieldDecl declares a typed field within a block's payload.
type FieldDecl struct {
	Name   string
	Offset int
	// Width is the number of payload bytes occupied by the field. It may be
	// left zero for codecs with a fixed width.
	Width int
	Codec field.Codec
}

// End returns the payload offset immediately after the field.
func (d FieldDecl) End() int { return d.Offset + d.Width }

// VectorDecl declares a two byte vector within a block's payload locating a
// child block of type Tag.
type VectorDecl struct {
	Name   string
	Offset int
	Tag    base.TypeTag
}

// VectorLen is the width of a vector.
const VectorLen = 2

// Layout is the static description of a block type. Layouts are registered
// once in a Registry and never mutated afterwards.
type Layout struct {
	Tag         base.TypeTag
	Description string
	Header      HeaderKind
	Fields      []FieldDecl
	Vectors     []VectorDecl
	// Checksum, if non-nil, opts the block type into the trailing checksum
	// applied after rendering.
	Checksum *Checksum

	minExtent int
}

// MinExtent returns the smallest payload length a block of this type may have:
// every declared field and vector, plus the checksum trailer, must fit.
func (l *Layout) MinExtent() int {
	return l.minExtent
}

// Field returns the field declaration with the given name.
func (l *Layout) Field(name string) (FieldDecl, bool) {
	for _, d := range l.Fields {
		if d.Name == name {
			return d, true
		}
	}
	return FieldDecl{}, false
}

// VectorIndex returns the index of the vector declared at the given payload
// offset, or -1.
func (l *Layout) VectorIndex(offset int) int {
	for i := range l.Vectors {
		if l.Vectors[i].Offset == offset {
			return i
		}
	}
	return -1
}

// Name returns the description of the layout, or a name derived from the tag
// if the layout has no description.
func (l *Layout) Name() string {
	if l.Description != "" {
		return l.Description
	}
	return "Block " + l.Tag.String()
}

// prepare validates the layout and returns a private copy with sorted
// declarations and the computed minimum extent.
func (l *Layout) prepare() (*Layout, error) {
	c := *l
	c.Fields = slices.Clone(l.Fields)
	c.Vectors = slices.Clone(l.Vectors)
	if l.Checksum != nil {
		cs := *l.Checksum
		c.Checksum = &cs
	}

	type span struct {
		name       string
		start, end int
	}
	var spans []span
	for i := range c.Fields {
		d := &c.Fields[i]
		if w := d.Codec.FixedWidth(); w != 0 {
			if d.Width == 0 {
				d.Width = w
			} else if d.Width != w {
				return nil, errors.Newf("block %s: field %q: %s requires width %d, declared %d",
					c.Tag, d.Name, d.Codec, w, d.Width)
			}
		}
		if d.Offset < 0 || d.Width <= 0 {
			return nil, errors.Newf("block %s: field %q: invalid offset %d width %d",
				c.Tag, d.Name, d.Offset, d.Width)
		}
		spans = append(spans, span{d.Name, d.Offset, d.End()})
	}
	for _, v := range c.Vectors {
		if v.Offset < 0 {
			return nil, errors.Newf("block %s: vector %q: invalid offset %d", c.Tag, v.Name, v.Offset)
		}
		spans = append(spans, span{v.Name, v.Offset, v.Offset + VectorLen})
	}
	slices.SortFunc(spans, func(a, b span) int { return cmp.Compare(a.start, b.start) })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return nil, errors.Newf("block %s: declarations %q and %q overlap",
				c.Tag, spans[i-1].name, spans[i].name)
		}
	}
	slices.SortFunc(c.Fields, func(a, b FieldDecl) int { return cmp.Compare(a.Offset, b.Offset) })
	slices.SortFunc(c.Vectors, func(a, b VectorDecl) int { return cmp.Compare(a.Offset, b.Offset) })

	if len(spans) > 0 {
		c.minExtent = spans[len(spans)-1].end
	}
	c.minExtent += c.ChecksumWidth()
	if c.minExtent > c.Header.MaxPayload() {
		return nil, errors.Newf("block %s: declarations span %d bytes, %s header allows %d",
			c.Tag, c.minExtent, c.Header, c.Header.MaxPayload())
	}
	return &c, nil
}

// Registry maps type-tags to layouts. A Registry is immutable once built and
// safe for concurrent use.
type Registry struct {
	layouts swiss.Map[base.TypeTag, *Layout]
	tags    []base.TypeTag
}

// NewRegistry validates the layouts and returns a registry containing them.
// Every vector must name a tag that is itself registered.
func NewRegistry(layouts ...*Layout) (*Registry, error) {
	r := &Registry{}
	r.layouts.Init(len(layouts))
	for _, l := range layouts {
		if _, ok := r.layouts.Get(l.Tag); ok {
			return nil, errors.Newf("block %s registered twice", l.Tag)
		}
		p, err := l.prepare()
		if err != nil {
			return nil, err
		}
		r.layouts.Put(p.Tag, p)
		r.tags = append(r.tags, p.Tag)
	}
	slices.Sort(r.tags)
	for _, tag := range r.tags {
		l, _ := r.layouts.Get(tag)
		for _, v := range l.Vectors {
			if _, ok := r.layouts.Get(v.Tag); !ok {
				return nil, errors.Newf("block %s: vector %q references unregistered block %s",
					l.Tag, v.Name, v.Tag)
			}
		}
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. It is intended for
// package level registries.
func MustRegistry(layouts ...*Layout) *Registry {
	r, err := NewRegistry(layouts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the layout registered for tag.
func (r *Registry) Lookup(tag base.TypeTag) (*Layout, bool) {
	return r.layouts.Get(tag)
}

// Tags returns the registered tags in ascending order.
func (r *Registry) Tags() []base.TypeTag {
	return slices.Clone(r.tags)
}

// Len returns the number of registered layouts.
func (r *Registry) Len() int {
	return len(r.tags)
}
