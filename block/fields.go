// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/field"
	"github.com/jedicomlink/codeplug/internal/base"
)

// decl returns the declaration of the named field, checking that it uses the
// expected codec.
func (n *Node) decl(name string, codec field.Codec) (FieldDecl, error) {
	d, ok := n.layout.Field(name)
	if !ok {
		return FieldDecl{}, errors.Newf("codeplug: block %s has no field %q", n.layout.Tag, name)
	}
	if d.Codec != codec {
		return FieldDecl{}, errors.Newf("codeplug: block %s field %q is %s, not %s",
			n.layout.Tag, name, d.Codec, codec)
	}
	return d, nil
}

// Bytes returns a copy of the named fixed byte run.
func (n *Node) Bytes(name string) ([]byte, error) {
	d, err := n.decl(name, field.Bytes)
	if err != nil {
		return nil, err
	}
	return field.ReadFixedBytes(n.payload, d.Offset, d.Width)
}

// SetBytes overwrites the named fixed byte run. v must be exactly the field's
// width.
func (n *Node) SetBytes(name string, v []byte) error {
	d, err := n.decl(name, field.Bytes)
	if err != nil {
		return err
	}
	if len(v) != d.Width {
		return base.FieldRangeErrorf("codeplug: block %s field %q holds %d bytes, got %d",
			n.layout.Tag, name, errors.Safe(d.Width), errors.Safe(len(v)))
	}
	return field.WriteFixedBytes(n.payload, d.Offset, v)
}

// Text returns the named text field.
func (n *Node) Text(name string) (string, error) {
	d, err := n.decl(name, field.Text)
	if err != nil {
		return "", err
	}
	return field.ReadText(n.payload, d.Offset, d.Width)
}

// SetText overwrites the named text field.
func (n *Node) SetText(name string, s string) error {
	d, err := n.decl(name, field.Text)
	if err != nil {
		return err
	}
	return field.WriteText(n.payload, d.Offset, d.Width, s)
}

// Uint8 returns the named one byte integer field.
func (n *Node) Uint8(name string) (uint8, error) {
	d, err := n.decl(name, field.Uint8)
	if err != nil {
		return 0, err
	}
	return field.ReadUint8(n.payload, d.Offset)
}

// SetUint8 overwrites the named one byte integer field.
func (n *Node) SetUint8(name string, v int) error {
	d, err := n.decl(name, field.Uint8)
	if err != nil {
		return err
	}
	return field.WriteUint8(n.payload, d.Offset, v)
}

// Uint16 returns the named big-endian 16-bit integer field.
func (n *Node) Uint16(name string) (uint16, error) {
	d, err := n.decl(name, field.Uint16)
	if err != nil {
		return 0, err
	}
	return field.ReadUint16(n.payload, d.Offset)
}

// SetUint16 overwrites the named big-endian 16-bit integer field.
func (n *Node) SetUint16(name string, v int) error {
	d, err := n.decl(name, field.Uint16)
	if err != nil {
		return err
	}
	return field.WriteUint16(n.payload, d.Offset, v)
}

// Timestamp returns the named BCD timestamp field.
func (n *Node) Timestamp(name string) (field.Stamp, error) {
	d, err := n.decl(name, field.Timestamp)
	if err != nil {
		return field.Stamp{}, err
	}
	return field.ReadTimestamp(n.payload, d.Offset)
}

// SetTimestamp overwrites the named BCD timestamp field.
func (n *Node) SetTimestamp(name string, s field.Stamp) error {
	d, err := n.decl(name, field.Timestamp)
	if err != nil {
		return err
	}
	return field.WriteTimestamp(n.payload, d.Offset, s)
}

// FormatField returns a human readable rendition of the named field's value.
func (n *Node) FormatField(name string) (string, error) {
	d, ok := n.layout.Field(name)
	if !ok {
		return "", errors.Newf("codeplug: block %s has no field %q", n.layout.Tag, name)
	}
	switch d.Codec {
	case field.Text:
		s, err := n.Text(name)
		return fmt.Sprintf("%q", s), err
	case field.Uint8:
		v, err := n.Uint8(name)
		return fmt.Sprintf("0x%02X", v), err
	case field.Uint16:
		v, err := n.Uint16(name)
		return fmt.Sprintf("0x%04X", v), err
	case field.Timestamp:
		s, err := n.Timestamp(name)
		return s.String(), err
	default:
		b, err := n.Bytes(name)
		return formatHex(b), err
	}
}

func formatHex(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}
