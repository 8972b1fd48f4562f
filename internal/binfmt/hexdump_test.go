// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package binfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexDump(t *testing.T) {
	data := []byte{'A', 'B', 0x00, 0x01, 'C', 'D'}
	expected := "0000:  41 42 00 01  |AB..|\n" +
		"0004:  43 44" + strings.Repeat(" ", 8) + "|CD|\n"
	var buf bytes.Buffer
	FHexDump(&buf, data, 4, true)
	require.Equal(t, expected, buf.String())

	buf.Reset()
	FHexDump(&buf, data[:2], 2, false)
	require.Equal(t, "  41 42  |AB|\n", buf.String())
}

func TestFormatter(t *testing.T) {
	f := New([]byte{0x09, 0x01, 0x41, 0x42, 0x00, 0x0E})
	f.HexBytesln(1, "length")
	f.Line(1).Append("x ").HexBytes(1).Done("tag")
	f.HexTextln(2)
	f.CommentLine("vectors")
	f.Uint16ln("child")
	require.False(t, f.More())
	require.Equal(t, 6, f.Offset())

	expected := "0000-0001: x 09   # length\n" +
		"0001-0002: x 01   # tag\n" +
		"0002-0004: x 4142 # AB\n" +
		"# vectors\n" +
		"0004-0006: x 000E # 000E: child\n"
	require.Equal(t, expected, f.String())
	require.Equal(t, "0000-0001: x 09   # length", f.Lines()[0])
	require.Len(t, f.Lines(), 5)
	require.Empty(t, New(nil).Lines())
}

func TestFormatterContinued(t *testing.T) {
	f := New(make([]byte, 5)).LineWidth(4)
	f.HexBytesln(5, "zeros")
	expected := "0000-0002: x 0000 # zeros\n" +
		"0002-0004: x 0000 # (continued...)\n" +
		"0004-0005: x 00   # (continued...)\n"
	require.Equal(t, expected, f.String())
}
