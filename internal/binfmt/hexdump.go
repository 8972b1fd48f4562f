// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package binfmt

import (
	"fmt"
	"io"
)

// FHexDump writes a hex dump of the data to w, width bytes per line. Bytes are
// grouped in fours and each line ends with the printable characters of the
// line.
func FHexDump(w io.Writer, data []byte, width int, includeOffsets bool) {
	for i := 0; i < len(data); i += width {
		if includeOffsets {
			fmt.Fprintf(w, "%04X:", i)
		}
		for j := 0; j < width; j++ {
			if j%4 == 0 {
				fmt.Fprint(w, " ")
			}
			if i+j >= len(data) {
				fmt.Fprint(w, "   ")
			} else {
				fmt.Fprintf(w, " %02X", data[i+j])
			}
		}
		fmt.Fprint(w, "  |")
		for j := 0; j < width && i+j < len(data); j++ {
			if data[i+j] < 32 || data[i+j] > 126 {
				fmt.Fprint(w, ".")
			} else {
				fmt.Fprintf(w, "%c", data[i+j])
			}
		}
		fmt.Fprintln(w, "|")
	}
}
