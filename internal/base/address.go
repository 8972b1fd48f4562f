// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package base

import (
	"fmt"

	"github.com/cockroachdb/redact"
)

// Address is an absolute byte offset within a codeplug image. Vectors store
// addresses as two big-endian bytes, so every address that can be referenced by
// a vector is at most MaxAddress.
type Address int

// MaxAddress is the largest address a vector can hold.
const MaxAddress Address = 0xFFFF

// String implements fmt.Stringer.
func (a Address) String() string {
	return fmt.Sprintf("%04X", int(a))
}

// SafeFormat implements redact.SafeFormatter.
func (a Address) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(a.String()))
}

// TypeTag is the one byte identifier selecting a block's layout.
type TypeTag uint8

// String implements fmt.Stringer.
func (t TypeTag) String() string {
	return fmt.Sprintf("%02X", uint8(t))
}

// SafeFormat implements redact.SafeFormatter.
func (t TypeTag) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(t.String()))
}
