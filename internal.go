// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package codeplug

import "github.com/jedicomlink/codeplug/internal/base"

// Address exports the base.Address type.
type Address = base.Address

// TypeTag exports the base.TypeTag type.
type TypeTag = base.TypeTag

// Logger exports the base.Logger type.
type Logger = base.Logger

// DefaultLogger logs to the Go stdlib logs.
var DefaultLogger = base.DefaultLogger{}

// NoopLogger discards all log messages.
var NoopLogger = base.NoopLogger{}

// ErrOutOfBounds is a marker to indicate that an access would cross the extent
// of a payload or image. Test for it with errors.Is.
var ErrOutOfBounds = base.ErrOutOfBounds

// ErrMalformedRecord is a marker to indicate that a block is structurally
// invalid.
var ErrMalformedRecord = base.ErrMalformedRecord

// ErrFieldRange is a marker to indicate that a value cannot be represented by
// its destination field or header.
var ErrFieldRange = base.ErrFieldRange
