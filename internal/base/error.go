// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package base

import "github.com/cockroachdb/errors"

// ErrOutOfBounds is a marker to indicate that an access would cross the extent
// of a payload or codeplug image. Any error marked with ErrOutOfBounds satisfies
// errors.Is(err, ErrOutOfBounds).
var ErrOutOfBounds = errors.New("codeplug: out of bounds access")

// ErrMalformedRecord is a marker to indicate that a record within a codeplug
// image is structurally invalid: a zero length header, a dangling vector or a
// type-tag that does not match the tag the parent's layout expects.
var ErrMalformedRecord = errors.New("codeplug: malformed record")

// ErrFieldRange is a marker to indicate that a value cannot be represented by
// the field (or header) it is destined for. Setters return it before touching
// any payload bytes.
var ErrFieldRange = errors.New("codeplug: field value out of range")

// OutOfBoundsErrorf formats according to a format specifier and returns
// the string as an error value that is marked as an out of bounds error.
func OutOfBoundsErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrOutOfBounds)
}

// MalformedRecordErrorf formats according to a format specifier and returns
// the string as an error value that is marked as a malformed record error.
func MalformedRecordErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrMalformedRecord)
}

// FieldRangeErrorf formats according to a format specifier and returns
// the string as an error value that is marked as a field range error.
func FieldRangeErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrFieldRange)
}

// CheckBounds returns an out of bounds error if the n bytes starting at off do
// not lie within a region of the given length.
func CheckBounds(what string, length, off, n int) error {
	if off < 0 || n < 0 || off > length || n > length-off {
		return OutOfBoundsErrorf("codeplug: %s access [%d,%d) exceeds extent %d",
			errors.Safe(what), errors.Safe(off), errors.Safe(off+n), errors.Safe(length))
	}
	return nil
}
