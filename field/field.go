// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package field implements the stateless codecs used to view and edit the
// payload of a codeplug block: fixed byte runs, bounded null-terminated text,
// big-endian integers and binary-coded-decimal timestamps.
//
// Every read and write is bounds checked against the payload it is given and
// fails with an error marked ErrOutOfBounds rather than truncating. Writes
// validate the value first and fail with an error marked ErrFieldRange without
// modifying the payload.
package field

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/internal/base"
)

// ErrOutOfBounds re-exports base.ErrOutOfBounds.
var ErrOutOfBounds = base.ErrOutOfBounds

// ErrFieldRange re-exports base.ErrFieldRange.
var ErrFieldRange = base.ErrFieldRange

// Codec identifies how the bytes of a field are interpreted.
type Codec uint8

// The available codecs.
const (
	Bytes Codec = iota
	Text
	Uint8
	Uint16
	Timestamp
)

// String implements fmt.Stringer.
func (c Codec) String() string {
	switch c {
	case Bytes:
		return "bytes"
	case Text:
		return "text"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// FixedWidth returns the width in bytes that the codec always occupies, or zero
// if the width is chosen by the field declaration.
func (c Codec) FixedWidth() int {
	switch c {
	case Uint8:
		return 1
	case Uint16:
		return 2
	case Timestamp:
		return TimestampLen
	default:
		return 0
	}
}

// ReadFixedBytes returns a copy of the n bytes of payload starting at off.
func ReadFixedBytes(payload []byte, off, n int) ([]byte, error) {
	if err := base.CheckBounds("bytes", len(payload), off, n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, payload[off:off+n])
	return b, nil
}

// WriteFixedBytes copies v into payload at off. The run must lie entirely
// within the payload.
func WriteFixedBytes(payload []byte, off int, v []byte) error {
	if err := base.CheckBounds("bytes", len(payload), off, len(v)); err != nil {
		return err
	}
	copy(payload[off:], v)
	return nil
}

// ReadText decodes single byte characters starting at off until a zero byte is
// found or maxLen bytes have been consumed, whichever comes first. The zero
// byte is not part of the result.
func ReadText(payload []byte, off, maxLen int) (string, error) {
	if err := base.CheckBounds("text", len(payload), off, maxLen); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, c := range payload[off : off+maxLen] {
		if c == 0x00 {
			break
		}
		sb.WriteRune(rune(c))
	}
	return sb.String(), nil
}

// WriteText encodes s into the maxLen bytes at off, one byte per character,
// zero filling the remainder of the field. A string of exactly maxLen
// characters is stored without a terminator.
func WriteText(payload []byte, off, maxLen int, s string) error {
	if err := base.CheckBounds("text", len(payload), off, maxLen); err != nil {
		return err
	}
	enc := make([]byte, 0, maxLen)
	for _, r := range s {
		if r == 0 || r > 0xFF {
			return base.FieldRangeErrorf("codeplug: character %q is not representable as a single byte", r)
		}
		enc = append(enc, byte(r))
	}
	if len(enc) > maxLen {
		return base.FieldRangeErrorf("codeplug: text of length %d exceeds capacity %d",
			errors.Safe(len(enc)), errors.Safe(maxLen))
	}
	n := copy(payload[off:off+maxLen], enc)
	clear(payload[off+n : off+maxLen])
	return nil
}

// ReadUint8 reads the byte at off.
func ReadUint8(payload []byte, off int) (uint8, error) {
	if err := base.CheckBounds("uint8", len(payload), off, 1); err != nil {
		return 0, err
	}
	return payload[off], nil
}

// WriteUint8 writes v at off. The value must lie within [0, 0xFF].
func WriteUint8(payload []byte, off int, v int) error {
	if err := base.CheckBounds("uint8", len(payload), off, 1); err != nil {
		return err
	}
	if v < 0 || v > 0xFF {
		return base.FieldRangeErrorf("codeplug: value %d out of range 0x00 to 0xFF", errors.Safe(v))
	}
	payload[off] = byte(v)
	return nil
}

// ReadUint16 reads the big-endian 16-bit integer at off.
func ReadUint16(payload []byte, off int) (uint16, error) {
	if err := base.CheckBounds("uint16", len(payload), off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(payload[off:]), nil
}

// WriteUint16 writes v at off in big-endian order. The value must lie within
// [0, 0xFFFF].
func WriteUint16(payload []byte, off int, v int) error {
	if err := base.CheckBounds("uint16", len(payload), off, 2); err != nil {
		return err
	}
	if v < 0 || v > 0xFFFF {
		return base.FieldRangeErrorf("codeplug: value %d out of range 0x0000 to 0xFFFF", errors.Safe(v))
	}
	binary.BigEndian.PutUint16(payload[off:], uint16(v))
	return nil
}

// Digits decodes a binary-coded-decimal pair. The high nibble is the tens digit
// and the low nibble the units digit; 0x24 decodes to 24. Nibbles above 9 are
// not rejected.
func Digits(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

// EncodeDigits encodes v in [0, 99] as a binary-coded-decimal pair.
func EncodeDigits(v int) (byte, error) {
	if v < 0 || v > 99 {
		return 0, base.FieldRangeErrorf("codeplug: value %d is not representable as two BCD digits", errors.Safe(v))
	}
	return byte(v/10)<<4 | byte(v%10), nil
}

// TimestampLen is the encoded width of a timestamp field.
const TimestampLen = 5

// Stamp is a decoded timestamp field. Seconds are always zero. The codec
// performs no calendar validation, so a Stamp may hold values such as month 0
// that do not form a valid date.
type Stamp struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
}

// Time converts the stamp to a UTC time. Out of range components are
// normalized by time.Date.
func (s Stamp) Time() time.Time {
	return time.Date(s.Year, time.Month(s.Month), s.Day, s.Hour, s.Minute, 0, 0, time.UTC)
}

// String implements fmt.Stringer.
func (s Stamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", s.Year, s.Month, s.Day, s.Hour, s.Minute)
}

// StampFromTime returns the stamp for t, discarding seconds.
func StampFromTime(t time.Time) Stamp {
	return Stamp{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour(), Minute: t.Minute()}
}

// ReadTimestamp decodes the five BCD pairs at off as {year-2000, month, day,
// hour, minute}.
func ReadTimestamp(payload []byte, off int) (Stamp, error) {
	if err := base.CheckBounds("timestamp", len(payload), off, TimestampLen); err != nil {
		return Stamp{}, err
	}
	b := payload[off : off+TimestampLen]
	return Stamp{
		Year:   2000 + Digits(b[0]),
		Month:  Digits(b[1]),
		Day:    Digits(b[2]),
		Hour:   Digits(b[3]),
		Minute: Digits(b[4]),
	}, nil
}

// WriteTimestamp encodes s at off. The year must lie within [2000, 2099] and
// every other component within [0, 99].
func WriteTimestamp(payload []byte, off int, s Stamp) error {
	if err := base.CheckBounds("timestamp", len(payload), off, TimestampLen); err != nil {
		return err
	}
	var enc [TimestampLen]byte
	for i, v := range [TimestampLen]int{s.Year - 2000, s.Month, s.Day, s.Hour, s.Minute} {
		d, err := EncodeDigits(v)
		if err != nil {
			return errors.Wrapf(err, "timestamp %s", s)
		}
		enc[i] = d
	}
	copy(payload[off:], enc[:])
	return nil
}
