// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package field

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestDigits(t *testing.T) {
	require.Equal(t, 24, Digits(0x24))
	require.Equal(t, 0, Digits(0x00))
	require.Equal(t, 99, Digits(0x99))

	for v := 0; v <= 99; v++ {
		b, err := EncodeDigits(v)
		require.NoError(t, err)
		require.Equal(t, v, Digits(b))
	}
	_, err := EncodeDigits(100)
	require.True(t, errors.Is(err, ErrFieldRange))
	_, err = EncodeDigits(-1)
	require.True(t, errors.Is(err, ErrFieldRange))
}

func TestTimestamp(t *testing.T) {
	payload := []byte{0xFF, 0x11, 0x02, 0x24, 0x14, 0x00}
	s, err := ReadTimestamp(payload, 1)
	require.NoError(t, err)
	require.Equal(t, Stamp{Year: 2011, Month: 2, Day: 24, Hour: 14, Minute: 0}, s)
	require.Equal(t, time.Date(2011, time.February, 24, 14, 0, 0, 0, time.UTC), s.Time())
	require.Equal(t, "2011-02-24 14:00", s.String())

	buf := make([]byte, 6)
	require.NoError(t, WriteTimestamp(buf, 1, s))
	require.Equal(t, payload[1:], buf[1:])

	// No calendar validation: month 13 round trips.
	odd := Stamp{Year: 2099, Month: 13, Day: 0, Hour: 99, Minute: 99}
	require.NoError(t, WriteTimestamp(buf, 0, odd))
	got, err := ReadTimestamp(buf, 0)
	require.NoError(t, err)
	require.Equal(t, odd, got)

	before := append([]byte(nil), buf...)
	err = WriteTimestamp(buf, 0, Stamp{Year: 2100, Month: 1, Day: 1})
	require.True(t, errors.Is(err, ErrFieldRange))
	require.Equal(t, before, buf)

	_, err = ReadTimestamp(payload, 2)
	require.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestText(t *testing.T) {
	payload := []byte{0x48, 0x30, 0x31, 0x4B, 0x00, 0x44, 0x44, 0x39, 0x50, 0x57}
	s, err := ReadText(payload, 0, 10)
	require.NoError(t, err)
	require.Equal(t, "H01K", s)

	s, err = ReadText(payload, 4, 6)
	require.NoError(t, err)
	require.Equal(t, "", s)

	s, err = ReadText(payload, 5, 3)
	require.NoError(t, err)
	require.Equal(t, "DD9", s)

	_, err = ReadText(payload, 5, 6)
	require.True(t, errors.Is(err, ErrOutOfBounds))

	buf := []byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}
	require.NoError(t, WriteText(buf, 1, 4, "AB"))
	require.Equal(t, []byte{0xAA, 'A', 'B', 0x00, 0x00, 0xAA}, buf)

	// A full field has no terminator.
	require.NoError(t, WriteText(buf, 1, 4, "WXYZ"))
	s, err = ReadText(buf, 1, 4)
	require.NoError(t, err)
	require.Equal(t, "WXYZ", s)

	before := append([]byte(nil), buf...)
	err = WriteText(buf, 1, 4, "TOOLONG")
	require.True(t, errors.Is(err, ErrFieldRange))
	err = WriteText(buf, 1, 4, "€")
	require.True(t, errors.Is(err, ErrFieldRange))
	require.Equal(t, before, buf)

	// Latin-1 characters are single bytes.
	require.NoError(t, WriteText(buf, 1, 4, "é"))
	require.Equal(t, byte(0xE9), buf[1])
}

func TestUint16(t *testing.T) {
	payload := []byte{0x00, 0x09, 0xAB}
	v, err := ReadUint16(payload, 1)
	require.NoError(t, err)
	require.Equal(t, uint16(0x09AB), v)

	_, err = ReadUint16(payload, 2)
	require.True(t, errors.Is(err, ErrOutOfBounds))

	require.NoError(t, WriteUint16(payload, 0, 0x1234))
	require.Equal(t, []byte{0x12, 0x34, 0xAB}, payload)

	for _, bad := range []int{0x10000, -1} {
		err = WriteUint16(payload, 0, bad)
		require.True(t, errors.Is(err, ErrFieldRange), "%d", bad)
		require.Equal(t, []byte{0x12, 0x34, 0xAB}, payload)
	}
	err = WriteUint16(payload, 2, 1)
	require.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestUint8(t *testing.T) {
	payload := []byte{0x07}
	v, err := ReadUint8(payload, 0)
	require.NoError(t, err)
	require.Equal(t, uint8(7), v)
	require.True(t, errors.Is(WriteUint8(payload, 0, 0x100), ErrFieldRange))
	require.True(t, errors.Is(WriteUint8(payload, 1, 1), ErrOutOfBounds))
	require.NoError(t, WriteUint8(payload, 0, 0xFF))
	require.Equal(t, []byte{0xFF}, payload)
}

func TestFixedBytes(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	b, err := ReadFixedBytes(payload, 1, 2)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3}, b)

	// The result is a copy.
	b[0] = 9
	require.Equal(t, byte(2), payload[1])

	_, err = ReadFixedBytes(payload, 3, 2)
	require.True(t, errors.Is(err, ErrOutOfBounds))
	_, err = ReadFixedBytes(payload, -1, 1)
	require.True(t, errors.Is(err, ErrOutOfBounds))

	require.NoError(t, WriteFixedBytes(payload, 2, []byte{7, 8}))
	require.Equal(t, []byte{1, 2, 7, 8}, payload)
	require.True(t, errors.Is(WriteFixedBytes(payload, 3, []byte{7, 8}), ErrOutOfBounds))
}

func TestCodecWidth(t *testing.T) {
	require.Equal(t, 2, Uint16.FixedWidth())
	require.Equal(t, 5, Timestamp.FixedWidth())
	require.Equal(t, 0, Text.FixedWidth())
	require.Equal(t, "timestamp", Timestamp.String())
}
