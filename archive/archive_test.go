// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func testImage() []byte {
	image := make([]byte, 2048)
	for i := 0; i < len(image); i += 7 {
		image[i] = byte(i)
	}
	copy(image[0x10:], "H01KDC9PW7")
	return image
}

func TestRoundTrip(t *testing.T) {
	image := testImage()
	for _, a := range []Algorithm{NoCompression, Snappy, Zstd} {
		t.Run(a.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, image, WriteOptions{Compression: a}))
			if a != NoCompression {
				require.Less(t, buf.Len(), len(image))
			} else {
				require.Equal(t, HeaderLen+len(image), buf.Len())
			}

			h, err := ReadHeader(buf.Bytes())
			require.NoError(t, err)
			require.Equal(t, Header{Version: 1, Compression: a, Length: len(image), Checksum: xxhash.Sum64(image)}, h)

			got, h2, err := Read(&buf)
			require.NoError(t, err)
			require.Equal(t, h, h2)
			require.Equal(t, image, got)
		})
	}
}

func TestCorrupt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testImage(), WriteOptions{Compression: Snappy}))
	archive := buf.Bytes()

	for i, mutate := range []func(b []byte) []byte{
		func(b []byte) []byte { return b[:HeaderLen-1] },
		func(b []byte) []byte { b[0] = 'X'; return b },
		func(b []byte) []byte { b[4] = 2; return b },
		func(b []byte) []byte { b[5] = 9; return b },
		func(b []byte) []byte { b[9]++; return b },
		func(b []byte) []byte { b[17] ^= 0xFF; return b },
		func(b []byte) []byte { return b[:len(b)-3] },
	} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, _, err := Read(bytes.NewReader(mutate(bytes.Clone(archive))))
			require.True(t, errors.Is(err, ErrCorruptArchive), "%v", err)
		})
	}
}

func TestCorruptLengthPrefix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testImage(), WriteOptions{Compression: Zstd}))
	header := buf.Bytes()[:HeaderLen]

	for _, body := range [][]byte{
		append(bytes.Repeat([]byte{0xFF}, 9), 0x01),
		binary.AppendUvarint(nil, 1<<40),
		binary.AppendUvarint(nil, uint64(len(testImage())+1)),
	} {
		archive := append(bytes.Clone(header), body...)
		_, _, err := Read(bytes.NewReader(archive))
		require.True(t, errors.Is(err, ErrCorruptArchive), "%v", err)
	}
}

func TestWriteInvalid(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, Write(&buf, testImage(), WriteOptions{Compression: Algorithm(7)}))
	require.Zero(t, buf.Len())

	a, err := ParseAlgorithm("zstd")
	require.NoError(t, err)
	require.Equal(t, Zstd, a)
}
