// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package compression

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/cockroachdb/crlib/testutils/leaktest"
	"github.com/stretchr/testify/require"
)

func TestCompressionRoundtrip(t *testing.T) {
	defer leaktest.AfterTest(t)()

	seed := uint64(time.Now().UnixNano())
	t.Logf("seed %d", seed)
	rng := rand.New(rand.NewPCG(0, seed))

	for a := Algorithm(0); a < numAlgorithms; a++ {
		t.Run(a.String(), func(t *testing.T) {
			payload := make([]byte, 1+rng.IntN(64<<10 /* 64 KiB */))
			for i := range payload {
				// Mostly zero, like an erased codeplug region.
				if rng.IntN(4) == 0 {
					payload[i] = byte(rng.Uint32())
				}
			}
			compressedBuf := make([]byte, 1+rng.IntN(1<<10 /* 1 KiB */))
			compressor := GetCompressor(a)
			defer compressor.Close()
			compressed := compressor.Compress(compressedBuf, payload)
			got, err := Decompress(a, compressed, len(payload))
			require.NoError(t, err)
			require.Equal(t, payload, got)
		})
	}
}

func TestEmpty(t *testing.T) {
	for a := Algorithm(0); a < numAlgorithms; a++ {
		c := GetCompressor(a)
		compressed := c.Compress(nil, nil)
		c.Close()
		got, err := Decompress(a, compressed, 0)
		require.NoError(t, err)
		require.Empty(t, got)
	}
}

// TestDecompressionError tests that decompressing a value that does not
// decompress returns an error.
func TestDecompressionError(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rng := rand.New(rand.NewPCG(0, 1 /* fixed seed */))

	// A faux zstd block: a plausible length prefix followed by garbage.
	fauxCompressed := binary.AppendUvarint(nil, 1000)
	for i := 0; i < 100; i++ {
		fauxCompressed = append(fauxCompressed, byte(rng.Uint32()))
	}
	_, err := Decompress(Zstd, fauxCompressed, 1000)
	require.Error(t, err)

	_, err = Decompress(Snappy, bytes.Repeat([]byte{0xFF}, 16), 16)
	require.Error(t, err)
}

func TestDecompressedLenMismatch(t *testing.T) {
	for a := Algorithm(0); a < numAlgorithms; a++ {
		c := GetCompressor(a)
		compressed := c.Compress(nil, []byte("codeplug"))
		c.Close()
		_, err := Decompress(a, compressed, 9)
		require.Error(t, err)
	}

	// A length prefix beyond any allocatable size is rejected up front.
	huge := bytes.Repeat([]byte{0xFF}, 9)
	huge = append(huge, 0x01)
	_, err := GetDecompressor(Zstd).DecompressedLen(huge)
	require.Error(t, err)
	_, err = Decompress(Zstd, huge, 8)
	require.Error(t, err)
}

func TestParseAlgorithm(t *testing.T) {
	for a := Algorithm(0); a < numAlgorithms; a++ {
		got, err := ParseAlgorithm(a.String())
		require.NoError(t, err)
		require.Equal(t, a, got)
		require.True(t, a.Valid())
	}
	_, err := ParseAlgorithm("lz4")
	require.Error(t, err)
	require.False(t, numAlgorithms.Valid())
	require.Panics(t, func() { GetCompressor(numAlgorithms) })
}
