// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package compression provides the block compressors used by codeplug
// archives.
package compression

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// Algorithm identifies a compression algorithm. The numeric values are
// persisted in archive headers and must not change.
type Algorithm uint8

const (
	// NoCompression stores the data verbatim.
	NoCompression Algorithm = iota
	// Snappy selects github.com/golang/snappy.
	Snappy
	// Zstd selects the pure Go zstd implementation of
	// github.com/klauspost/compress.
	Zstd

	numAlgorithms
)

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	switch a {
	case NoCompression:
		return "none"
	case Snappy:
		return "snappy"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// SafeFormat implements redact.SafeFormatter.
func (a Algorithm) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(a.String()))
}

// Valid returns true if the algorithm is known.
func (a Algorithm) Valid() bool {
	return a < numAlgorithms
}

// ParseAlgorithm parses the result of Algorithm.String.
func ParseAlgorithm(s string) (Algorithm, error) {
	for a := Algorithm(0); a < numAlgorithms; a++ {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, errors.Newf("unknown compression algorithm %q", s)
}

// Compressor compresses whole buffers.
type Compressor interface {
	// Compress a block, appending the compressed data to dst[:0].
	Compress(dst, src []byte) []byte

	// Close must be called when the Compressor is no longer needed. After
	// Close is called, the Compressor must not be used again.
	Close()
}

// Decompressor decompresses buffers produced by the matching Compressor.
type Decompressor interface {
	// DecompressInto decompresses compressed into buf. The buf slice must
	// have the exact size as the decompressed value.
	DecompressInto(buf, compressed []byte) error

	// DecompressedLen returns the length of the provided block once
	// decompressed.
	DecompressedLen(b []byte) (decompressedLen int, err error)

	// Close must be called when the Decompressor is no longer needed. After
	// Close is called, the Decompressor must not be used again.
	Close()
}

// GetCompressor returns a Compressor for the algorithm.
func GetCompressor(a Algorithm) Compressor {
	switch a {
	case Snappy:
		return snappyCompressor{}
	case Zstd:
		return getZstdCompressor()
	case NoCompression:
		return noopCompressor{}
	default:
		panic(errors.AssertionFailedf("unknown compression algorithm %d", errors.Safe(a)))
	}
}

// GetDecompressor returns a Decompressor for the algorithm.
func GetDecompressor(a Algorithm) Decompressor {
	switch a {
	case Snappy:
		return snappyDecompressor{}
	case Zstd:
		return zstdDecompressor{}
	case NoCompression:
		return noopDecompressor{}
	default:
		panic(errors.AssertionFailedf("unknown compression algorithm %d", errors.Safe(a)))
	}
}

// Decompress decompresses b, which was compressed with a, into a new buffer of
// length n. It returns an error without allocating if b declares a different
// decompressed length.
func Decompress(a Algorithm, b []byte, n int) ([]byte, error) {
	d := GetDecompressor(a)
	defer d.Close()
	decompressedLen, err := d.DecompressedLen(b)
	if err != nil {
		return nil, err
	}
	if decompressedLen != n {
		return nil, errors.Newf("codeplug: compressed block declares %d bytes, expected %d",
			errors.Safe(decompressedLen), errors.Safe(n))
	}
	buf := make([]byte, n)
	if err := d.DecompressInto(buf, b); err != nil {
		return nil, err
	}
	return buf, nil
}
