// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package compression

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

// zstdLevel is the zstd compression level used for archives.
const zstdLevel = 3

type zstdCompressor zstd.Encoder

var _ Compressor = (*zstdCompressor)(nil)

func getZstdCompressor() *zstdCompressor {
	e, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(zstdLevel)))
	if err != nil {
		panic(errors.AssertionFailedf("creating zstd encoder: %v", err))
	}
	return (*zstdCompressor)(e)
}

// Compress prefixes the compressed payload with a varint holding the
// decompressed length.
func (z *zstdCompressor) Compress(compressedBuf, b []byte) []byte {
	compressedBuf = compressedBuf[:0]
	compressedBuf = binary.AppendUvarint(compressedBuf, uint64(len(b)))
	return (*zstd.Encoder)(z).EncodeAll(b, compressedBuf)
}

func (z *zstdCompressor) Close() {
	if err := (*zstd.Encoder)(z).Close(); err != nil {
		panic(err)
	}
}

type zstdDecompressor struct{}

var _ Decompressor = zstdDecompressor{}

func (zstdDecompressor) DecompressInto(dst, src []byte) error {
	_, prefixLen := binary.Uvarint(src)
	src = src[prefixLen:]
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer decoder.Close()
	result, err := decoder.DecodeAll(src, dst[:0])
	if err != nil {
		return err
	}
	if len(result) != len(dst) || (len(result) > 0 && &result[0] != &dst[0]) {
		return errors.Newf("codeplug: decompressed into unexpected buffer: %d != %d bytes",
			errors.Safe(len(result)), errors.Safe(len(dst)))
	}
	return nil
}

func (zstdDecompressor) DecompressedLen(b []byte) (decompressedLen int, err error) {
	decodedLenU64, varIntLen := binary.Uvarint(b)
	if varIntLen <= 0 || decodedLenU64 > math.MaxInt {
		return 0, errors.New("codeplug: compressed block has invalid length")
	}
	return int(decodedLenU64), nil
}

func (zstdDecompressor) Close() {}
