// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package archive implements a compressed, checksummed container for whole
// codeplug images, used to keep a backup of an image read from a radio before
// a modified image is written back.
//
// An archive is a fixed size header followed by the compressed image:
//
//	+-------+---------+-----------+--------------+--------------+------+
//	| magic | version | algorithm | image length | xxhash64     | body |
//	| CPLG  | 1 byte  | 1 byte    | 4 bytes (BE) | 8 bytes (BE) |      |
//	+-------+---------+-----------+--------------+--------------+------+
//
// The checksum covers the uncompressed image.
package archive

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/internal/compression"
)

// Algorithm exports the compression.Algorithm type.
type Algorithm = compression.Algorithm

// Compression algorithms.
const (
	NoCompression = compression.NoCompression
	Snappy        = compression.Snappy
	Zstd          = compression.Zstd
)

// ParseAlgorithm parses the name of a compression algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	return compression.ParseAlgorithm(s)
}

const (
	magic = "CPLG"
	// Version is the archive format version written by Write.
	Version = 1
	// HeaderLen is the length of the archive header.
	HeaderLen = len(magic) + 1 + 1 + 4 + 8
	// MaxImageLen bounds the length of an archived image.
	MaxImageLen = 1 << 24
)

// ErrCorruptArchive is a marker to indicate that an archive is truncated,
// carries an unknown version or algorithm, or does not match its checksum.
var ErrCorruptArchive = errors.New("codeplug: corrupt archive")

func corruptErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruptArchive)
}

// Header is the decoded archive header.
type Header struct {
	Version     uint8
	Compression Algorithm
	Length      int
	Checksum    uint64
}

// WriteOptions configure Write.
type WriteOptions struct {
	Compression Algorithm
}

// Write writes an archive holding image to w.
func Write(w io.Writer, image []byte, opts WriteOptions) error {
	if !opts.Compression.Valid() {
		return errors.Newf("codeplug: unknown compression algorithm %d", errors.Safe(uint8(opts.Compression)))
	}
	if len(image) > MaxImageLen {
		return errors.Newf("codeplug: image of %d bytes exceeds archive limit", errors.Safe(len(image)))
	}
	buf := make([]byte, HeaderLen)
	copy(buf, magic)
	buf[4] = Version
	buf[5] = byte(opts.Compression)
	binary.BigEndian.PutUint32(buf[6:], uint32(len(image)))
	binary.BigEndian.PutUint64(buf[10:], xxhash.Sum64(image))

	c := compression.GetCompressor(opts.Compression)
	defer c.Close()
	buf = append(buf, c.Compress(nil, image)...)
	_, err := w.Write(buf)
	return err
}

// Read reads an archive from r and returns the image it holds. The image's
// length and checksum are verified.
func Read(r io.Reader) ([]byte, Header, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Header{}, errors.Wrap(err, "codeplug: reading archive")
	}
	h, err := decodeHeader(data)
	if err != nil {
		return nil, Header{}, err
	}
	image, err := compression.Decompress(h.Compression, data[HeaderLen:], h.Length)
	if err != nil {
		return nil, Header{}, errors.Mark(errors.Wrapf(err, "codeplug: decompressing %s archive", h.Compression),
			ErrCorruptArchive)
	}
	if len(image) != h.Length {
		return nil, Header{}, corruptErrorf("codeplug: archive holds %d bytes, header declares %d",
			errors.Safe(len(image)), errors.Safe(h.Length))
	}
	if sum := xxhash.Sum64(image); sum != h.Checksum {
		return nil, Header{}, corruptErrorf("codeplug: archive checksum mismatch: %016x != %016x",
			errors.Safe(sum), errors.Safe(h.Checksum))
	}
	return image, h, nil
}

// ReadHeader decodes the header at the start of data without decompressing
// the body.
func ReadHeader(data []byte) (Header, error) {
	return decodeHeader(data)
}

func decodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderLen {
		return Header{}, corruptErrorf("codeplug: archive of %d bytes is shorter than its header",
			errors.Safe(len(data)))
	}
	if !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return Header{}, corruptErrorf("codeplug: not an archive")
	}
	h := Header{
		Version:     data[4],
		Compression: Algorithm(data[5]),
		Length:      int(binary.BigEndian.Uint32(data[6:])),
		Checksum:    binary.BigEndian.Uint64(data[10:]),
	}
	if h.Version != Version {
		return Header{}, corruptErrorf("codeplug: unsupported archive version %d", errors.Safe(h.Version))
	}
	if !h.Compression.Valid() {
		return Header{}, corruptErrorf("codeplug: unknown compression algorithm %d", errors.Safe(uint8(h.Compression)))
	}
	if h.Length > MaxImageLen {
		return Header{}, corruptErrorf("codeplug: archive declares %d bytes", errors.Safe(h.Length))
	}
	return h, nil
}
