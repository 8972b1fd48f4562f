// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/internal/base"
)

// Default checksum biases. These have not been confirmed against captured
// images; layouts must opt in explicitly.
const (
	DefaultShortChecksumBias = -0x55
	DefaultLongChecksumBias  = -0x5555
)

// Checksum describes a running byte-sum stored in the trailing bytes of a
// block's payload. The sum covers every payload byte preceding the trailer,
// starts at Bias and is masked to 8 bits for Short blocks or 16 bits for Long
// blocks. A 16-bit sum is stored big-endian.
type Checksum struct {
	Bias int
}

// ChecksumWidth returns the number of trailing payload bytes reserved for the
// checksum, or zero if the layout has none.
func (l *Layout) ChecksumWidth() int {
	if l.Checksum == nil {
		return 0
	}
	return l.Header.LengthWidth()
}

// ComputeChecksum computes the checksum of payload according to the layout.
// The layout must declare a checksum and the payload must be at least the
// layout's minimum extent.
func (l *Layout) ComputeChecksum(payload []byte) uint16 {
	w := l.ChecksumWidth()
	sum := l.Checksum.Bias
	for _, b := range payload[:len(payload)-w] {
		sum += int(b)
	}
	if w == 1 {
		return uint16(sum & 0xFF)
	}
	return uint16(sum & 0xFFFF)
}

// storedChecksum returns the checksum held in the payload's trailer.
func (l *Layout) storedChecksum(payload []byte) uint16 {
	w := l.ChecksumWidth()
	if w == 1 {
		return uint16(payload[len(payload)-1])
	}
	return binary.BigEndian.Uint16(payload[len(payload)-2:])
}

// applyChecksum recomputes the checksum of payload and stores it in the
// trailer.
func (l *Layout) applyChecksum(payload []byte) {
	sum := l.ComputeChecksum(payload)
	if l.ChecksumWidth() == 1 {
		payload[len(payload)-1] = byte(sum)
		return
	}
	binary.BigEndian.PutUint16(payload[len(payload)-2:], sum)
}

// verifyChecksum returns a malformed record error if the stored checksum does
// not match the computed one.
func (l *Layout) verifyChecksum(payload []byte, addr base.Address) error {
	if stored, computed := l.storedChecksum(payload), l.ComputeChecksum(payload); stored != computed {
		return base.MalformedRecordErrorf("codeplug: block %s at %s: checksum mismatch %x != %x",
			l.Tag, addr, errors.Safe(stored), errors.Safe(computed))
	}
	return nil
}
