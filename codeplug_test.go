// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package codeplug

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/block"
	"github.com/jedicomlink/codeplug/catalog"
	"github.com/jedicomlink/codeplug/field"
	"github.com/stretchr/testify/require"
)

// testImage builds an internal radio image:
//
//	0000 01 Internal Radio     -> 30 at 003C, 02 at 0096
//	003C 30 External Radio     -> 55 at 008C
//	008C 55 Personality Vector -> 56 at 0092
//	0092 56
//	0096 02
func testImage() []byte {
	image := make([]byte, 0x99)

	root := image[0x00:0x3C]
	root[0], root[1] = 0x3B, 0x01
	p := root[2:]
	copy(p[0x02:], "H01KDC9PW7")
	copy(p[0x0C:], "H01UCF9PW7BN")
	p[0x00], p[0x01] = 0x00, 0x3C
	p[0x24], p[0x25] = 0x00, 0x96
	for i := 0; i < 10; i++ {
		p[0x30+i] = byte(0xA0 + i)
	}

	ext := image[0x3C:0x8C]
	ext[0], ext[1] = 0x4F, 0x30
	p = ext[2:]
	p[0x00], p[0x01] = 0x12, 0x34
	copy(p[0x02:], "H01KDC9PW7")
	copy(p[0x0C:], "H01UCF9PW7BN")
	copy(p[0x1C:], []byte{0x11, 0x02, 0x24, 0x14, 0x00})
	p[0x24], p[0x25] = 0x04, 0x00
	p[0x2C], p[0x2D] = 0x00, 0x8C

	copy(image[0x8C:], []byte{0x00, 0x04, 0x55, 0x11, 0x00, 0x92})
	copy(image[0x92:], []byte{0x03, 0x56, 0xAB, 0xCD})
	copy(image[0x96:], []byte{0x02, 0x02, 0x01})
	return image
}

type testLogger struct {
	lines []string
}

func (l *testLogger) Infof(format string, args ...interface{}) {
	l.lines = append(l.lines, "info: "+fmt.Sprintf(format, args...))
}

func (l *testLogger) Errorf(format string, args ...interface{}) {
	l.lines = append(l.lines, "error: "+fmt.Sprintf(format, args...))
}

func (l *testLogger) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func TestRoundTrip(t *testing.T) {
	image := testImage()
	logger := &testLogger{}
	c, err := Load(bytes.NewReader(image), &Options{Logger: logger})
	require.NoError(t, err)
	require.Equal(t, xxhash.Sum64(image), c.Fingerprint())

	out, err := c.Save()
	require.NoError(t, err)
	require.Equal(t, image, out)
	require.Equal(t, image, c.Image())
	require.NoError(t, c.Tree().CheckConsistency(out))
	require.Equal(t, []string{
		"info: codeplug: decoded 5 blocks from 153 byte image",
		"info: codeplug: rendered 5 blocks into 153 byte image",
	}, logger.lines)

	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(len(image)), n)
	require.Equal(t, image, buf.Bytes())
}

func TestNodes(t *testing.T) {
	c, err := Parse(testImage(), &Options{Logger: NoopLogger})
	require.NoError(t, err)

	var tags []TypeTag
	for n := range c.AllNodes() {
		tags = append(tags, n.Tag())
	}
	require.Equal(t, []TypeTag{
		catalog.InternalRadio, catalog.ExternalRadio, catalog.PersonalityVector, catalog.Block56, catalog.Block02,
	}, tags)

	ext, ok := c.FindNode(catalog.ExternalRadio)
	require.True(t, ok)
	require.Equal(t, Address(0x3C), ext.Start())
	require.Equal(t, c.Roots()[0], ext.Parent())
	size, err := ext.Uint16(catalog.FieldExternalCodeplugLen)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0400), size)
	ts, err := ext.Timestamp(catalog.FieldTimestamp)
	require.NoError(t, err)
	require.Equal(t, field.Stamp{Year: 2011, Month: 2, Day: 24, Hour: 14}, ts)

	_, ok = c.FindNode(catalog.Block10)
	require.False(t, ok)
	_, ok = ext.Find(catalog.Block02)
	require.False(t, ok)
	b56, ok := ext.Find(catalog.Block56)
	require.True(t, ok)
	require.Equal(t, 3, b56.Depth())

	require.Contains(t, c.String(), "  Block 30 Length 78 Starting At 003C    External Radio\n")
	require.Contains(t, c.Layout(), "block 30: External Radio (depth 1)")
}

func TestEditAndRelocate(t *testing.T) {
	image := testImage()
	c, err := Parse(image, &Options{Logger: NoopLogger})
	require.NoError(t, err)
	// The codeplug holds its own copy.
	image[0x40] = 'X'

	ext, _ := c.FindNode(catalog.ExternalRadio)
	require.NoError(t, ext.SetText(catalog.FieldSerial, "H01KDC9PX0"))
	b56, _ := c.FindNode(catalog.Block56)
	require.NoError(t, b56.Resize(10))

	out, err := c.Save()
	require.NoError(t, err)
	require.Len(t, out, 0x99+8)
	require.NoError(t, c.Tree().CheckConsistency(out))

	b02, _ := c.FindNode(catalog.Block02)
	require.Equal(t, Address(0x9E), b02.Start())
	require.Equal(t, []byte{0x00, 0x9E}, out[2+0x24:2+0x26])

	reloaded, err := Parse(out, &Options{Logger: NoopLogger})
	require.NoError(t, err)
	ext, _ = reloaded.FindNode(catalog.ExternalRadio)
	serial, err := ext.Text(catalog.FieldSerial)
	require.NoError(t, err)
	require.Equal(t, "H01KDC9PX0", serial)
	require.Equal(t, c.Fingerprint(), reloaded.Fingerprint())
}

func TestLayoutAfterResize(t *testing.T) {
	c, err := Parse(testImage(), &Options{Logger: NoopLogger})
	require.NoError(t, err)
	b02, _ := c.FindNode(catalog.Block02)
	require.NoError(t, b02.Resize(100))

	layout := c.Layout()
	require.Contains(t, layout, "block 02: Block 02 resized to 100 bytes since last render")
	require.Contains(t, layout, "0096-0099: x 020201")
	require.Contains(t, layout, "block 30: External Radio (depth 1)")

	_, err = c.Save()
	require.NoError(t, err)
	layout = c.Layout()
	require.NotContains(t, layout, "since last render")
	require.Contains(t, layout, "block 02: Block 02 (depth 1)")
}

func TestSaveFailure(t *testing.T) {
	logger := &testLogger{}
	c, err := Parse(testImage(), &Options{Logger: logger})
	require.NoError(t, err)
	before := c.Image()

	pv, _ := c.FindNode(catalog.PersonalityVector)
	require.NoError(t, pv.Resize(block.Long.MaxPayload()))
	_, err = c.Save()
	require.True(t, errors.Is(err, ErrFieldRange), "%v", err)
	require.Equal(t, before, c.Image())
	require.True(t, strings.HasPrefix(logger.lines[len(logger.lines)-1], "error: codeplug: rendering"))
}

func TestMalformedImage(t *testing.T) {
	image := testImage()
	logger := &testLogger{}
	_, err := Parse(image[:len(image)-1], &Options{Logger: logger})
	require.True(t, errors.Is(err, ErrOutOfBounds), "%v", err)
	require.Len(t, logger.lines, 1)
	require.True(t, strings.HasPrefix(logger.lines[0], "error: "))

	image[0x3D] = 0x31
	_, err = Parse(image, &Options{Logger: NoopLogger})
	require.True(t, errors.Is(err, ErrMalformedRecord), "%v", err)
	_, err = Parse(image, &Options{Logger: NoopLogger, TagCheck: block.TagCheckNone})
	require.NoError(t, err)
}

func TestMultipleRoots(t *testing.T) {
	image := append(testImage(), bytes.Repeat([]byte{0xEE}, 0x100-0x99)...)
	image = append(image, 0x00, 0x05, 0x8F, 0x02, 0x01, 'A', 'B')
	opts := &Options{
		Logger: NoopLogger,
		Roots:  []block.Root{catalog.DefaultRoot, {Address: 0x100, Tag: catalog.StatusList}},
	}
	c, err := Parse(image, opts)
	require.NoError(t, err)
	require.Len(t, c.Roots(), 2)
	entries, err := catalog.StatusEntries(c.Roots()[1])
	require.NoError(t, err)
	require.Equal(t, []string{"AB"}, entries)

	out, err := c.Save()
	require.NoError(t, err)
	require.Equal(t, image, out)

	// Shrinking the first tree leaves a gap carried over from the previous
	// image.
	b56, _ := c.FindNode(catalog.Block56)
	require.NoError(t, b56.Resize(0))
	out, err = c.Save()
	require.NoError(t, err)
	require.Len(t, out, len(image))
	require.Equal(t, image[0x97:], out[0x97:])
}
