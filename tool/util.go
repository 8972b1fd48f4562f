// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tool

import (
	"encoding/hex"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug"
	"github.com/jedicomlink/codeplug/block"
	"github.com/jedicomlink/codeplug/field"
	"github.com/spf13/cobra"
)

var stdout = io.Writer(os.Stdout)
var stderr = io.Writer(os.Stderr)

// stampLayout is the time layout accepted for timestamp fields.
const stampLayout = "2006-01-02 15:04"

// optionsFlags holds the flags shared by every command decoding an image.
type optionsFlags struct {
	base            *codeplug.Options
	optionsPath     string
	tagCheck        string
	verifyChecksums bool
	checksums       bool
}

func (f *optionsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&f.optionsPath, "options", "", "path to an options file")
	cmd.Flags().StringVar(
		&f.tagCheck, "tag-check", "", "header tag check: none, nonzero or strict")
	cmd.Flags().BoolVar(
		&f.verifyChecksums, "verify-checksums", false, "verify block checksums while decoding")
	cmd.Flags().BoolVar(
		&f.checksums, "checksums", false, "apply block checksums while rendering")
}

// options returns the options for decoding: the tool's base options, then the
// options file, then individual flags.
func (f *optionsFlags) options() (*codeplug.Options, error) {
	opts := f.base.Clone()
	if f.optionsPath != "" {
		data, err := os.ReadFile(f.optionsPath)
		if err != nil {
			return nil, err
		}
		if err := opts.Parse(string(data), nil); err != nil {
			return nil, errors.Wrapf(err, "%s", f.optionsPath)
		}
	}
	if f.tagCheck != "" {
		tc, err := block.ParseTagCheck(f.tagCheck)
		if err != nil {
			return nil, err
		}
		opts.TagCheck = tc
	}
	if f.verifyChecksums {
		opts.VerifyChecksums = true
	}
	if f.checksums {
		opts.Checksums = true
	}
	return opts, nil
}

func (f *optionsFlags) load(path string) (*codeplug.Codeplug, error) {
	opts, err := f.options()
	if err != nil {
		return nil, err
	}
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return codeplug.Parse(image, opts)
}

func parseTag(s string) (codeplug.TypeTag, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 8)
	if err != nil {
		return 0, errors.Newf("invalid block tag %q", s)
	}
	return codeplug.TypeTag(v), nil
}

// setField parses value according to the codec of the named field and stores
// it in n.
func setField(n *block.Node, name, value string) error {
	d, ok := n.Layout().Field(name)
	if !ok {
		return errors.Newf("block %s has no field %q", n.Tag(), name)
	}
	switch d.Codec {
	case field.Text:
		return n.SetText(name, value)
	case field.Uint8, field.Uint16:
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return err
		}
		if d.Codec == field.Uint8 {
			return n.SetUint8(name, int(v))
		}
		return n.SetUint16(name, int(v))
	case field.Timestamp:
		t, err := time.Parse(stampLayout, value)
		if err != nil {
			return err
		}
		return n.SetTimestamp(name, field.StampFromTime(t))
	case field.Bytes:
		b, err := hex.DecodeString(strings.ReplaceAll(value, " ", ""))
		if err != nil {
			return err
		}
		return n.SetBytes(name, b)
	default:
		return errors.Newf("field %q has unsupported codec %s", name, d.Codec)
	}
}
