// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package codeplug

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/block"
	"github.com/jedicomlink/codeplug/catalog"
	"github.com/jedicomlink/codeplug/internal/base"
)

// Options holds the optional parameters for decoding and rendering a codeplug.
// The zero value is usable: EnsureDefaults fills in the catalog registry and
// its default root.
type Options struct {
	// Registry supplies the layout of every block type. The default is the
	// catalog registry.
	Registry *block.Registry

	// Roots are the blocks not referenced by any vector, in rendering order.
	// Each is pinned to its address. The default is the catalog's internal
	// radio block at 0x0000.
	Roots []block.Root

	// TagCheck selects how header tag bytes are validated while decoding.
	TagCheck block.TagCheck

	// Checksums applies the checksum step on Save to every block whose layout
	// declares one.
	Checksums bool

	// VerifyChecksums verifies the checksum trailer of every block whose
	// layout declares one while decoding.
	VerifyChecksums bool

	// Fill is written to bytes preceding or between roots that are not
	// covered by the image being replaced.
	Fill byte

	// Logger used to write log messages.
	//
	// The default logger uses the Go standard library log package.
	Logger Logger
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Registry == nil {
		o.Registry = catalog.Registry()
	}
	if len(o.Roots) == 0 {
		o.Roots = []block.Root{catalog.DefaultRoot}
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger
	}
	return o
}

// Clone creates a shallow-copy of the supplied options.
func (o *Options) Clone() *Options {
	n := &Options{}
	if o != nil {
		*n = *o
		n.Roots = slices.Clone(o.Roots)
	}
	return n
}

func (o *Options) decodeOptions() block.DecodeOptions {
	return block.DecodeOptions{
		TagCheck:        o.TagCheck,
		VerifyChecksums: o.VerifyChecksums,
	}
}

// String writes the options in an INI-like format. The Registry and Logger
// are not serialized.
func (o *Options) String() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "[Version]\n")
	fmt.Fprintf(&buf, "  codeplug_version=1\n")
	fmt.Fprintf(&buf, "\n")
	fmt.Fprintf(&buf, "[Options]\n")
	fmt.Fprintf(&buf, "  checksums=%t\n", o.Checksums)
	fmt.Fprintf(&buf, "  fill_byte=0x%02X\n", o.Fill)
	fmt.Fprintf(&buf, "  roots=%s\n", formatRoots(o.Roots))
	fmt.Fprintf(&buf, "  tag_check=%s\n", o.TagCheck)
	fmt.Fprintf(&buf, "  verify_checksums=%t\n", o.VerifyChecksums)
	return buf.String()
}

func formatRoots(roots []block.Root) string {
	parts := make([]string, len(roots))
	for i, r := range roots {
		parts[i] = fmt.Sprintf("%s@0x%s", r.Tag, r.Address)
	}
	return strings.Join(parts, ",")
}

func parseRoots(s string) ([]block.Root, error) {
	var roots []block.Root
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tagStr, addrStr, ok := strings.Cut(part, "@")
		if !ok {
			return nil, errors.Errorf("invalid root %q: expected TAG@ADDRESS", part)
		}
		tag, err := strconv.ParseUint(tagStr, 16, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid root %q", part)
		}
		addr, err := strconv.ParseUint(addrStr, 0, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid root %q", part)
		}
		if addr > uint64(base.MaxAddress) {
			return nil, errors.Errorf("invalid root %q: address beyond %s", part, base.MaxAddress)
		}
		roots = append(roots, block.Root{Address: base.Address(addr), Tag: base.TypeTag(tag)})
	}
	return roots, nil
}

type parseOptionsFuncs struct {
	visitNewSection func(section string) error
	visitKeyValue   func(section, key, value string) error
}

// parseOptions takes options serialized by Options.String() and parses them
// into keys and values. It calls fns.visitNewSection for the beginning of each
// new section and fns.visitKeyValue for each key-value pair.
func parseOptions(s string, fns parseOptionsFuncs) error {
	var section string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 || line[0] == ';' || line[0] == '#' {
			// Skip blank lines and comments.
			continue
		}
		n := len(line)
		if line[0] == '[' && line[n-1] == ']' {
			section = line[1 : n-1]
			if fns.visitNewSection != nil {
				if err := fns.visitNewSection(section); err != nil {
					return err
				}
			}
			continue
		}

		pos := strings.Index(line, "=")
		if pos < 0 {
			const maxLen = 50
			if len(line) > maxLen {
				line = line[:maxLen-3] + "..."
			}
			return errors.Errorf("invalid key=value syntax: %q", errors.Safe(line))
		}

		key := strings.TrimSpace(line[:pos])
		value := strings.TrimSpace(line[pos+1:])
		if fns.visitKeyValue != nil {
			if err := fns.visitKeyValue(section, key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseHooks contains callbacks for options that cannot be parsed into
// populated fields.
type ParseHooks struct {
	NewRegistry func(name string) (*block.Registry, error)
	SkipUnknown func(name, value string) bool
}

// Parse parses the options from the specified string. Options not named in s
// keep their current values.
func (o *Options) Parse(s string, hooks *ParseHooks) error {
	visitKeyValue := func(section, key, value string) error {
		// Keys are never removed from the switches below: doing so would make
		// a previously written options file unparseable.
		unknown := func() error {
			if hooks != nil && hooks.SkipUnknown != nil && hooks.SkipUnknown(section+"."+key, value) {
				return nil
			}
			return errors.Errorf("codeplug: unknown option: %s.%s",
				errors.Safe(section), errors.Safe(key))
		}

		switch section {
		case "Version":
			switch key {
			case "codeplug_version":
				if value != "1" {
					return errors.Errorf("codeplug: unsupported options version %q", errors.Safe(value))
				}
				return nil
			}
			return unknown()

		case "Options":
			var err error
			switch key {
			case "checksums":
				o.Checksums, err = strconv.ParseBool(value)
			case "fill_byte":
				var v uint64
				if v, err = strconv.ParseUint(value, 0, 8); err == nil {
					o.Fill = byte(v)
				}
			case "registry":
				if hooks == nil || hooks.NewRegistry == nil {
					return errors.Errorf("codeplug: no registry hook for %q", value)
				}
				o.Registry, err = hooks.NewRegistry(value)
			case "roots":
				o.Roots, err = parseRoots(value)
			case "tag_check":
				o.TagCheck, err = block.ParseTagCheck(value)
			case "verify_checksums":
				o.VerifyChecksums, err = strconv.ParseBool(value)
			default:
				return unknown()
			}
			if err != nil {
				return errors.Wrapf(err, "codeplug: parsing %s.%s", errors.Safe(section), errors.Safe(key))
			}
			return nil

		default:
			return unknown()
		}
	}
	return parseOptions(s, parseOptionsFuncs{visitKeyValue: visitKeyValue})
}
