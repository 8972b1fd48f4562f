// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package codeplug

import (
	"testing"

	"github.com/jedicomlink/codeplug/block"
	"github.com/jedicomlink/codeplug/catalog"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
)

func TestOptionsString(t *testing.T) {
	opts := &Options{
		Roots:     []block.Root{catalog.DefaultRoot, {Address: 0x100, Tag: catalog.StatusList}},
		TagCheck:  block.TagCheckStrict,
		Checksums: true,
		Fill:      0xFF,
	}
	const expected = `[Version]
  codeplug_version=1

[Options]
  checksums=true
  fill_byte=0xFF
  roots=01@0x0000,8F@0x0100
  tag_check=strict
  verify_checksums=false
`
	require.Equal(t, expected, opts.String())

	var parsed Options
	require.NoError(t, parsed.Parse(opts.String(), nil))
	require.Equal(t, opts.String(), parsed.String())
	require.Equal(t, opts.Roots, parsed.Roots, "%s", pretty.Diff(opts.Roots, parsed.Roots))
}

func TestOptionsDefaults(t *testing.T) {
	var nilOpts *Options
	opts := nilOpts.Clone().EnsureDefaults()
	require.Equal(t, catalog.Registry(), opts.Registry)
	require.Equal(t, []block.Root{catalog.DefaultRoot}, opts.Roots)
	require.Equal(t, DefaultLogger, opts.Logger)
	require.Equal(t, block.TagCheckNonZero, opts.TagCheck)

	// EnsureDefaults keeps explicit settings.
	opts = (&Options{Logger: NoopLogger, Fill: 0xFF}).EnsureDefaults()
	require.Equal(t, NoopLogger, opts.Logger)
	require.Equal(t, byte(0xFF), opts.Fill)
}

func TestOptionsParse(t *testing.T) {
	var opts Options
	require.NoError(t, opts.Parse(`
; comment
[Options]
  roots = 01@0, 30@0x3C
  verify_checksums=true
  fill_byte=255
`, nil))
	require.Equal(t, []block.Root{{Address: 0, Tag: 0x01}, {Address: 0x3C, Tag: 0x30}}, opts.Roots)
	require.True(t, opts.VerifyChecksums)
	require.Equal(t, byte(0xFF), opts.Fill)

	for _, s := range []string{
		"[Options]\n  bogus=1\n",
		"[Other]\n  roots=01@0\n",
		"[Options]\n  roots\n",
		"[Options]\n  roots=01\n",
		"[Options]\n  roots=01@0x10000\n",
		"[Options]\n  roots=XYZ@0\n",
		"[Options]\n  tag_check=sometimes\n",
		"[Options]\n  fill_byte=0x100\n",
		"[Options]\n  registry=catalog\n",
		"[Version]\n  codeplug_version=2\n",
	} {
		var o Options
		require.Error(t, o.Parse(s, nil), "%s", s)
	}

	hooks := &ParseHooks{
		SkipUnknown: func(name, value string) bool { return name == "Options.bogus" },
		NewRegistry: func(name string) (*block.Registry, error) { return catalog.Registry(), nil },
	}
	require.NoError(t, opts.Parse("[Options]\n  bogus=1\n  registry=catalog\n", hooks))
	require.Equal(t, catalog.Registry(), opts.Registry)
}
