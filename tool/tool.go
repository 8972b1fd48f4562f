// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package tool implements the codeplug command line tools: introspection and
// editing of image files, and backup of images into archives.
package tool

import (
	"github.com/jedicomlink/codeplug"
	"github.com/jedicomlink/codeplug/block"
	"github.com/spf13/cobra"
)

// T is the container for all of the codeplug tools.
type T struct {
	Commands []*cobra.Command
	image    *imageT
	archive  *archiveT
	opts     codeplug.Options
}

// New creates a new codeplug tool.
func New() *T {
	t := &T{
		opts: codeplug.Options{Logger: codeplug.NoopLogger},
	}
	t.image = newImage(&t.opts)
	t.archive = newArchive(&t.opts)
	t.Commands = append(t.Commands, t.image.Commands...)
	t.Commands = append(t.Commands, t.archive.Commands...)
	return t
}

// RegisterRegistry sets the registry used to decode images, replacing the
// catalog registry.
func (t *T) RegisterRegistry(r *block.Registry) {
	t.opts.Registry = r
}

// SetLogger sets the logger receiving decode and render messages.
func (t *T) SetLogger(l codeplug.Logger) {
	t.opts.Logger = l
}
