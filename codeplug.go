// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package codeplug decodes, edits and re-encodes the binary configuration
// image ("codeplug") of a two-way radio.
//
// An image is a forest of type-tagged blocks. Each block is a length prefixed
// header followed by a payload holding fixed offset fields and two byte
// vectors, the absolute addresses of child blocks. A Codeplug decodes the
// blocks reachable from a set of pinned roots into a tree, lets the caller
// edit fields or resize payloads, and on Save renders a new image in which
// every block has been relocated and every vector patched.
//
// A Codeplug is not safe for concurrent use. Callers needing concurrency must
// serialize mutate-then-save sequences.
package codeplug // import "github.com/jedicomlink/codeplug"

import (
	"io"
	"iter"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug/block"
	"github.com/jedicomlink/codeplug/internal/binfmt"
)

// Codeplug is a decoded codeplug image. It exclusively owns the node index
// decoded from the image and the most recently loaded or saved image bytes.
type Codeplug struct {
	opts  *Options
	image []byte
	tree  *block.Tree
}

// Load reads a whole image from r and decodes it. See Parse.
func Load(r io.Reader, opts *Options) (*Codeplug, error) {
	image, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "codeplug: reading image")
	}
	return parse(image, opts)
}

// Parse decodes the blocks of image reachable from opts.Roots. The image is
// copied; the caller may reuse it.
func Parse(image []byte, opts *Options) (*Codeplug, error) {
	return parse(slices.Clone(image), opts)
}

func parse(image []byte, opts *Options) (*Codeplug, error) {
	opts = opts.Clone().EnsureDefaults()
	tree, err := block.Parse(image, opts.Registry, opts.decodeOptions(), opts.Roots...)
	if err != nil {
		opts.Logger.Errorf("codeplug: decoding %d byte image: %v", len(image), err)
		return nil, err
	}
	opts.Logger.Infof("codeplug: decoded %d blocks from %d byte image", tree.Len(), len(image))
	return &Codeplug{opts: opts, image: image, tree: tree}, nil
}

// Options returns the options the codeplug was decoded with, with defaults
// applied.
func (c *Codeplug) Options() *Options {
	return c.opts.Clone()
}

// Save renders the tree into a new image and returns it. Bytes not covered
// by any block, such as those preceding the first root, are carried over from
// the previously loaded or saved image. On success the rendered image replaces
// the current one; on failure the codeplug is unchanged.
func (c *Codeplug) Save() ([]byte, error) {
	out, err := c.tree.Render(block.RenderOptions{
		Checksums: c.opts.Checksums,
		Source:    c.image,
		Fill:      c.opts.Fill,
	})
	if err != nil {
		c.opts.Logger.Errorf("codeplug: rendering: %v", err)
		return nil, err
	}
	c.opts.Logger.Infof("codeplug: rendered %d blocks into %d byte image", c.tree.Len(), len(out))
	c.image = out
	return slices.Clone(out), nil
}

// WriteTo saves the codeplug and writes the rendered image to w.
func (c *Codeplug) WriteTo(w io.Writer) (int64, error) {
	out, err := c.Save()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(out)
	return int64(n), err
}

// FindNode returns the first node, in first-visit order, with the given tag.
func (c *Codeplug) FindNode(tag TypeTag) (*block.Node, bool) {
	return c.tree.Find(tag)
}

// AllNodes returns a restartable sequence over every node in first-visit
// order.
func (c *Codeplug) AllNodes() iter.Seq[*block.Node] {
	return c.tree.All()
}

// Roots returns the root nodes in rendering order.
func (c *Codeplug) Roots() []*block.Node {
	return c.tree.Roots()
}

// Tree returns the decoded tree.
func (c *Codeplug) Tree() *block.Tree {
	return c.tree
}

// Image returns a copy of the most recently loaded or saved image. Edits made
// since are not reflected until Save.
func (c *Codeplug) Image() []byte {
	return slices.Clone(c.image)
}

// Fingerprint returns a 64-bit hash of the current image. Two codeplugs with
// equal images have equal fingerprints.
func (c *Codeplug) Fingerprint() uint64 {
	return xxhash.Sum64(c.image)
}

// Layout returns an annotated hex dump of the current image describing the
// header, fields and vectors of every block. Edits that change a block's size
// are reflected only after Save.
func (c *Codeplug) Layout() string {
	f := binfmt.New(c.image)
	c.tree.Describe(c.image, f)
	return f.String()
}

// String returns an indented dump of every block and its fields.
func (c *Codeplug) String() string {
	return c.tree.String()
}
