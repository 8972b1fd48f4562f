// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tool

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/jedicomlink/codeplug"
	"github.com/jedicomlink/codeplug/internal/binfmt"
	"github.com/kr/pretty"
	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// imageT implements the image-level tools, including both configuration
// state and the commands themselves.
type imageT struct {
	Commands []*cobra.Command
	Dump     *cobra.Command
	Layout   *cobra.Command
	Nodes    *cobra.Command
	Fields   *cobra.Command
	Set      *cobra.Command
	Render   *cobra.Command
	Check    *cobra.Command
	Diff     *cobra.Command

	// Flags.
	opts        optionsFlags
	output      string
	verbose     bool
	concurrency int
	raw         bool
	width       int
	diffLayout  bool
}

func newImage(opts *codeplug.Options) *imageT {
	m := &imageT{opts: optionsFlags{base: opts}}

	m.Dump = &cobra.Command{
		Use:   "dump <images>",
		Short: "print the block tree of images",
		Long: `
Print every block reachable from the roots of each image, indented by depth,
along with the decoded value of every declared field.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  m.runDump,
	}
	m.Layout = &cobra.Command{
		Use:   "layout <image>",
		Short: "print an annotated hex layout of an image",
		Long: `
Print the image as hex, annotating the header, fields and vectors of every
block. Bytes not referenced by any block are marked as such. With --raw the
image is printed as a plain hex dump instead.
`,
		Args: cobra.ExactArgs(1),
		Run:  m.runLayout,
	}
	m.Nodes = &cobra.Command{
		Use:   "nodes <image>",
		Short: "print a table of the blocks in an image",
		Args:  cobra.ExactArgs(1),
		Run:   m.runNodes,
	}
	m.Fields = &cobra.Command{
		Use:   "fields <image> <tag>",
		Short: "print the fields of the first block with a tag",
		Long: `
Print the declared fields of the first block with the given hex tag. The -v
flag additionally pretty-prints the block's layout.
`,
		Args: cobra.ExactArgs(2),
		Run:  m.runFields,
	}
	m.Set = &cobra.Command{
		Use:   "set <image> <tag> <field> <value>",
		Short: "set a field and write the re-rendered image",
		Long: `
Set a field of the first block with the given hex tag and write the re-rendered
image to the -o path. Text values are used verbatim, integers accept Go syntax
(0x prefixes), timestamps use "YYYY-MM-DD hh:mm" and byte fields hex.
`,
		Args: cobra.ExactArgs(4),
		Run:  m.runSet,
	}
	m.Render = &cobra.Command{
		Use:   "render <image>",
		Short: "decode and re-render an image",
		Args:  cobra.ExactArgs(1),
		Run:   m.runRender,
	}
	m.Check = &cobra.Command{
		Use:   "check <images>",
		Short: "verify that images decode and re-render identically",
		Long: `
Decode each image, render it without edits and compare the result with the
original bytes. Images are checked concurrently and reported in command line
order.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  m.runCheck,
	}
	m.Diff = &cobra.Command{
		Use:   "diff <image-a> <image-b>",
		Short: "print a unified diff of the block trees of two images",
		Long: `
Print a unified diff of the block trees of two images. With --layout the
annotated hex layouts are compared instead.
`,
		Args: cobra.ExactArgs(2),
		Run:   m.runDiff,
	}

	m.Commands = []*cobra.Command{
		m.Dump, m.Layout, m.Nodes, m.Fields, m.Set, m.Render, m.Check, m.Diff,
	}
	for _, cmd := range m.Commands {
		m.opts.register(cmd)
	}
	for _, cmd := range []*cobra.Command{m.Set, m.Render} {
		cmd.Flags().StringVarP(
			&m.output, "output", "o", "", "path of the rendered image")
	}
	m.Fields.Flags().BoolVarP(
		&m.verbose, "verbose", "v", false, "pretty-print the block layout")
	m.Check.Flags().IntVarP(
		&m.concurrency, "concurrency", "c", 4, "number of images checked concurrently")
	m.Layout.Flags().BoolVar(
		&m.raw, "raw", false, "print a plain hex dump")
	m.Layout.Flags().IntVarP(
		&m.width, "width", "w", 16, "bytes per line")
	m.Diff.Flags().BoolVar(
		&m.diffLayout, "layout", false, "compare annotated hex layouts")
	return m
}

func (m *imageT) runDump(cmd *cobra.Command, args []string) {
	for _, arg := range args {
		c, err := m.opts.load(arg)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %s\n", arg, err)
			continue
		}
		if len(args) > 1 {
			fmt.Fprintf(stdout, "%s\n", arg)
		}
		fmt.Fprint(stdout, c.String())
	}
}

func (m *imageT) runLayout(cmd *cobra.Command, args []string) {
	c, err := m.opts.load(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	if m.width <= 0 {
		fmt.Fprintf(stderr, "invalid width %d\n", m.width)
		return
	}
	if m.raw {
		binfmt.FHexDump(stdout, c.Image(), m.width, true)
		return
	}
	for _, l := range layoutLines(c, m.width) {
		fmt.Fprintln(stdout, l)
	}
}

// layoutLines returns the annotated layout of c's image, width bytes per line.
func layoutLines(c *codeplug.Codeplug, width int) []string {
	image := c.Image()
	f := binfmt.New(image).LineWidth(2 * width)
	c.Tree().Describe(image, f)
	return f.Lines()
}

func (m *imageT) runNodes(cmd *cobra.Command, args []string) {
	c, err := m.opts.load(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	tw := tablewriter.NewWriter(stdout)
	tw.SetHeader([]string{"id", "tag", "description", "depth", "start", "end", "length", "parent"})
	tw.SetAutoFormatHeaders(false)
	tw.SetBorder(false)
	for n := range c.AllNodes() {
		parent := "-"
		if p := n.Parent(); p != nil {
			parent = strconv.Itoa(int(p.ID()))
		}
		tw.Append([]string{
			strconv.Itoa(int(n.ID())),
			n.Tag().String(),
			n.Description(),
			strconv.Itoa(n.Depth()),
			n.Start().String(),
			n.End().String(),
			strconv.Itoa(n.Len()),
			parent,
		})
	}
	tw.Render()
}

func (m *imageT) runFields(cmd *cobra.Command, args []string) {
	c, err := m.opts.load(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	tag, err := parseTag(args[1])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	n, ok := c.FindNode(tag)
	if !ok {
		fmt.Fprintf(stderr, "no block %s in %s\n", tag, args[0])
		return
	}
	fmt.Fprintf(stdout, "block %s at %s: %s\n", n.Tag(), n.Start(), n.Description())
	if m.verbose {
		fmt.Fprintf(stdout, "%# v\n", pretty.Formatter(n.Layout()))
	}
	tw := tablewriter.NewWriter(stdout)
	tw.SetHeader([]string{"field", "offset", "width", "codec", "value"})
	tw.SetAutoFormatHeaders(false)
	tw.SetBorder(false)
	for _, d := range n.Layout().Fields {
		v, err := n.FormatField(d.Name)
		if err != nil {
			v = err.Error()
		}
		tw.Append([]string{
			d.Name, fmt.Sprintf("0x%02X", d.Offset), strconv.Itoa(d.Width), d.Codec.String(), v,
		})
	}
	tw.Render()
}

func (m *imageT) runSet(cmd *cobra.Command, args []string) {
	if m.output == "" {
		fmt.Fprintf(stderr, "an output path (-o) is required\n")
		return
	}
	c, err := m.opts.load(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	tag, err := parseTag(args[1])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	n, ok := c.FindNode(tag)
	if !ok {
		fmt.Fprintf(stderr, "no block %s in %s\n", tag, args[0])
		return
	}
	if err := setField(n, args[2], args[3]); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	v, _ := n.FormatField(args[2])
	if err := m.save(c, m.output); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	fmt.Fprintf(stdout, "block %s %s: %s\n", n.Tag(), args[2], v)
}

func (m *imageT) runRender(cmd *cobra.Command, args []string) {
	c, err := m.opts.load(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	output := m.output
	if output == "" {
		output = args[0]
	}
	if err := m.save(c, output); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
	}
}

// save renders c into path and reports the rendered image.
func (m *imageT) save(c *codeplug.Codeplug, path string) error {
	image, err := c.Save()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, image, 0644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %d blocks, %d bytes, fingerprint %016x\n",
		path, c.Tree().Len(), len(image), c.Fingerprint())
	return nil
}

func (m *imageT) runCheck(cmd *cobra.Command, args []string) {
	results := make([]string, len(args))
	var g errgroup.Group
	g.SetLimit(max(m.concurrency, 1))
	for i, arg := range args {
		g.Go(func() error {
			results[i] = m.check(arg)
			return nil
		})
	}
	_ = g.Wait()
	for i, arg := range args {
		fmt.Fprintf(stdout, "%s: %s\n", arg, results[i])
	}
}

// check decodes and re-renders the image at path and describes the outcome.
func (m *imageT) check(path string) string {
	orig, err := os.ReadFile(path)
	if err != nil {
		return err.Error()
	}
	opts, err := m.opts.options()
	if err != nil {
		return err.Error()
	}
	c, err := codeplug.Parse(orig, opts)
	if err != nil {
		return err.Error()
	}
	out, err := c.Save()
	if err != nil {
		return err.Error()
	}
	if err := c.Tree().CheckConsistency(out); err != nil {
		return errors.Wrap(err, "inconsistent render").Error()
	}
	if !bytes.Equal(orig, out) {
		if len(orig) != len(out) {
			return fmt.Sprintf("re-rendered image is %d bytes, original %d", len(out), len(orig))
		}
		for i := range orig {
			if orig[i] != out[i] {
				return fmt.Sprintf("re-rendered image differs at %s", codeplug.Address(i))
			}
		}
	}
	return fmt.Sprintf("ok (%d blocks)", c.Tree().Len())
}

func (m *imageT) runDiff(cmd *cobra.Command, args []string) {
	var lines [2][]string
	for i, arg := range args {
		c, err := m.opts.load(arg)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %s\n", arg, err)
			return
		}
		if !m.diffLayout {
			lines[i] = difflib.SplitLines(c.String())
			continue
		}
		for _, l := range layoutLines(c, 16) {
			lines[i] = append(lines[i], l+"\n")
		}
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        lines[0],
		B:        lines[1],
		FromFile: args[0],
		ToFile:   args[1],
		Context:  2,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	if diff == "" {
		fmt.Fprintf(stdout, "no differences\n")
		return
	}
	fmt.Fprint(stdout, diff)
}
