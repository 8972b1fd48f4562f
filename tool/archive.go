// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tool

import (
	"bytes"
	"fmt"
	"os"

	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/jedicomlink/codeplug"
	"github.com/jedicomlink/codeplug/archive"
	"github.com/spf13/cobra"
)

// archiveT implements the backup tools.
type archiveT struct {
	Commands []*cobra.Command
	Backup   *cobra.Command
	Restore  *cobra.Command
	Info     *cobra.Command

	// Flags.
	opts        optionsFlags
	output      string
	compression string
	noVerify    bool
}

func newArchive(opts *codeplug.Options) *archiveT {
	a := &archiveT{opts: optionsFlags{base: opts}}

	a.Backup = &cobra.Command{
		Use:   "backup <image>",
		Short: "write a compressed, checksummed archive of an image",
		Long: `
Write an archive of the image to the -o path. Unless --no-verify is given the
image must decode before it is archived.
`,
		Args: cobra.ExactArgs(1),
		Run:  a.runBackup,
	}
	a.Restore = &cobra.Command{
		Use:   "restore <archive>",
		Short: "verify an archive and write the image it holds",
		Args:  cobra.ExactArgs(1),
		Run:   a.runRestore,
	}
	a.Info = &cobra.Command{
		Use:   "archive-info <archive>",
		Short: "print the header of an archive",
		Args:  cobra.ExactArgs(1),
		Run:   a.runInfo,
	}
	a.Commands = []*cobra.Command{a.Backup, a.Restore, a.Info}

	a.opts.register(a.Backup)
	for _, cmd := range []*cobra.Command{a.Backup, a.Restore} {
		cmd.Flags().StringVarP(
			&a.output, "output", "o", "", "output path")
	}
	a.Backup.Flags().StringVar(
		&a.compression, "compression", archive.Zstd.String(), "compression: none, snappy or zstd")
	a.Backup.Flags().BoolVar(
		&a.noVerify, "no-verify", false, "archive the image without decoding it")
	return a
}

func (a *archiveT) runBackup(cmd *cobra.Command, args []string) {
	if a.output == "" {
		fmt.Fprintf(stderr, "an output path (-o) is required\n")
		return
	}
	alg, err := archive.ParseAlgorithm(a.compression)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	var image []byte
	if a.noVerify {
		image, err = os.ReadFile(args[0])
	} else {
		var c *codeplug.Codeplug
		if c, err = a.opts.load(args[0]); err == nil {
			image = c.Image()
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	var buf bytes.Buffer
	if err := archive.Write(&buf, image, archive.WriteOptions{Compression: alg}); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	if err := os.WriteFile(a.output, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	ratio := float64(buf.Len()) / float64(max(len(image), 1))
	fmt.Fprintf(stdout, "%s: %d bytes archived as %d bytes (%s, %s%% of original)\n",
		a.output, len(image), buf.Len(), alg, crhumanize.Float(100*ratio, 1))
}

func (a *archiveT) runRestore(cmd *cobra.Command, args []string) {
	if a.output == "" {
		fmt.Fprintf(stderr, "an output path (-o) is required\n")
		return
	}
	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	defer f.Close()
	image, h, err := archive.Read(f)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", args[0], err)
		return
	}
	if err := os.WriteFile(a.output, image, 0644); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	fmt.Fprintf(stdout, "%s: %d bytes restored, checksum %016x\n", a.output, h.Length, h.Checksum)
}

func (a *archiveT) runInfo(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	h, err := archive.ReadHeader(data)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", args[0], err)
		return
	}
	fmt.Fprintf(stdout, "version:     %d\n", h.Version)
	fmt.Fprintf(stdout, "compression: %s\n", h.Compression)
	fmt.Fprintf(stdout, "length:      %d\n", h.Length)
	fmt.Fprintf(stdout, "checksum:    %016x\n", h.Checksum)
	fmt.Fprintf(stdout, "body:        %s\n",
		crhumanize.Bytes(int64(len(data)-archive.HeaderLen), crhumanize.Compact, crhumanize.OmitI))
}
