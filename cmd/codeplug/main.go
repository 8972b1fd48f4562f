// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package main

import (
	"log"
	"os"

	"github.com/jedicomlink/codeplug"
	"github.com/jedicomlink/codeplug/tool"
	"github.com/spf13/cobra"
)

var logEvents bool

func main() {
	log.SetFlags(0)

	t := tool.New()
	rootCmd := &cobra.Command{
		Use:   "codeplug [command] (flags)",
		Short: "radio codeplug introspection and editing tool",
		Long:  ``,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logEvents {
				t.SetLogger(codeplug.DefaultLogger)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(
		&logEvents, "log", false, "log decode and render events")

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(t.Commands...)

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
