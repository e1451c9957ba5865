// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Command revstreamctl is an operational CLI around a disk-backed
// Revisioned Stream Client. It is ambient tooling around the library,
// not a wire protocol or on-disk format of the RSC itself, in the same
// spirit as a separate bench/ binary sitting next to a library package.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:   "revstreamctl",
		Short: "Inspect and drive a disk-backed Revisioned Stream Client",
	}
	root.PersistentFlags().StringVar(&dir, "dir", "./revstream-data", "directory holding the segment's data and metadata files")

	root.AddCommand(
		newWriteCmd(&dir),
		newWriteIfCmd(&dir),
		newTailCmd(&dir),
		newMarkCmd(&dir),
		newTruncateCmd(&dir),
		newStatusCmd(&dir),
		newLoadTestCmd(&dir),
		newServeCmd(&dir),
	)
	return root
}
