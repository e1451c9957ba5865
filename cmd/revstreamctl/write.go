// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newWriteCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "write <value>",
		Short: "Unconditionally append a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(*dir)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := context.Background()
			if err := c.Write(ctx, args[0]); err != nil {
				return err
			}
			latest, err := c.LatestRevision(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("wrote, latest revision = %s\n", revisionToString(latest))
			return nil
		},
	}
}

func newWriteIfCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "write-if <expected-revision> <value>",
		Short: "Conditionally append a value iff the write offset equals the expected revision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expected, err := parseRevision(args[0])
			if err != nil {
				return err
			}
			c, err := openClient(*dir)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := context.Background()
			rev, committed, err := c.WriteIfAt(ctx, expected, args[1])
			if err != nil {
				return err
			}
			if !committed {
				fmt.Println("rejected: write offset had moved")
				return nil
			}
			fmt.Printf("committed, new revision = %s\n", revisionToString(rev))
			return nil
		},
	}
}
