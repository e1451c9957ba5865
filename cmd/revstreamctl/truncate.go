// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newTruncateCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "truncate <revision>",
		Short: "Drop the segment's prefix up to the given revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev, err := parseRevision(args[0])
			if err != nil {
				return err
			}
			c, err := openClient(*dir)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.TruncateTo(context.Background(), rev); err != nil {
				return err
			}
			fmt.Println("truncated")
			return nil
		},
	}
}
