// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quorumline/revstream"
)

func newTailCmd(dir *string) *cobra.Command {
	var fromStr string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Read from a revision to the current write offset and print each record",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(*dir)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := context.Background()

			var start revstream.Revision
			if fromStr == "" {
				start, err = c.OldestRevision(ctx)
			} else {
				start, err = parseRevision(fromStr)
			}
			if err != nil {
				return err
			}

			it, err := c.ReadFrom(ctx, start)
			if err != nil {
				return err
			}
			for it.HasNext() {
				rev, val, err := it.Next(ctx)
				if err != nil {
					if errors.Is(err, revstream.ErrNoSuchElement) {
						break
					}
					return err
				}
				fmt.Printf("%s\t%s\n", revisionToString(rev), val)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fromStr, "from", "", "revision to start from (defaults to the oldest readable revision)")
	return cmd
}
