// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

func newStatusCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the segment id, readable range and the range's size in bytes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(*dir)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := context.Background()
			oldest, err := c.OldestRevision(ctx)
			if err != nil {
				return err
			}
			latest, err := c.LatestRevision(ctx)
			if err != nil {
				return err
			}
			size := latest.ByteOffset() - oldest.ByteOffset()

			fmt.Printf("segment_id: %s\n", c.SegmentID())
			fmt.Printf("oldest:     %s\n", revisionToString(oldest))
			fmt.Printf("latest:     %s\n", revisionToString(latest))
			fmt.Printf("size:       %s\n", units.BytesSize(float64(size)))
			return nil
		},
	}
}
