// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

func newLoadTestCmd(dir *string) *cobra.Command {
	var count int
	var ratePerSec float64
	var size int

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Append count records at a paced rate, for exercising a segment provider under load",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(*dir)
			if err != nil {
				return err
			}
			defer c.Close()

			limiter := rate.NewLimiter(rate.Limit(ratePerSec), 1)
			payload := strings.Repeat("x", size)

			ctx := context.Background()
			start := time.Now()
			for i := 0; i < count; i++ {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				if err := c.Write(ctx, payload); err != nil {
					return err
				}
			}
			elapsed := time.Since(start)
			fmt.Printf("appended %d records of %d bytes in %s (%.1f/s)\n", count, size, elapsed, float64(count)/elapsed.Seconds())
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1000, "number of records to append")
	cmd.Flags().Float64Var(&ratePerSec, "rate", 500, "target appends per second")
	cmd.Flags().IntVar(&size, "size", 128, "payload size in bytes")
	return cmd
}
