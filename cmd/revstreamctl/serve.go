// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd(dir *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Open the segment and expose its client metrics over HTTP until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(*dir)
			if err != nil {
				return err
			}
			defer c.Close()

			http.Handle("/metrics", promhttp.Handler())
			fmt.Printf("serving metrics for segment %s on %s\n", c.SegmentID(), addr)
			return http.ListenAndServe(addr, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9090", "address to serve /metrics on")
	return cmd
}
