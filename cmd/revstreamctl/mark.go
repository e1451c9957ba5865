// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quorumline/revstream"
)

func newMarkCmd(dir *string) *cobra.Command {
	root := &cobra.Command{
		Use:   "mark",
		Short: "Inspect or move the segment's persistent mark",
	}
	root.AddCommand(newMarkGetCmd(dir), newMarkSetCmd(dir))
	return root
}

func newMarkGetCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the current mark",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(*dir)
			if err != nil {
				return err
			}
			defer c.Close()

			m, err := c.GetMark(context.Background())
			if err != nil {
				return err
			}
			if rev, ok := m.Revision(); ok {
				fmt.Println(revisionToString(rev))
			} else {
				fmt.Println("<unset>")
			}
			return nil
		},
	}
}

func newMarkSetCmd(dir *string) *cobra.Command {
	var expectedStr, newStr string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Compare-and-set the mark",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(*dir)
			if err != nil {
				return err
			}
			defer c.Close()

			expected, err := parseMarkFlag(expectedStr)
			if err != nil {
				return err
			}
			newVal, err := parseMarkFlag(newStr)
			if err != nil {
				return err
			}

			won, err := c.CompareAndSetMark(context.Background(), expected, newVal)
			if err != nil {
				return err
			}
			if !won {
				fmt.Println("lost: mark did not hold the expected value")
				return nil
			}
			fmt.Println("won")
			return nil
		},
	}
	cmd.Flags().StringVar(&expectedStr, "expected", "", "expected mark revision, or \"unset\"")
	cmd.Flags().StringVar(&newStr, "new", "", "new mark revision, or \"unset\"")
	return cmd
}

func parseMarkFlag(s string) (revstream.MarkValue, error) {
	if s == "" || s == "unset" {
		return revstream.Unmarked(), nil
	}
	rev, err := parseRevision(s)
	if err != nil {
		return revstream.MarkValue{}, err
	}
	return revstream.Marked(rev), nil
}
