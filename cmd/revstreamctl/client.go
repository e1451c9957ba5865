// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"

	"github.com/quorumline/revstream"
	"github.com/quorumline/revstream/codec"
	"github.com/quorumline/revstream/segment"
	"github.com/quorumline/revstream/segment/diskseg"
)

// openClient opens (or creates) the segment rooted at dir and binds a
// string-valued Client to it. Every subcommand is a short-lived process,
// so each invocation pays the cost of opening and closing the segment
// rather than keeping a daemon around, acceptable for an operational
// tool, not how a long-lived service would use the library.
func openClient(dir string) (*revstream.Client[string], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := diskseg.Open(dir)
	if err != nil {
		return nil, err
	}

	logger := log.NewLogfmtLogger(os.Stderr)
	c, err := revstream.Open[string](
		store.SegmentID(),
		store.Writer(),
		store.Reader(),
		store.Metadata(),
		segment.NewToken(nil),
		codec.JSON[string]{},
		revstream.WithLogger[string](logger),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
