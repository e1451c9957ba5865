// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package revstream_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/quorumline/revstream"
	"github.com/quorumline/revstream/codec"
	"github.com/quorumline/revstream/segment"
	"github.com/quorumline/revstream/segment/memstore"
)

func TestReadFromRejectsNilAndCrossSegmentRevision(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.ReadFrom(ctx, nil)
	require.ErrorIs(t, err, revstream.ErrIllegalArgument)

	otherStore := memstore.New("other-segment")
	other, err := revstream.Open[string](
		"other-segment",
		otherStore.Writer(), otherStore.Reader(), otherStore.Metadata(),
		segment.NewToken(nil), codec.JSON[string]{},
		revstream.WithRegisterer[string](prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })
	foreign, err := other.LatestRevision(ctx)
	require.NoError(t, err)

	_, err = c.ReadFrom(ctx, foreign)
	require.ErrorIs(t, err, revstream.ErrIllegalArgument)
}

func TestReadFromRejectsStartBelowStartingOffset(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Write(ctx, "a"))
	r1, err := c.LatestRevision(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, "b"))
	r2, err := c.LatestRevision(ctx)
	require.NoError(t, err)

	require.NoError(t, c.TruncateTo(ctx, r2))

	_, err = c.ReadFrom(ctx, r1)
	require.ErrorIs(t, err, revstream.ErrTruncatedData)
}

func TestTruncateDuringIterationSurfacesTruncatedData(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Write(ctx, "a"))
	require.NoError(t, c.Write(ctx, "b"))
	r2, err := c.LatestRevision(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, "c"))

	oldest, err := c.OldestRevision(ctx)
	require.NoError(t, err)
	it, err := c.ReadFrom(ctx, oldest)
	require.NoError(t, err)

	_, _, err = it.Next(ctx)
	require.NoError(t, err)

	require.NoError(t, c.TruncateTo(ctx, r2))

	// The iterator's cursor now sits below the new starting offset, so the
	// next read observes the truncation rather than silently skipping it.
	_, _, err = it.Next(ctx)
	require.ErrorIs(t, err, revstream.ErrTruncatedData)
}
