// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package revstream_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumline/revstream"
)

func TestMarkStartsUnset(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	mv, err := c.GetMark(ctx)
	require.NoError(t, err)
	_, set := mv.Revision()
	require.False(t, set)
}

func TestCompareAndSetMarkSequence(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Write(ctx, "a"))
	r1, err := c.LatestRevision(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, "b"))
	r2, err := c.LatestRevision(ctx)
	require.NoError(t, err)

	// Expecting r1 while the mark is still unset fails.
	ok, err := c.CompareAndSetMark(ctx, revstream.Marked(r1), revstream.Marked(r2))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = c.CompareAndSetMark(ctx, revstream.Unmarked(), revstream.Marked(r1))
	require.NoError(t, err)
	require.True(t, ok)

	mv, err := c.GetMark(ctx)
	require.NoError(t, err)
	got, set := mv.Revision()
	require.True(t, set)
	require.True(t, got.Equal(r1))

	// Advance it to r2.
	ok, err = c.CompareAndSetMark(ctx, revstream.Marked(r1), revstream.Marked(r2))
	require.NoError(t, err)
	require.True(t, ok)

	// A stale compare-and-set against the now-superseded r1 value fails.
	ok, err = c.CompareAndSetMark(ctx, revstream.Marked(r1), revstream.Unmarked())
	require.NoError(t, err)
	require.False(t, ok)

	mv, err = c.GetMark(ctx)
	require.NoError(t, err)
	got, set = mv.Revision()
	require.True(t, set)
	require.True(t, got.Equal(r2))
}

func TestCompareAndSetMarkCanClearIt(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Write(ctx, "a"))
	r1, err := c.LatestRevision(ctx)
	require.NoError(t, err)

	ok, err := c.CompareAndSetMark(ctx, revstream.Unmarked(), revstream.Marked(r1))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.CompareAndSetMark(ctx, revstream.Marked(r1), revstream.Unmarked())
	require.NoError(t, err)
	require.True(t, ok)

	mv, err := c.GetMark(ctx)
	require.NoError(t, err)
	_, set := mv.Revision()
	require.False(t, set)
}
