// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumline/revstream/segment"
	"github.com/quorumline/revstream/segment/memstore"
)

func submitAndWait(t *testing.T, w segment.Writer, ev *segment.PendingEvent) segment.AppendResult {
	t.Helper()
	require.NoError(t, w.Submit(context.Background(), ev))
	require.NoError(t, w.Flush(context.Background()))
	return <-ev.Done
}

func TestMemstoreAppendAndRead(t *testing.T) {
	s := memstore.New("seg")
	w, r, m := s.Writer(), s.Reader(), s.Metadata()

	res := submitAndWait(t, w, &segment.PendingEvent{Payload: []byte("a"), Done: make(chan segment.AppendResult, 1)})
	require.NoError(t, res.Err)

	info, err := m.Info(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), info.StartingOffset)
	require.True(t, info.WriteOffset > 0)

	require.NoError(t, r.SetOffset(0))
	payload, err := r.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("a"), payload)

	_, err = r.Read(context.Background())
	require.ErrorIs(t, err, segment.ErrEndOfSegment)
}

func TestMemstoreConditionalAppendRejectsStaleOffset(t *testing.T) {
	s := memstore.New("seg")
	w := s.Writer()

	stale := int64(999)
	res := submitAndWait(t, w, &segment.PendingEvent{
		Payload:        []byte("a"),
		ExpectedOffset: &stale,
		Done:           make(chan segment.AppendResult, 1),
	})
	require.NoError(t, res.Err)
	require.False(t, res.Committed)
}

func TestMemstoreSealRejectsFurtherAppends(t *testing.T) {
	s := memstore.New("seg")
	w := s.Writer()
	s.Seal()

	res := submitAndWait(t, w, &segment.PendingEvent{Payload: []byte("a"), Done: make(chan segment.AppendResult, 1)})
	require.ErrorIs(t, res.Err, segment.ErrSealed)

	require.ErrorIs(t, w.Close(), segment.ErrSealed)
}

func TestMemstoreTruncateDropsPrefix(t *testing.T) {
	s := memstore.New("seg")
	w, m := s.Writer(), s.Metadata()

	submitAndWait(t, w, &segment.PendingEvent{Payload: []byte("a"), Done: make(chan segment.AppendResult, 1)})
	infoBeforeSecond, err := m.Info(context.Background())
	require.NoError(t, err)
	submitAndWait(t, w, &segment.PendingEvent{Payload: []byte("b"), Done: make(chan segment.AppendResult, 1)})

	require.NoError(t, m.Truncate(context.Background(), "seg", infoBeforeSecond.WriteOffset, segment.NewToken(nil)))

	r := s.Reader()
	require.NoError(t, r.SetOffset(0))
	_, err = r.Read(context.Background())
	require.ErrorIs(t, err, segment.ErrSegmentTruncated)

	require.NoError(t, r.SetOffset(infoBeforeSecond.WriteOffset))
	payload, err := r.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("b"), payload)
}

func TestMemstoreCompareAndSetAttribute(t *testing.T) {
	m := memstore.New("seg").Metadata()
	ctx := context.Background()
	tok := segment.NewToken(nil)

	v, err := m.FetchAttribute(ctx, segment.MarkSlot, tok)
	require.NoError(t, err)
	require.Equal(t, segment.NullValue, v)

	ok, err := m.CompareAndSetAttribute(ctx, segment.MarkSlot, int64(123), int64(42), tok)
	require.NoError(t, err)
	require.False(t, ok, "wrong expected value must not win")

	ok, err = m.CompareAndSetAttribute(ctx, segment.MarkSlot, segment.NullValue, int64(42), tok)
	require.NoError(t, err)
	require.True(t, ok)

	v, err = m.FetchAttribute(ctx, segment.MarkSlot, tok)
	require.NoError(t, err)
	require.Equal(t, int64(42), v)
}
