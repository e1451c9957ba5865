// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package revstream implements a Revisioned Stream Client: a durable,
// single-segment state-replication primitive layered atop an append-only
// byte segment (see segment.Writer/Reader/Metadata). It exposes a log of
// strongly-ordered, typed values addressable by a monotonically
// increasing Revision, optimistic-concurrency conditional append, a
// persistent compare-and-set mark, and prefix truncation.
package revstream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quorumline/revstream/segment"
)

// Client is the Revisioned Stream Client bound to one segment and one
// user-supplied serializer. It is safe for concurrent use by multiple
// goroutines: reader, writer and metadata access are serialized under a
// single mutex.
type Client[T any] struct {
	closed uint32 // atomic; keep first for alignment

	segmentID  string
	writer     segment.Writer
	reader     segment.Reader
	meta       segment.Metadata
	token      segment.Token
	serializer segment.Serializer[T]

	logger  log.Logger
	reg     prometheus.Registerer
	metrics *clientMetrics

	// mu serializes reader, writer and metadata access: append
	// (submit->flush->await), iterator creation and Next, mark
	// operations, and truncation/close all hold it for their duration.
	mu sync.Mutex
}

// Open binds a Client to the given segment collaborators. segmentID
// identifies the backing segment and is constant for the Client's
// lifetime; every Revision the Client produces carries it.
//
// Open registers its metrics against reg (WithRegisterer), which
// defaults to prometheus.DefaultRegisterer. Opening more than one
// Client against the default registerer in the same process panics on
// duplicate metric registration; callers that open multiple Clients
// (including in tests) should pass a distinct WithRegisterer(prometheus.NewRegistry())
// to each.
func Open[T any](
	segmentID string,
	writer segment.Writer,
	reader segment.Reader,
	meta segment.Metadata,
	token segment.Token,
	serializer segment.Serializer[T],
	opts ...Option[T],
) (*Client[T], error) {
	if segmentID == "" {
		return nil, fmt.Errorf("%w: empty segment id", ErrIllegalArgument)
	}
	if writer == nil || reader == nil || meta == nil || serializer == nil {
		return nil, fmt.Errorf("%w: writer, reader, metadata and serializer are required", ErrIllegalArgument)
	}
	c := &Client[T]{
		segmentID:  segmentID,
		writer:     writer,
		reader:     reader,
		meta:       meta,
		token:      token,
		serializer: serializer,
	}
	c.applyDefaultsAndOptions(opts)
	c.metrics = newClientMetrics(c.reg)
	return c, nil
}

// SegmentID returns the identifier of the segment this Client is bound
// to, constant for the Client's lifetime.
func (c *Client[T]) SegmentID() string { return c.segmentID }

func (c *Client[T]) checkClosed() error {
	if atomic.LoadUint32(&c.closed) != 0 {
		return ErrClosed
	}
	return nil
}

// Write performs an unconditional append.
func (c *Client[T]) Write(ctx context.Context, value T) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	payload, err := c.serializer.Serialize(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalArgument, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkClosed(); err != nil {
		return err
	}

	ev := &segment.PendingEvent{
		Payload: payload,
		Done:    make(chan segment.AppendResult, 1),
	}
	if err := c.writer.Submit(ctx, ev); err != nil {
		return c.translateAppendErr(err)
	}
	if err := c.writer.Flush(ctx); err != nil {
		return c.translateAppendErr(err)
	}

	select {
	case res := <-ev.Done:
		if res.Err != nil {
			return c.translateAppendErr(res.Err)
		}
		c.metrics.appends.Inc()
		c.metrics.bytesWritten.Add(float64(len(payload)))
		return nil
	case <-ctx.Done():
		return wrapTransport(ctx.Err())
	}
}

// WriteIfAt performs a conditional append. It returns
// (revision, true, nil) when the append committed, or (nil, false, nil)
// when it was rejected because the write offset had moved; that
// rejection is not an error.
func (c *Client[T]) WriteIfAt(ctx context.Context, expected Revision, value T) (Revision, bool, error) {
	if err := c.checkClosed(); err != nil {
		return nil, false, err
	}
	if expected == nil {
		return nil, false, fmt.Errorf("%w: expected revision is nil", ErrIllegalArgument)
	}
	if expected.SegmentID() != c.segmentID {
		return nil, false, fmt.Errorf("%w: revision is bound to a different segment", ErrIllegalArgument)
	}
	payload, err := c.serializer.Serialize(value)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrIllegalArgument, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkClosed(); err != nil {
		return nil, false, err
	}

	expectedOffset := expected.ByteOffset()
	ev := &segment.PendingEvent{
		Payload:        payload,
		ExpectedOffset: &expectedOffset,
		Done:           make(chan segment.AppendResult, 1),
	}
	if err := c.writer.Submit(ctx, ev); err != nil {
		return nil, false, c.translateAppendErr(err)
	}
	if err := c.writer.Flush(ctx); err != nil {
		return nil, false, c.translateAppendErr(err)
	}

	select {
	case res := <-ev.Done:
		if res.Err != nil {
			return nil, false, c.translateAppendErr(res.Err)
		}
		if !res.Committed {
			c.metrics.conditionalAppends.WithLabelValues("rejected").Inc()
			return nil, false, nil
		}
		c.metrics.conditionalAppends.WithLabelValues("committed").Inc()
		c.metrics.bytesWritten.Add(float64(len(payload)))
		return revisionAfter(c.segmentID, expectedOffset, len(payload)), true, nil
	case <-ctx.Done():
		return nil, false, wrapTransport(ctx.Err())
	}
}

// translateAppendErr maps a sealed segment observed mid-append to
// CorruptedState; everything else is an unknown/transport error. Must
// be called with mu held.
func (c *Client[T]) translateAppendErr(err error) error {
	if errors.Is(err, segment.ErrSealed) {
		c.metrics.corruptedStateErrors.Inc()
		return ErrCorruptedState
	}
	return wrapTransport(err)
}
