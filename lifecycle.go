// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package revstream

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-kit/log/level"

	"github.com/quorumline/revstream/segment"
)

// OldestRevision returns the revision at the segment's current starting
// offset. No guard is required: it is a single metadata read.
func (c *Client[T]) OldestRevision(ctx context.Context) (Revision, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	info, err := c.meta.Info(ctx)
	if err != nil {
		return nil, wrapTransport(err)
	}
	return newRevision(c.segmentID, info.StartingOffset), nil
}

// LatestRevision returns the revision at the segment's current write
// offset, under the guard.
func (c *Client[T]) LatestRevision(ctx context.Context) (Revision, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	off, err := c.meta.CurrentWriteOffset(ctx)
	if err != nil {
		return nil, wrapTransport(err)
	}
	return newRevision(c.segmentID, off), nil
}

// ReadFrom returns a snapshot-bounded StreamIterator over
// [start.ByteOffset(), write_offset) as observed at the moment of the
// call.
func (c *Client[T]) ReadFrom(ctx context.Context, start Revision) (*StreamIterator[T], error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if start == nil {
		return nil, fmt.Errorf("%w: start revision is nil", ErrIllegalArgument)
	}
	if start.SegmentID() != c.segmentID {
		return nil, fmt.Errorf("%w: revision is bound to a different segment", ErrIllegalArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := c.meta.Info(ctx)
	if err != nil {
		return nil, wrapTransport(err)
	}
	if start.ByteOffset() < info.StartingOffset {
		return nil, ErrTruncatedData
	}

	c.metrics.iteratorsCreated.Inc()
	return &StreamIterator[T]{
		c:          c,
		cursor:     start.ByteOffset(),
		upperBound: info.WriteOffset,
	}, nil
}

// TruncateTo instructs the segment provider to drop its prefix up to
// r.ByteOffset(). After success, revisions strictly less than r become
// unreadable.
func (c *Client[T]) TruncateTo(ctx context.Context, r Revision) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: truncation revision is nil", ErrIllegalArgument)
	}
	if r.SegmentID() != c.segmentID {
		return fmt.Errorf("%w: revision is bound to a different segment", ErrIllegalArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.meta.Truncate(ctx, c.segmentID, r.ByteOffset(), c.token)
	c.metrics.truncations.WithLabelValues(fmt.Sprintf("%t", err == nil)).Inc()
	if err != nil {
		return wrapTransport(err)
	}
	return nil
}

// Close releases the writer, metadata handle and reader, in that order,
// tolerating a sealed-segment report from the writer's close as a
// warning rather than a fatal error. Close is idempotent: a second call
// is a no-op.
func (c *Client[T]) Close() error {
	if old := atomic.SwapUint32(&c.closed, 1); old != 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writer.Close(); err != nil {
		if errors.Is(err, segment.ErrSealed) {
			level.Warn(c.logger).Log("msg", "segment sealed on close", "segment_id", c.segmentID)
		} else {
			level.Error(c.logger).Log("msg", "error closing segment writer", "segment_id", c.segmentID, "err", err)
		}
	}
	if err := c.meta.Close(); err != nil {
		level.Error(c.logger).Log("msg", "error closing segment metadata", "segment_id", c.segmentID, "err", err)
	}
	if err := c.reader.Close(); err != nil {
		level.Error(c.logger).Log("msg", "error closing segment reader", "segment_id", c.segmentID, "err", err)
	}
	return nil
}
