// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package revstream

import (
	"context"
	"errors"
	"fmt"

	"github.com/quorumline/revstream/segment"
)

// StreamIterator is a lazy, snapshot-bounded reader produced by
// Client.ReadFrom. It is single-pass and not restartable: once
// exhausted, a caller wanting newer data must call ReadFrom again.
// It is safe to interleave calls to Next with Write*/mark calls on the
// same Client: each Next acquires the Client's guard for its duration,
// though doing so slows both sides.
type StreamIterator[T any] struct {
	c          *Client[T]
	cursor     int64
	upperBound int64
}

// HasNext reports whether the cursor is strictly below the snapshot
// upper bound captured when the iterator was created. Records appended
// after creation are never observed by this iterator.
func (it *StreamIterator[T]) HasNext() bool {
	return it.cursor < it.upperBound
}

// Next seeks the segment reader to the current cursor, performs one
// framed read, advances the cursor to the reader's authoritative
// post-read position, and deserializes the payload.
func (it *StreamIterator[T]) Next(ctx context.Context) (Revision, T, error) {
	var zero T

	it.c.mu.Lock()
	defer it.c.mu.Unlock()

	if err := it.c.checkClosed(); err != nil {
		return nil, zero, err
	}
	if !it.HasNext() {
		return nil, zero, ErrNoSuchElement
	}

	if err := it.c.reader.SetOffset(it.cursor); err != nil {
		return nil, zero, it.translateReadErr(err)
	}
	payload, err := it.c.reader.Read(ctx)
	if err != nil {
		return nil, zero, it.translateReadErr(err)
	}

	newPos := it.c.reader.Offset()
	if newPos > it.upperBound {
		// The reader crossed our frozen snapshot bound; since appends
		// during iteration never shrink the readable range this can only
		// mean the provider returned a record that extends past where it
		// claimed the write offset was, which we treat the same as the
		// end-of-segment contract violation below.
		return nil, zero, fmt.Errorf("revstream: reader advanced past snapshot bound: %d > %d", newPos, it.upperBound)
	}

	val, err := it.c.serializer.Deserialize(payload)
	if err != nil {
		return nil, zero, fmt.Errorf("%w: %v", ErrIllegalArgument, err)
	}

	rev := newRevision(it.c.segmentID, newPos)
	it.cursor = newPos

	it.c.metrics.entriesRead.Inc()
	it.c.metrics.entryBytesRead.Add(float64(len(payload)))

	return rev, val, nil
}

// translateReadErr implements the tie-break and truncation handling for
// a read. Must be called with it.c.mu held.
func (it *StreamIterator[T]) translateReadErr(err error) error {
	switch {
	case errors.Is(err, segment.ErrSegmentTruncated):
		return ErrTruncatedData
	case errors.Is(err, segment.ErrEndOfSegment):
		// The underlying reader hit end-of-segment before our snapshot
		// upper bound: the segment shrank underneath us, which is a
		// contract violation by the provider, not an ordinary error.
		return fmt.Errorf("revstream: segment shrank below snapshot upper bound %d: %w", it.upperBound, err)
	default:
		return wrapTransport(err)
	}
}
