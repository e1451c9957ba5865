// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package revstream

import (
	"context"

	"github.com/quorumline/revstream/segment"
)

// MarkValue represents the persistent mark's content: either unset, or a
// revision previously produced by this Client. It is the idiomatic Go
// shape of an optional revision.
type MarkValue struct {
	rev Revision
	set bool
}

// Marked wraps r as a set mark value.
func Marked(r Revision) MarkValue { return MarkValue{rev: r, set: true} }

// Unmarked is the "no mark" value, translated to NULL_VALUE on the wire.
func Unmarked() MarkValue { return MarkValue{} }

// Revision returns the wrapped revision and whether the mark is set.
func (m MarkValue) Revision() (Revision, bool) { return m.rev, m.set }

func (m MarkValue) toOffset() int64 {
	if !m.set {
		return segment.NullValue
	}
	return m.rev.ByteOffset()
}

// GetMark fetches the persisted MARK_SLOT attribute under the guard. It
// returns Unmarked when the slot holds the provider's NULL_VALUE
// sentinel.
func (c *Client[T]) GetMark(ctx context.Context) (MarkValue, error) {
	if err := c.checkClosed(); err != nil {
		return MarkValue{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.meta.FetchAttribute(ctx, segment.MarkSlot, c.token)
	if err != nil {
		return MarkValue{}, wrapTransport(err)
	}
	if v == segment.NullValue {
		return Unmarked(), nil
	}
	return Marked(newRevision(c.segmentID, v)), nil
}

// CompareAndSetMark atomically moves the mark from expected to newVal.
// It returns true iff the persisted slot held expected at the moment of
// the call, in which case it now holds newVal. The Client enforces no
// monotonicity of its own: callers compose CAS calls to get whatever
// ordering discipline they need, including deliberately moving the mark
// backwards.
func (c *Client[T]) CompareAndSetMark(ctx context.Context, expected, newVal MarkValue) (bool, error) {
	if err := c.checkClosed(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ok, err := c.meta.CompareAndSetAttribute(ctx, segment.MarkSlot, expected.toOffset(), newVal.toOffset(), c.token)
	if err != nil {
		return false, wrapTransport(err)
	}
	if ok {
		c.metrics.markCompareAndSet.WithLabelValues("won").Inc()
	} else {
		c.metrics.markCompareAndSet.WithLabelValues("lost").Inc()
	}
	return ok, nil
}
