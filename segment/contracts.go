// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package segment defines the contracts a Revisioned Stream Client (RSC)
// consumes from its backing append-only segment: a writer, a reader, a
// metadata/attribute handle and a pluggable value serializer. The RSC
// never talks to a concrete store directly; it only ever sees these
// interfaces, so any conforming provider (in-memory, disk-backed, or a
// real distributed segment store) can sit underneath it.
package segment

import (
	"context"
	"errors"
)

// ErrSealed is returned by Writer.Close, or observed on an AppendResult,
// when the segment has been sealed and can accept no further appends.
var ErrSealed = errors.New("segment: sealed")

// ErrEndOfSegment is raised by Reader.Read when the underlying bytes run
// out before the caller's expected upper bound, indicating the segment
// shrank, a contract violation by the provider.
var ErrEndOfSegment = errors.New("segment: unexpected end of segment")

// ErrSegmentTruncated is raised by Reader.Read when the requested offset
// falls before the segment's current starting offset.
var ErrSegmentTruncated = errors.New("segment: truncated")

// NullValue is the provider-defined sentinel for "attribute slot unset".
const NullValue int64 = -1

// MarkSlot is the well-known attribute slot the RSC reserves for its
// persistent mark.
const MarkSlot uint32 = 1

// Token is an opaque delegation credential passed through to metadata
// calls that require authorization. The RSC neither parses nor refreshes
// it; it only threads it from construction to every Metadata call.
type Token struct {
	raw []byte
}

// NewToken wraps a raw credential blob in a Token.
func NewToken(raw []byte) Token {
	cp := append([]byte(nil), raw...)
	return Token{raw: cp}
}

// Bytes returns the raw credential bytes.
func (t Token) Bytes() []byte { return t.raw }

// AppendResult is what a PendingEvent's Done channel is fed once the
// writer has resolved the append, successfully or not.
type AppendResult struct {
	// Committed is meaningful only for conditional events (ExpectedOffset
	// != nil): true if the append happened, false if it was rejected
	// because the write offset had moved.
	Committed bool
	// Err carries any failure of the append itself (including a sealed
	// segment observed mid-append). nil on success or legitimate
	// rejection.
	Err error
}

// PendingEvent is one record queued with a Writer. ExpectedOffset, when
// non-nil, turns the append into a conditional append: the writer must
// commit it only if the segment's write offset equals *ExpectedOffset at
// commit time.
type PendingEvent struct {
	Payload        []byte
	ExpectedOffset *int64
	Done           chan AppendResult
}

// Writer is the append path of a segment, consumed by the RSC's write
// and write-if-at operations.
type Writer interface {
	// Submit enqueues ev. It must not block on ev's resolution; the
	// caller waits on ev.Done separately.
	Submit(ctx context.Context, ev *PendingEvent) error
	// Flush ensures every previously submitted event is dispatched for
	// commit. It does not imply the events have resolved.
	Flush(ctx context.Context) error
	// Close releases the writer. A sealed segment observed here is
	// reported as ErrSealed and is a warning, not a fatal error.
	Close() error
}

// Reader is the iteration path of a segment, consumed by StreamIterator.
type Reader interface {
	// SetOffset seeks the reader so the next Read starts at o.
	SetOffset(o int64) error
	// Read performs one framed read starting at the current offset and
	// returns the deserialized-ready payload bytes (framing stripped).
	Read(ctx context.Context) ([]byte, error)
	// Offset returns the reader's current position, i.e. the byte
	// immediately after the most recently read record.
	Offset() int64
	Close() error
}

// Info is a snapshot of a segment's readable byte range.
type Info struct {
	SegmentID      string
	StartingOffset int64
	WriteOffset    int64
}

// Metadata is the segment's control-plane handle: range queries and the
// attribute store backing the mark.
type Metadata interface {
	// Info returns a consistent (starting_offset, write_offset) pair.
	Info(ctx context.Context) (Info, error)
	// CurrentWriteOffset is a narrower form of Info used by the latest
	// revision query.
	CurrentWriteOffset(ctx context.Context) (int64, error)
	// FetchAttribute returns the value at slot, or NullValue if unset.
	FetchAttribute(ctx context.Context, slot uint32, token Token) (int64, error)
	// CompareAndSetAttribute atomically sets slot to newVal iff its
	// current value equals expected, returning whether it did.
	CompareAndSetAttribute(ctx context.Context, slot uint32, expected, newVal int64, token Token) (bool, error)
	// Truncate instructs the provider to drop all bytes below offset.
	Truncate(ctx context.Context, segmentID string, offset int64, token Token) error
	Close() error
}

// Serializer is the symmetric pair the RSC uses to turn typed values
// into the byte payloads it hands to Writer, and back on read. It must
// be deterministic and size-bounded by the segment's maximum record
// size; both responsibilities belong to the implementation, not the RSC.
type Serializer[T any] interface {
	Serialize(v T) ([]byte, error)
	Deserialize(data []byte) (T, error)
}
