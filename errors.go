// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package revstream

import (
	"errors"
	"fmt"
)

// Error kinds the Client surfaces. Conditional-append rejection is not
// one of these: it is a legitimate (nil, false, nil) return from
// WriteIfAt.
var (
	// ErrCorruptedState is returned when the underlying segment was
	// sealed during an append. The Client owns exactly one segment, so
	// this is outside its recovery envelope; it is not retried here.
	ErrCorruptedState = errors.New("revstream: segment corrupted (sealed during append)")

	// ErrTruncatedData is returned by ReadFrom, or raised from an
	// iterator's Next, when the requested position lies below the
	// segment's current starting offset.
	ErrTruncatedData = errors.New("revstream: requested position has been truncated")

	// ErrNoSuchElement is raised by an iterator's Next once HasNext is
	// false.
	ErrNoSuchElement = errors.New("revstream: iterator exhausted")

	// ErrIllegalArgument marks malformed inputs: nil revisions, cross-
	// segment revisions, and values the serializer fails to encode or
	// decode. A payload the segment provider rejects as too large is
	// surfaced as a TransportError, not as this.
	ErrIllegalArgument = errors.New("revstream: illegal argument")

	// ErrClosed is returned by any operation attempted after Close.
	ErrClosed = errors.New("revstream: client closed")
)

// TransportError wraps any unclassified asynchronous failure surfaced by
// the segment writer, reader or metadata provider.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("revstream: transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

func wrapTransport(err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Err: err}
}
