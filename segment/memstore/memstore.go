// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package memstore is a volatile, in-process implementation of the
// segment.Writer/Reader/Metadata contracts. It is useful both for
// Client tests and for library consumers who want a throwaway RSC (e.g.
// scratch coordinator state in tests of code built on top of this
// client).
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/immutable"

	"github.com/quorumline/revstream/segment"
)

// Store holds one segment's state: its framed byte log, its readable
// range, and its attribute table (including the mark slot).
type Store struct {
	mu sync.Mutex

	segmentID string

	// frames maps a frame's starting offset to its encoded bytes.
	frames         *immutable.SortedMap[int64, []byte]
	startingOffset int64
	writeOffset    int64
	sealed         bool
	closed         bool

	attrs map[uint32]int64
}

// New creates an empty store for segmentID.
func New(segmentID string) *Store {
	return &Store{
		segmentID: segmentID,
		frames:    &immutable.SortedMap[int64, []byte]{},
		attrs:     make(map[uint32]int64),
	}
}

// Seal marks the segment sealed: subsequent appends observe
// segment.ErrSealed, mirroring a real provider rolling to a new segment
// or rejecting writes after some external sealing event.
func (s *Store) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
}

// Writer returns a segment.Writer bound to this store.
func (s *Store) Writer() *Writer { return &Writer{s: s} }

// Reader returns a fresh segment.Reader bound to this store, positioned
// at offset 0. A Client owns its reader exclusively for its lifetime, so
// callers should create exactly one per Client.
func (s *Store) Reader() *Reader { return &Reader{s: s} }

// Metadata returns a segment.Metadata bound to this store.
func (s *Store) Metadata() *Metadata { return &Metadata{s: s} }

func (s *Store) commit(ev *segment.PendingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		ev.Done <- segment.AppendResult{Err: segment.ErrSealed}
		return
	}
	if ev.ExpectedOffset != nil && *ev.ExpectedOffset != s.writeOffset {
		ev.Done <- segment.AppendResult{Committed: false}
		return
	}

	framed, err := segment.EncodeFrame(ev.Payload)
	if err != nil {
		ev.Done <- segment.AppendResult{Err: err}
		return
	}

	start := s.writeOffset
	s.frames = s.frames.Set(start, framed)
	s.writeOffset = start + int64(len(framed))
	ev.Done <- segment.AppendResult{Committed: true}
}

// Writer implements segment.Writer against an in-memory Store. Each
// submitted event is resolved on its own goroutine to preserve the
// asynchronous-completion contract the RSC is built against, while the
// store's mutex keeps actual state transitions serialized.
type Writer struct {
	s *Store
}

func (w *Writer) Submit(ctx context.Context, ev *segment.PendingEvent) error {
	go w.s.commit(ev)
	return nil
}

func (w *Writer) Flush(ctx context.Context) error { return nil }

func (w *Writer) Close() error {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	if w.s.sealed {
		return segment.ErrSealed
	}
	return nil
}

// Reader implements segment.Reader against an in-memory Store.
type Reader struct {
	s      *Store
	offset int64
}

func (r *Reader) SetOffset(o int64) error {
	r.offset = o
	return nil
}

func (r *Reader) Read(ctx context.Context) ([]byte, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.offset < r.s.startingOffset {
		return nil, segment.ErrSegmentTruncated
	}
	framed, ok := r.s.frames.Get(r.offset)
	if !ok {
		if r.offset >= r.s.writeOffset {
			return nil, segment.ErrEndOfSegment
		}
		return nil, fmt.Errorf("memstore: no frame boundary at offset %d", r.offset)
	}
	payload, err := segment.DecodeFrame(framed)
	if err != nil {
		return nil, err
	}
	r.offset += int64(len(framed))
	return payload, nil
}

func (r *Reader) Offset() int64 { return r.offset }

func (r *Reader) Close() error { return nil }

// Metadata implements segment.Metadata against an in-memory Store.
type Metadata struct {
	s *Store
}

func (m *Metadata) Info(ctx context.Context) (segment.Info, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return segment.Info{
		SegmentID:      m.s.segmentID,
		StartingOffset: m.s.startingOffset,
		WriteOffset:    m.s.writeOffset,
	}, nil
}

func (m *Metadata) CurrentWriteOffset(ctx context.Context) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.writeOffset, nil
}

func (m *Metadata) FetchAttribute(ctx context.Context, slot uint32, token segment.Token) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	v, ok := m.s.attrs[slot]
	if !ok {
		return segment.NullValue, nil
	}
	return v, nil
}

func (m *Metadata) CompareAndSetAttribute(ctx context.Context, slot uint32, expected, newVal int64, token segment.Token) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cur, ok := m.s.attrs[slot]
	if !ok {
		cur = segment.NullValue
	}
	if cur != expected {
		return false, nil
	}
	m.s.attrs[slot] = newVal
	return true, nil
}

func (m *Metadata) Truncate(ctx context.Context, segmentID string, offset int64, token segment.Token) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	it := m.s.frames.Iterator()
	for !it.Done() {
		k, _, _ := it.Next()
		if k >= offset {
			break
		}
		m.s.frames = m.s.frames.Delete(k)
	}
	if offset > m.s.startingOffset {
		m.s.startingOffset = offset
	}
	return nil
}

func (m *Metadata) Close() error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.closed = true
	return nil
}
