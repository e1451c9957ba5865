// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package diskseg is a durable, local implementation of the
// segment.Writer/Reader/Metadata contracts: record bytes live in a plain
// append-only file, while the readable range, seal state and the
// MARK_SLOT attribute live in a go.etcd.io/bbolt database so they share
// the segment's on-disk lifetime, the same lifetime the persistent mark
// needs.
package diskseg

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/quorumline/revstream/segment"
)

var (
	metaBucket  = []byte("meta")
	attrBucket  = []byte("attrs")
	keyStarting = []byte("starting_offset")
	keyWrite    = []byte("write_offset")
	keySealed   = []byte("sealed")
	keySegID    = []byte("segment_id")
)

// errWriterClosed is returned by Writer.Submit once Writer.Close has
// been called, rather than sending on the (never-closed) work queue.
var errWriterClosed = fmt.Errorf("diskseg: writer closed")

// Store owns one segment's on-disk state: a data file for framed record
// bytes and a bbolt database for metadata and attributes.
type Store struct {
	mu sync.Mutex

	segmentID string
	dataPath  string
	dataFile  *os.File
	db        *bolt.DB

	startingOffset int64
	writeOffset    int64
	sealed         bool

	queue     chan *segment.PendingEvent
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open creates or recovers the segment rooted at dir, which must already
// exist. A fresh segment is assigned a new uuid as its segment_id; a
// recovered one keeps the id found in its metadata database.
func Open(dir string) (*Store, error) {
	dataPath := filepath.Join(dir, "segment.data")
	dataFile, err := os.OpenFile(dataPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("diskseg: open data file: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "meta.db"), 0o600, nil)
	if err != nil {
		dataFile.Close()
		return nil, fmt.Errorf("diskseg: open meta db: %w", err)
	}

	s := &Store{
		dataPath: dataPath,
		dataFile: dataFile,
		db:       db,
		queue:    make(chan *segment.PendingEvent, 256),
		quit:     make(chan struct{}),
	}

	if err := s.recoverOrInit(); err != nil {
		db.Close()
		dataFile.Close()
		return nil, err
	}

	s.wg.Add(1)
	go s.runCommitLoop()

	return s, nil
}

func (s *Store) recoverOrInit() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(attrBucket); err != nil {
			return err
		}

		if id := meta.Get(keySegID); id != nil {
			s.segmentID = string(id)
			s.startingOffset = int64(binary.BigEndian.Uint64(meta.Get(keyStarting)))
			s.writeOffset = int64(binary.BigEndian.Uint64(meta.Get(keyWrite)))
			s.sealed = meta.Get(keySealed) != nil && meta.Get(keySealed)[0] == 1
			return nil
		}

		s.segmentID = uuid.NewString()
		if err := meta.Put(keySegID, []byte(s.segmentID)); err != nil {
			return err
		}
		return putUint64Pair(meta, keyStarting, keyWrite, 0, 0)
	})
}

func putUint64Pair(b *bolt.Bucket, k1, k2 []byte, v1, v2 uint64) error {
	var buf1, buf2 [8]byte
	binary.BigEndian.PutUint64(buf1[:], v1)
	binary.BigEndian.PutUint64(buf2[:], v2)
	if err := b.Put(k1, buf1[:]); err != nil {
		return err
	}
	return b.Put(k2, buf2[:])
}

// SegmentID returns the persistent identifier assigned to this segment.
func (s *Store) SegmentID() string { return s.segmentID }

// Seal marks the segment sealed and persists that fact, so recovery
// after a restart observes it too. Subsequent appends fail with
// segment.ErrSealed.
func (s *Store) Seal() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(keySealed, []byte{1})
	})
}

// Writer returns a segment.Writer bound to this store.
func (s *Store) Writer() *Writer { return &Writer{s: s} }

// Reader returns a fresh segment.Reader bound to this store.
func (s *Store) Reader() *Reader { return &Reader{s: s} }

// Metadata returns a segment.Metadata bound to this store.
func (s *Store) Metadata() *Metadata { return &Metadata{s: s} }

func (s *Store) runCommitLoop() {
	defer s.wg.Done()
	for {
		select {
		case ev := <-s.queue:
			s.commit(ev)
		case <-s.quit:
			// Drain whatever made it into the queue before Close fired so
			// that no submitted event is left without a Done resolution.
			for {
				select {
				case ev := <-s.queue:
					s.commit(ev)
				default:
					return
				}
			}
		}
	}
}

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
	if _, err := s.dataFile.WriteAt(framed, start); err != nil {
		ev.Done <- segment.AppendResult{Err: fmt.Errorf("diskseg: write: %w", err)}
		return
	}
	if err := s.dataFile.Sync(); err != nil {
		ev.Done <- segment.AppendResult{Err: fmt.Errorf("diskseg: sync: %w", err)}
		return
	}
	newOffset := start + int64(len(framed))

	// bbolt fsyncs on Update by default, so once this returns the write
	// offset is durable alongside the bytes just synced above.
	err = s.db.Update(func(tx *bolt.Tx) error {
		return putUint64Pair(tx.Bucket(metaBucket), keyStarting, keyWrite, uint64(s.startingOffset), uint64(newOffset))
	})
	if err != nil {
		ev.Done <- segment.AppendResult{Err: fmt.Errorf("diskseg: persist write offset: %w", err)}
		return
	}

	s.writeOffset = newOffset
	ev.Done <- segment.AppendResult{Committed: true}
}

// Writer implements segment.Writer against a Store.
type Writer struct {
	s *Store
}

func (w *Writer) Submit(ctx context.Context, ev *segment.PendingEvent) error {
	select {
	case w.s.queue <- ev:
		return nil
	case <-w.s.quit:
		return errWriterClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush is a no-op: Submit already hands the event to the commit loop
// synchronously, so dispatch is complete by the time Submit returns.
// Each event's Done is only resolved once its bytes have been fsynced
// by commit, so the caller's await on Done (not Flush) is what the
// durability guarantee rides on.
func (w *Writer) Flush(ctx context.Context) error {
	return nil
}

func (w *Writer) Close() error {
	w.s.mu.Lock()
	sealed := w.s.sealed
	w.s.mu.Unlock()
	w.s.closeOnce.Do(func() { close(w.s.quit) })
	w.s.wg.Wait()
	if sealed {
		return segment.ErrSealed
	}
	return nil
}

// Reader implements segment.Reader against a Store.
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
	starting, writeOffset := r.s.startingOffset, r.s.writeOffset
	r.s.mu.Unlock()

	if r.offset < starting {
		return nil, segment.ErrSegmentTruncated
	}
	if r.offset >= writeOffset {
		return nil, segment.ErrEndOfSegment
	}

	headerLen := int(segment.FrameOverhead)
	header := make([]byte, headerLen)
	if _, err := r.s.dataFile.ReadAt(header, r.offset); err != nil {
		return nil, fmt.Errorf("diskseg: read frame header: %w", err)
	}
	length := binary.LittleEndian.Uint32(header[1:])
	framed := make([]byte, headerLen+int(length))
	copy(framed, header)
	if length > 0 {
		if _, err := r.s.dataFile.ReadAt(framed[headerLen:], r.offset+int64(headerLen)); err != nil {
			return nil, fmt.Errorf("diskseg: read frame body: %w", err)
		}
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

// Metadata implements segment.Metadata against a Store.
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

func attrKey(slot uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], slot)
	return buf[:]
}

func (m *Metadata) FetchAttribute(ctx context.Context, slot uint32, token segment.Token) (int64, error) {
	var v int64 = segment.NullValue
	err := m.s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(attrBucket).Get(attrKey(slot))
		if raw == nil {
			return nil
		}
		v = int64(binary.BigEndian.Uint64(raw))
		return nil
	})
	return v, err
}

func (m *Metadata) CompareAndSetAttribute(ctx context.Context, slot uint32, expected, newVal int64, token segment.Token) (bool, error) {
	var won bool
	err := m.s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(attrBucket)
		cur := segment.NullValue
		if raw := b.Get(attrKey(slot)); raw != nil {
			cur = int64(binary.BigEndian.Uint64(raw))
		}
		if cur != expected {
			won = false
			return nil
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(newVal))
		if err := b.Put(attrKey(slot), buf[:]); err != nil {
			return err
		}
		won = true
		return nil
	})
	return won, err
}

func (m *Metadata) Truncate(ctx context.Context, segmentID string, offset int64, token segment.Token) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if offset > m.s.startingOffset {
		m.s.startingOffset = offset
	}
	return m.s.db.Update(func(tx *bolt.Tx) error {
		return putUint64Pair(tx.Bucket(metaBucket), keyStarting, keyWrite, uint64(m.s.startingOffset), uint64(m.s.writeOffset))
	})
}

func (m *Metadata) Close() error {
	if err := m.s.db.Close(); err != nil {
		return err
	}
	return m.s.dataFile.Close()
}
