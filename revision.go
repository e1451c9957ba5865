// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package revstream

import (
	"encoding/binary"
	"fmt"

	"github.com/quorumline/revstream/segment"
)

// Revision is an opaque, totally ordered position within one segment.
// Consumers must not synthesize a Revision themselves; the only ones
// that exist are those returned by a Client, from a successful append,
// from LatestRevision/OldestRevision, from GetMark, or decoded from
// bytes a Client previously produced via MarshalBinary.
type Revision interface {
	// SegmentID identifies the backing segment. Constant for the
	// lifetime of the Client that produced the revision.
	SegmentID() string
	// ByteOffset is the position within the segment that participates
	// in ordering.
	ByteOffset() int64
	// Compare returns -1, 0 or 1 as the revision is less than, equal to,
	// or greater than other. Comparing revisions from different
	// segments is undefined and panics; callers must not do it.
	Compare(other Revision) int
	// Equal reports whether two revisions refer to the same position in
	// the same segment and generation.
	Equal(other Revision) bool
	// MarshalBinary encodes the revision so it can be persisted or
	// transmitted and later reconstructed with UnmarshalRevision.
	MarshalBinary() ([]byte, error)
	String() string
}

// revision is the only concrete implementation of Revision. generation
// is reserved for future use and always 0 in this design.
type revision struct {
	segmentID  string
	byteOffset int64
	generation int64
}

func newRevision(segmentID string, byteOffset int64) Revision {
	return revision{segmentID: segmentID, byteOffset: byteOffset}
}

func (r revision) SegmentID() string { return r.segmentID }
func (r revision) ByteOffset() int64 { return r.byteOffset }

func (r revision) Compare(other Revision) int {
	o, ok := other.(revision)
	if !ok || o.segmentID != r.segmentID {
		panic("revstream: cannot compare revisions across segments")
	}
	switch {
	case r.byteOffset < o.byteOffset:
		return -1
	case r.byteOffset > o.byteOffset:
		return 1
	default:
		return 0
	}
}

func (r revision) Equal(other Revision) bool {
	o, ok := other.(revision)
	if !ok {
		return false
	}
	return r.segmentID == o.segmentID && r.byteOffset == o.byteOffset && r.generation == o.generation
}

func (r revision) String() string {
	return fmt.Sprintf("revision{segment=%s offset=%d gen=%d}", r.segmentID, r.byteOffset, r.generation)
}

// MarshalBinary encodes as: 2-byte segment-id length, segment-id bytes,
// 8-byte offset, 8-byte generation, all little-endian.
func (r revision) MarshalBinary() ([]byte, error) {
	if len(r.segmentID) > 0xFFFF {
		return nil, fmt.Errorf("revstream: segment id too long to encode (%d bytes)", len(r.segmentID))
	}
	buf := make([]byte, 2+len(r.segmentID)+8+8)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(r.segmentID)))
	copy(buf[2:], r.segmentID)
	off := 2 + len(r.segmentID)
	binary.LittleEndian.PutUint64(buf[off:], uint64(r.byteOffset))
	binary.LittleEndian.PutUint64(buf[off+8:], uint64(r.generation))
	return buf, nil
}

// UnmarshalRevision decodes a Revision previously produced by
// MarshalBinary. Revisions are plain values and outlive the Client that
// produced them, so this is the supported way to rehydrate one (e.g.
// after storing it in a higher-level checkpoint).
func UnmarshalRevision(data []byte) (Revision, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: revision encoding too short", ErrIllegalArgument)
	}
	n := int(binary.LittleEndian.Uint16(data[0:2]))
	want := 2 + n + 16
	if len(data) != want {
		return nil, fmt.Errorf("%w: revision encoding has wrong length, want %d got %d", ErrIllegalArgument, want, len(data))
	}
	segID := string(data[2 : 2+n])
	off := 2 + n
	byteOffset := int64(binary.LittleEndian.Uint64(data[off:]))
	generation := int64(binary.LittleEndian.Uint64(data[off+8:]))
	if generation != 0 {
		return nil, fmt.Errorf("%w: non-zero generation is reserved", ErrIllegalArgument)
	}
	return revision{segmentID: segID, byteOffset: byteOffset, generation: generation}, nil
}

// revisionAfter implements the revision algebra this Client is built
// around: revision_after(base_offset, payload_size) = base_offset +
// payload_size + FRAME_OVERHEAD. The Client must never invent offsets
// any other way.
func revisionAfter(segmentID string, baseOffset int64, payloadSize int) Revision {
	return newRevision(segmentID, baseOffset+int64(payloadSize)+segment.FrameOverhead)
}
