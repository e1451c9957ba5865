// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"encoding/binary"
	"fmt"
)

// frameHeaderLen is the fixed width of the header every provider in this
// module writes ahead of a record's payload: one type tag byte followed
// by a 4-byte little-endian length.
const frameHeaderLen = 5

// FrameOverhead is the FRAME_OVERHEAD constant in the revision algebra:
// the number of bytes a conforming segment provider prepends to every
// record. revision_after(base, size) = base + size + FrameOverhead.
const FrameOverhead int64 = frameHeaderLen

// MaxEntrySize bounds a single record's payload so a corrupt length
// prefix can't cause an unbounded allocation.
const MaxEntrySize = 64 * 1024 * 1024

type frameType uint8

const (
	frameTypeRecord frameType = 1
)

type frameHeader struct {
	typ frameType
	len uint32
}

func writeFrameHeader(buf []byte, fh frameHeader) {
	buf[0] = byte(fh.typ)
	binary.LittleEndian.PutUint32(buf[1:], fh.len)
}

func readFrameHeader(buf []byte) (frameHeader, error) {
	if len(buf) < frameHeaderLen {
		return frameHeader{}, fmt.Errorf("segment: short frame header (%d bytes)", len(buf))
	}
	fh := frameHeader{
		typ: frameType(buf[0]),
		len: binary.LittleEndian.Uint32(buf[1:]),
	}
	if fh.typ != frameTypeRecord {
		return fh, fmt.Errorf("segment: unknown frame type %d", fh.typ)
	}
	return fh, nil
}

// EncodeFrame returns payload wrapped in its on-segment framing: header
// followed by the raw bytes.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaxEntrySize {
		return nil, fmt.Errorf("segment: payload of %d bytes exceeds MaxEntrySize (%d)", len(payload), MaxEntrySize)
	}
	buf := make([]byte, frameHeaderLen+len(payload))
	writeFrameHeader(buf, frameHeader{typ: frameTypeRecord, len: uint32(len(payload))})
	copy(buf[frameHeaderLen:], payload)
	return buf, nil
}

// DecodeFrame splits a framed byte slice back into its payload, checking
// the header is well-formed and the slice is at least as long as the
// header says. Bytes beyond the end of the frame are ignored.
func DecodeFrame(framed []byte) ([]byte, error) {
	fh, err := readFrameHeader(framed)
	if err != nil {
		return nil, err
	}
	if fh.len > MaxEntrySize {
		return nil, fmt.Errorf("segment: frame header indicates a record larger than MaxEntrySize (%d bytes)", MaxEntrySize)
	}
	want := frameHeaderLen + int(fh.len)
	if len(framed) < want {
		return nil, fmt.Errorf("segment: short frame body, want %d got %d bytes", want, len(framed))
	}
	return framed[frameHeaderLen:want], nil
}
