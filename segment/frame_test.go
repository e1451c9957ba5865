// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	for _, payload := range [][]byte{
		nil,
		{},
		[]byte("hello"),
		bytes.Repeat([]byte{0xAB}, 4096),
	} {
		framed, err := EncodeFrame(payload)
		require.NoError(t, err)
		require.Len(t, framed, len(payload)+frameHeaderLen)

		got, err := DecodeFrame(framed)
		require.NoError(t, err)
		// The header carries only a length, so a nil payload decodes as an
		// empty, non-nil slice.
		want := payload
		if want == nil {
			want = []byte{}
		}
		require.Equal(t, want, got)
	}
}

func TestEncodeFrameRejectsOversizedPayload(t *testing.T) {
	_, err := EncodeFrame(make([]byte, MaxEntrySize+1))
	require.Error(t, err)
}

func TestDecodeFrameRejectsShortBuffers(t *testing.T) {
	_, err := DecodeFrame([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestDecodeFrameRejectsUnknownType(t *testing.T) {
	framed, err := EncodeFrame([]byte("x"))
	require.NoError(t, err)
	framed[0] = 0xFF
	_, err = DecodeFrame(framed)
	require.Error(t, err)
}

func TestDecodeFrameRejectsTruncatedBody(t *testing.T) {
	framed, err := EncodeFrame([]byte("hello world"))
	require.NoError(t, err)
	_, err = DecodeFrame(framed[:len(framed)-2])
	require.Error(t, err)
}
