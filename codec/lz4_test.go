// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package codec_test

import (
	"strings"
	"testing"

	gofuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/quorumline/revstream/codec"
)

func TestCompressingSerializerRoundTripCompressible(t *testing.T) {
	s := codec.CompressingSerializer[string]{Inner: codec.JSON[string]{}}

	want := strings.Repeat("abababab", 512)
	data, err := s.Serialize(want)
	require.NoError(t, err)
	require.Less(t, len(data), len(want), "a highly repetitive payload should compress")

	got, err := s.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestCompressingSerializerRoundTripIncompressible(t *testing.T) {
	s := codec.CompressingSerializer[[]byte]{Inner: rawBytes{}}

	f := gofuzz.New().NilChance(0)
	var want []byte
	f.NumElements(256, 256).Fuzz(&want)

	data, err := s.Serialize(want)
	require.NoError(t, err)

	got, err := s.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// rawBytes is a trivial segment.Serializer used only to exercise
// CompressingSerializer against raw random bytes.
type rawBytes struct{}

func (rawBytes) Serialize(v []byte) ([]byte, error) { return v, nil }
func (rawBytes) Deserialize(data []byte) ([]byte, error) {
	return data, nil
}
