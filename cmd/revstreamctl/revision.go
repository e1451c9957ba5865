// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/quorumline/revstream"
)

func revisionToString(r revstream.Revision) string {
	b, err := r.MarshalBinary()
	if err != nil {
		return fmt.Sprintf("<unencodable: %v>", err)
	}
	return hex.EncodeToString(b)
}

func parseRevision(s string) (revstream.Revision, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid revision %q: %w", s, err)
	}
	return revstream.UnmarshalRevision(b)
}
