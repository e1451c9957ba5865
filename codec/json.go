// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package codec supplies default segment.Serializer implementations.
// Serialization is explicitly user-supplied; these exist so the CLI and
// examples have something to build against without forcing every
// consumer to write their own.
package codec

import "encoding/json"

// JSON is a segment.Serializer backed by encoding/json. It is
// deterministic for any T whose JSON encoding is (encoding/json emits
// struct fields in declaration order and sorts map keys, so this holds
// for structs, maps and scalars; a type with its own MarshalJSON is
// deterministic only if that method is).
//
// No third-party codec fits a generic, schema-less user payload well
// (protobuf and a SQL driver's binary row format are tied to a specific
// service's message types), so this one deliberately stays on the
// standard library; see DESIGN.md.
type JSON[T any] struct{}

func (JSON[T]) Serialize(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON[T]) Deserialize(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
