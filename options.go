// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package revstream

import (
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Client at construction time, a functional option.
type Option[T any] func(*Client[T])

// WithLogger sets the structured logger used for warnings (e.g. a
// sealed segment reported on Close). Defaults to a no-op logger.
func WithLogger[T any](logger log.Logger) Option[T] {
	return func(c *Client[T]) { c.logger = logger }
}

// WithRegisterer sets the prometheus registerer metrics are registered
// against. Defaults to prometheus.DefaultRegisterer.
func WithRegisterer[T any](reg prometheus.Registerer) Option[T] {
	return func(c *Client[T]) { c.reg = reg }
}

func (c *Client[T]) applyDefaultsAndOptions(opts []Option[T]) {
	c.logger = log.NewNopLogger()
	c.reg = prometheus.DefaultRegisterer
	for _, opt := range opts {
		opt(c)
	}
}
