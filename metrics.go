// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package revstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type clientMetrics struct {
	appends              prometheus.Counter
	conditionalAppends   *prometheus.CounterVec
	bytesWritten         prometheus.Counter
	entriesRead          prometheus.Counter
	entryBytesRead       prometheus.Counter
	iteratorsCreated     prometheus.Counter
	truncations          *prometheus.CounterVec
	markCompareAndSet    *prometheus.CounterVec
	corruptedStateErrors prometheus.Counter
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	return &clientMetrics{
		appends: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "revstream_appends_total",
			Help: "Number of unconditional Write calls that completed successfully.",
		}),
		conditionalAppends: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "revstream_conditional_appends_total",
			Help: "WriteIfAt calls, labeled by outcome (committed, rejected).",
		}, []string{"outcome"}),
		bytesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "revstream_bytes_written_total",
			Help: "Bytes of serialized payload appended, before framing overhead.",
		}),
		entriesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "revstream_entries_read_total",
			Help: "Number of records returned from iterator Next calls.",
		}),
		entryBytesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "revstream_entry_bytes_read_total",
			Help: "Bytes of deserialized-ready payload read from segments.",
		}),
		iteratorsCreated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "revstream_iterators_created_total",
			Help: "Number of ReadFrom calls, i.e. snapshot-bounded iterators created.",
		}),
		truncations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "revstream_truncations_total",
			Help: "TruncateTo calls, labeled by success.",
		}, []string{"success"}),
		markCompareAndSet: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "revstream_mark_cas_total",
			Help: "CompareAndSetMark calls, labeled by outcome (won, lost).",
		}, []string{"outcome"}),
		corruptedStateErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "revstream_corrupted_state_total",
			Help: "Appends that failed because the segment was sealed mid-append.",
		}),
	}
}
