// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package bench benchmarks Client.Write and Client.ReadFrom against both
// segment providers this module ships.
package bench

import (
	"context"
	"fmt"
	"testing"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quorumline/revstream"
	"github.com/quorumline/revstream/codec"
	"github.com/quorumline/revstream/segment"
	"github.com/quorumline/revstream/segment/diskseg"
	"github.com/quorumline/revstream/segment/memstore"
)

func openMemstoreClient(b *testing.B) *revstream.Client[string] {
	b.Helper()
	s := memstore.New("bench")
	c, err := revstream.Open[string](
		"bench", s.Writer(), s.Reader(), s.Metadata(), segment.NewToken(nil), codec.JSON[string]{},
		revstream.WithRegisterer[string](prometheus.NewRegistry()),
	)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = c.Close() })
	return c
}

func openDiskseqClient(b *testing.B) *revstream.Client[string] {
	b.Helper()
	s, err := diskseg.Open(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	c, err := revstream.Open[string](
		s.SegmentID(), s.Writer(), s.Reader(), s.Metadata(), segment.NewToken(nil), codec.JSON[string]{},
		revstream.WithRegisterer[string](prometheus.NewRegistry()),
	)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = c.Close() })
	return c
}

func BenchmarkWriteMemstore(b *testing.B) {
	benchmarkWrite(b, openMemstoreClient(b))
}

func BenchmarkWriteDiskseg(b *testing.B) {
	benchmarkWrite(b, openDiskseqClient(b))
}

func benchmarkWrite(b *testing.B, c *revstream.Client[string]) {
	ctx := context.Background()
	hist := hdrhistogram.New(1, 1_000_000, 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		start := time.Now()
		if err := c.Write(ctx, "the quick brown fox jumps over the lazy dog"); err != nil {
			b.Fatal(err)
		}
		hist.RecordValue(time.Since(start).Microseconds())
	}
	b.StopTimer()

	b.ReportMetric(float64(hist.ValueAtQuantile(50)), "p50-us")
	b.ReportMetric(float64(hist.ValueAtQuantile(99)), "p99-us")
}

func BenchmarkReadFromMemstore(b *testing.B) {
	benchmarkReadFrom(b, openMemstoreClient(b))
}

func BenchmarkReadFromDiskseg(b *testing.B) {
	benchmarkReadFrom(b, openDiskseqClient(b))
}

func benchmarkReadFrom(b *testing.B, c *revstream.Client[string]) {
	ctx := context.Background()
	const records = 10_000
	for i := 0; i < records; i++ {
		if err := c.Write(ctx, fmt.Sprintf("record-%d", i)); err != nil {
			b.Fatal(err)
		}
	}
	oldest, err := c.OldestRevision(ctx)
	if err != nil {
		b.Fatal(err)
	}

	hist := hdrhistogram.New(1, 1_000_000, 3)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it, err := c.ReadFrom(ctx, oldest)
		if err != nil {
			b.Fatal(err)
		}
		start := time.Now()
		for it.HasNext() {
			if _, _, err := it.Next(ctx); err != nil {
				b.Fatal(err)
			}
		}
		hist.RecordValue(time.Since(start).Microseconds())
	}
	b.StopTimer()

	b.ReportMetric(float64(hist.ValueAtQuantile(50))/records, "p50-us-per-record")
}
