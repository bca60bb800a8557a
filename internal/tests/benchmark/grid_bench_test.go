package benchmark

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// BenchmarkAcquireReadOnly measures an uncontended copy-out acquire.
func BenchmarkAcquireReadOnly(b *testing.B) {
	table, _ := newTable(b, 4, grid.Keys3)
	g := table.Grid()
	ctx := context.Background()
	dst := make([]byte, channel.StateSize)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		row := i % g.Rows()
		if _, err := g.Acquire(ctx, row, i%g.Columns(), g.Key(row), dst, time.Second, grid.ReadOnly); err != nil {
			b.Fatalf("Acquire failed: %v", err)
		}
	}
}

// BenchmarkAcquireReadWrite measures an uncontended in-place acquire and release.
func BenchmarkAcquireReadWrite(b *testing.B) {
	table, _ := newTable(b, 4, grid.Keys3)
	g := table.Grid()
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		row := i % g.Rows()
		t, err := g.Acquire(ctx, row, i%g.Columns(), g.Key(row), nil, time.Second, grid.ReadWrite)
		if err != nil {
			b.Fatalf("Acquire failed: %v", err)
		}
		t.Record[0]++
		if err := t.Release(); err != nil {
			b.Fatalf("Release failed: %v", err)
		}
	}
}

// BenchmarkAcquireLockingDisabled is the ReadWrite path without partition locks.
func BenchmarkAcquireLockingDisabled(b *testing.B) {
	table, _ := newTable(b, 4, grid.Keys3, grid.WithLockingDisabled())
	g := table.Grid()
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		row := i % g.Rows()
		t, err := g.Acquire(ctx, row, i%g.Columns(), g.Key(row), nil, time.Second, grid.ReadWrite)
		if err != nil {
			b.Fatalf("Acquire failed: %v", err)
		}
		t.Release()
	}
}

// BenchmarkTableModify measures the typed decode, modify, encode round trip.
func BenchmarkTableModify(b *testing.B) {
	table, _ := newTable(b, 4, grid.Keys3)
	g := table.Grid()
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		err := table.Modify(ctx, i%g.Rows(), i%g.Columns(), time.Second, func(s *channel.State) error {
			s.Polls++
			return nil
		})
		if err != nil {
			b.Fatalf("Modify failed: %v", err)
		}
	}
}

// BenchmarkContended runs parallel writers spread over every row, so the
// number of partition keys bounds the achievable parallelism.
func BenchmarkContended(b *testing.B) {
	for _, keys := range []grid.KeyCount{grid.Keys1, grid.Keys2, grid.Keys3} {
		b.Run(fmt.Sprintf("keys_%d", keys), func(b *testing.B) {
			table, _ := newTable(b, 16, keys)
			g := table.Grid()
			var next atomic.Uint64

			b.ResetTimer()
			b.ReportAllocs()

			b.RunParallel(func(pb *testing.PB) {
				ctx := context.Background()
				for pb.Next() {
					n := int(next.Add(1))
					err := table.Modify(ctx, n%g.Rows(), n%g.Columns(), grid.WaitForever, func(s *channel.State) error {
						s.RxBytes++
						return nil
					})
					if err != nil {
						b.Errorf("Modify failed: %v", err)
						return
					}
				}
			})
		})
	}
}

// BenchmarkPollerPass measures one full pass over the rows of a key.
func BenchmarkPollerPass(b *testing.B) {
	runWithDeviceCounts(b, DeviceCounts, func(b *testing.B, devices int) {
		table, layout := newTable(b, devices, grid.Keys3)
		p, err := channel.NewPoller(table, layout, channel.DefaultPollerConfig(), nil, quietLogger(b))
		if err != nil {
			b.Fatalf("NewPoller failed: %v", err)
		}
		ctx := context.Background()

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if err := p.Pass(ctx, i%3); err != nil {
				b.Fatalf("Pass failed: %v", err)
			}
		}
	})
}

// BenchmarkSummarize measures a read-only sweep of the whole grid.
func BenchmarkSummarize(b *testing.B) {
	runWithDeviceCounts(b, SmallDeviceCounts, func(b *testing.B, devices int) {
		table, layout := newTable(b, devices, grid.Keys3)
		ctx := context.Background()

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, err := channel.Summarize(ctx, table, layout, time.Second); err != nil {
				b.Fatalf("Summarize failed: %v", err)
			}
		}

		b.StopTimer()
		reportMemory(b, "mem")
	})
}
