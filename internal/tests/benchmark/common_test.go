package benchmark

import (
	"fmt"
	"io"
	"runtime"
	"testing"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/internal/telemetry/logger"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// DeviceCounts defines the grid widths used for scaling benchmarks.
var DeviceCounts = []int{4, 16, 64, 256}

// SmallDeviceCounts for quick benchmarks.
var SmallDeviceCounts = []int{4, 16}

// newTable builds a seeded channel grid with the default layout widened to
// devices columns.
func newTable(b *testing.B, devices int, keys grid.KeyCount, opts ...grid.Option) (*grid.Table[channel.State], channel.Layout) {
	b.Helper()
	layout := channel.DefaultLayout()
	layout.Devices = devices

	var table *grid.Table[channel.State]
	_, err := channel.NewGrid(layout, keys, func(g *grid.Grid) error {
		var err error
		if table, err = grid.NewTable[channel.State](g, channel.StateCodec{}); err != nil {
			return err
		}
		table.Seed(channel.OpenSeed(115200))
		return nil
	}, opts...)
	if err != nil {
		b.Fatalf("NewGrid failed: %v", err)
	}
	return table, layout
}

func quietLogger(b *testing.B) logger.Logger {
	b.Helper()
	l, err := logger.New(logger.Config{Level: "error", Output: io.Discard})
	if err != nil {
		b.Fatalf("logger.New failed: %v", err)
	}
	return l
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithDeviceCounts runs a benchmark function with various grid widths.
func runWithDeviceCounts(b *testing.B, counts []int, benchFn func(b *testing.B, devices int)) {
	for _, devices := range counts {
		b.Run(fmt.Sprintf("devices_%d", devices), func(b *testing.B) {
			benchFn(b, devices)
		})
	}
}
