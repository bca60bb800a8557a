package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/yndnr/chgrid-go/pkg/grid"
)

// ClassSummary aggregates the states of one channel class. Channels counts
// the rows of the class; Records counts their per-device records, which is
// what Open and Faulted are counted over.
type ClassSummary struct {
	Class    Class  `json:"class" yaml:"class"`
	Channels int    `json:"channels" yaml:"channels"`
	Records  int    `json:"records" yaml:"records"`
	Open     int    `json:"open" yaml:"open"`
	Faulted  int    `json:"faulted" yaml:"faulted"`
	RxBytes  uint64 `json:"rx_bytes" yaml:"rx_bytes"`
	TxBytes  uint64 `json:"tx_bytes" yaml:"tx_bytes"`
	Errors   uint64 `json:"errors" yaml:"errors"`
	Polls    uint64 `json:"polls" yaml:"polls"`
}

// Summary aggregates the whole grid per class.
type Summary struct {
	Rows    int            `json:"rows" yaml:"rows"`
	Columns int            `json:"columns" yaml:"columns"`
	Keys    int            `json:"keys" yaml:"keys"`
	Classes []ClassSummary `json:"classes" yaml:"classes"`
}

// Summarize reads every record with read-only access and aggregates it per
// class. Records are copied out one at a time, so the result is not an
// atomic snapshot of the grid.
func Summarize(ctx context.Context, table *grid.Table[State], layout Layout, timeout time.Duration) (Summary, error) {
	if table == nil {
		return Summary{}, grid.ErrInvalidReference
	}
	g := table.Grid()
	keys := g.Keys()

	sum := Summary{Rows: g.Rows(), Columns: g.Columns(), Keys: int(keys)}
	for key := 0; key < int(keys); key++ {
		cs := ClassSummary{Class: KeyClass(key, keys)}
		for _, row := range layout.RowsForKey(key, keys) {
			cs.Channels++
			for column := 0; column < g.Columns(); column++ {
				s, err := table.Get(ctx, row, column, timeout)
				if err != nil {
					return Summary{}, fmt.Errorf("summarize row %d column %d: %w", row, column, err)
				}
				cs.add(s)
			}
		}
		sum.Classes = append(sum.Classes, cs)
	}
	return sum, nil
}

func (cs *ClassSummary) add(s State) {
	cs.Records++
	if s.Open() {
		cs.Open++
	}
	if s.Faulted() {
		cs.Faulted++
	}
	cs.RxBytes += s.RxBytes
	cs.TxBytes += s.TxBytes
	cs.Errors += uint64(s.Errors)
	cs.Polls += uint64(s.Polls)
}
