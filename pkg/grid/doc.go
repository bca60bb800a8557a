// Package grid provides partition-locked access to a fixed grid of records.
//
// A Grid is a row-major table of rows x columns records of equal size, for
// example one row per UART channel and one column per attached device.
// Instead of one global lock, rows are split into up to three partitions:
//
//   - Keys1: every row shares key 0
//   - Keys2: even channel instances use key 0, odd ones key 1
//   - Keys3: as Keys2, plus key 2 for expansion channels
//
// Tasks working on different partitions never block each other. Two rows
// in the same partition serialize even if they never overlap; that is the
// price of a bounded number of locks.
//
// Usage:
//
//	g, _ := grid.New(rows, devices, 32, grid.Keys3,
//		grid.WithPartitioning(grid.Partitioning{ChannelInstances: 2, ExpansionThreshold: 8}))
//	_ = g.Init(nil)
//
//	// Read-only: copy out, lock released before fn runs.
//	err := g.ViewRow(ctx, row, col, time.Second, func(rec []byte) error { ... })
//
//	// Read-write: fn runs on the live record, lock released afterwards.
//	err = g.UpdateRow(ctx, row, col, time.Second, func(rec []byte) error { ... })
//
// Acquire and Release are the primitives beneath both helpers.
//
// Thread Safety:
//
// Init must complete before the grid is shared. UnsafeForEach takes no lock
// and is only meant for seeding from Init. Everything else is safe for
// concurrent use.
package grid
