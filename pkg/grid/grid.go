package grid

import (
	"sync"
)

// Grid is a fixed-geometry, row-major table of equally sized records whose
// rows are guarded by a small number of partition locks.
//
// Geometry never changes after New. Record contents may only be changed
// while holding the row's partition lock in ReadWrite mode, or through
// UnsafeForEach before any concurrent access starts.
type Grid struct {
	rows       int
	columns    int
	recordSize int
	keys       KeyCount

	data []byte

	initOnce sync.Once
	locks    *lockTable

	opts options
}

// New allocates a grid of rows x columns records of recordSize bytes each.
// The grid is unusable for Acquire and Release until Init has run.
func New(rows, columns, recordSize int, keys KeyCount, opts ...Option) (*Grid, error) {
	switch {
	case rows < 1:
		return nil, ErrInvalidGeometry.WithDetails("rows must be at least 1, got %d", rows)
	case columns < 1:
		return nil, ErrInvalidGeometry.WithDetails("columns must be at least 1, got %d", columns)
	case recordSize < 1:
		return nil, ErrInvalidGeometry.WithDetails("record size must be at least 1, got %d", recordSize)
	case !keys.Valid():
		return nil, ErrInvalidGeometry.WithDetails("keys must be 1, 2 or 3, got %d", keys)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Grid{
		rows:       rows,
		columns:    columns,
		recordSize: recordSize,
		keys:       keys,
		data:       make([]byte, rows*columns*recordSize),
		opts:       o,
	}, nil
}

// Init puts every partition lock in the free state, then runs seed, if any.
// It must be called once, from a single task, before the grid is shared.
// seed may use UnsafeForEach to fill initial record contents.
func (g *Grid) Init(seed func(g *Grid) error) error {
	if g == nil {
		return ErrInvalidReference
	}

	initialized := false
	g.initOnce.Do(func() {
		g.locks = newLockTable(int(g.keys))
		initialized = true
	})
	if !initialized {
		return ErrAlreadyInitialized
	}

	if seed != nil {
		return seed(g)
	}
	return nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Columns returns the number of columns.
func (g *Grid) Columns() int { return g.columns }

// RecordSize returns the size of one record in bytes.
func (g *Grid) RecordSize() int { return g.recordSize }

// Size returns the size of the backing buffer in bytes.
func (g *Grid) Size() int { return len(g.data) }

// Keys returns the number of partition keys.
func (g *Grid) Keys() KeyCount { return g.keys }

// Partitioning returns the channel grouping used by Key.
func (g *Grid) Partitioning() Partitioning { return g.opts.partitioning }

// LockingDisabled reports whether acquires skip the lock wait.
func (g *Grid) LockingDisabled() bool { return g.opts.noLocking }

// Contains reports whether (row, column) lies inside the grid.
func (g *Grid) Contains(row, column int) bool {
	return row >= 0 && row < g.rows && column >= 0 && column < g.columns
}

// Offset returns the byte offset of the record at (row, column).
// It returns false when the position is outside the grid.
func (g *Grid) Offset(row, column int) (int, bool) {
	if !g.Contains(row, column) {
		return 0, false
	}
	return (column + g.columns*row) * g.recordSize, true
}

// Locate returns the position of the record starting at offset.
func (g *Grid) Locate(offset int) (row, column int, ok bool) {
	if offset < 0 || offset >= len(g.data) || offset%g.recordSize != 0 {
		return 0, 0, false
	}
	index := offset / g.recordSize
	return index / g.columns, index % g.columns, true
}

// record returns the live record at a valid offset. The slice capacity is
// limited so appends never spill into the neighbouring record.
func (g *Grid) record(offset int) []byte {
	end := offset + g.recordSize
	return g.data[offset:end:end]
}

// UnsafeForEach calls fn for every record in row-major order with a live
// slice into the backing buffer, without taking any lock. It stops when fn
// returns false.
//
// Only call it while no other task can reach the grid, typically from the
// seed function passed to Init. Concurrent use is a data race.
func (g *Grid) UnsafeForEach(fn func(row, column int, record []byte) bool) {
	for offset := 0; offset < len(g.data); offset += g.recordSize {
		index := offset / g.recordSize
		if !fn(index/g.columns, index%g.columns, g.record(offset)) {
			return
		}
	}
}

// HeldKeys returns the partition keys whose lock is currently held.
// The answer may be stale by the time it is returned.
func (g *Grid) HeldKeys() []int {
	if g == nil || g.locks == nil {
		return nil
	}
	return g.locks.heldKeys()
}
