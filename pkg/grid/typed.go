package grid

import (
	"context"
	"time"
)

// Codec converts between a record value and its fixed-size encoding.
type Codec[T any] interface {
	// Size is the encoded size in bytes. It must equal the grid record size.
	Size() int
	Encode(dst []byte, v T)
	Decode(src []byte) T
}

// Table is a typed view over a Grid. Keys are chosen by the grid's
// partitioning.
type Table[T any] struct {
	grid  *Grid
	codec Codec[T]
}

// NewTable binds codec to g.
func NewTable[T any](g *Grid, codec Codec[T]) (*Table[T], error) {
	if g == nil || codec == nil {
		return nil, ErrInvalidReference
	}
	if codec.Size() != g.recordSize {
		return nil, ErrInvalidGeometry.WithDetails("codec size %d does not match record size %d", codec.Size(), g.recordSize)
	}
	return &Table[T]{grid: g, codec: codec}, nil
}

// Grid returns the underlying grid.
func (t *Table[T]) Grid() *Grid {
	return t.grid
}

// Get returns a copy of the value at (row, column).
func (t *Table[T]) Get(ctx context.Context, row, column int, timeout time.Duration) (T, error) {
	var v T
	err := t.grid.ViewRow(ctx, row, column, timeout, func(record []byte) error {
		v = t.codec.Decode(record)
		return nil
	})
	return v, err
}

// Modify decodes the value at (row, column), lets fn change it and writes it
// back, all under the row's partition lock. Nothing is written if fn fails.
func (t *Table[T]) Modify(ctx context.Context, row, column int, timeout time.Duration, fn func(v *T) error) error {
	return t.grid.UpdateRow(ctx, row, column, timeout, func(record []byte) error {
		v := t.codec.Decode(record)
		if err := fn(&v); err != nil {
			return err
		}
		t.codec.Encode(record, v)
		return nil
	})
}

// Seed writes fn(row, column) into every record without locking.
// The same restrictions as UnsafeForEach apply.
func (t *Table[T]) Seed(fn func(row, column int) T) {
	t.grid.UnsafeForEach(func(row, column int, record []byte) bool {
		t.codec.Encode(record, fn(row, column))
		return true
	})
}
