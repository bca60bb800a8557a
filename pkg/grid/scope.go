package grid

import (
	"context"
	"time"
)

// View copies the record at (row, column) under the partition lock key and
// runs fn on the private copy after the lock is released. fn may modify the
// copy freely. fn is not called when the record could not be acquired.
func (g *Grid) View(ctx context.Context, row, column, key int, timeout time.Duration, fn func(record []byte) error) error {
	if g == nil {
		return ErrInvalidReference
	}

	buf := make([]byte, g.recordSize)
	if _, err := g.Acquire(ctx, row, column, key, buf, timeout, ReadOnly); err != nil {
		return err
	}
	return fn(buf)
}

// Update runs fn on the live record at (row, column) while holding the
// partition lock key. The lock is released when fn returns, fails or panics.
// fn must not keep the slice after it returns.
func (g *Grid) Update(ctx context.Context, row, column, key int, timeout time.Duration, fn func(record []byte) error) (err error) {
	t, err := g.Acquire(ctx, row, column, key, nil, timeout, ReadWrite)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := t.Release(); err == nil {
			err = rerr
		}
	}()

	return fn(t.Record)
}

// ViewRow is View with the key chosen by the grid's partitioning.
func (g *Grid) ViewRow(ctx context.Context, row, column int, timeout time.Duration, fn func(record []byte) error) error {
	return g.View(ctx, row, column, g.Key(row), timeout, fn)
}

// UpdateRow is Update with the key chosen by the grid's partitioning.
func (g *Grid) UpdateRow(ctx context.Context, row, column int, timeout time.Duration, fn func(record []byte) error) error {
	return g.Update(ctx, row, column, g.Key(row), timeout, fn)
}
