package grid

import (
	"context"
	"sync/atomic"
	"time"
)

// Mode selects how Acquire hands out a record.
type Mode int

const (
	// ReadOnly copies the record into the caller's buffer and releases the
	// lock before returning. Changes to the copy never reach the grid.
	ReadOnly Mode = iota
	// ReadWrite returns the live record and keeps the lock held until the
	// ticket is released.
	ReadWrite
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "readonly"
	case ReadWrite:
		return "readwrite"
	default:
		return "unknown"
	}
}

// Ticket is the result of a successful Acquire.
//
// For ReadOnly tickets Record is the caller's destination buffer, already
// filled, and the lock is already released. For ReadWrite tickets Record
// aliases the grid and the lock stays held until Release.
type Ticket struct {
	Row    int
	Column int
	Key    int
	Mode   Mode
	Record []byte

	grid *Grid
	// ctx and timeout are kept only for the release diagnostic.
	ctx      context.Context
	timeout  time.Duration
	released atomic.Bool
}

// Release frees the partition lock of a ReadWrite ticket. Only the first
// call has an effect; ReadOnly tickets have nothing to release.
func (t *Ticket) Release() error {
	if t == nil || !t.released.CompareAndSwap(false, true) {
		return nil
	}
	return t.grid.release(t.ctx, Access{Row: t.Row, Column: t.Column, Key: t.Key, Timeout: t.timeout, Mode: t.Mode})
}

// Released reports whether the ticket no longer holds its lock.
func (t *Ticket) Released() bool {
	return t == nil || t.released.Load()
}

// check validates a grid reference and a position before any lock is touched.
func (g *Grid) check(row, column, key int) error {
	if g == nil || g.locks == nil {
		return ErrInvalidReference
	}
	if !g.Contains(row, column) {
		return ErrOutOfBounds.WithDetails("row %d column %d outside %dx%d", row, column, g.rows, g.columns)
	}
	if key < 0 || key >= int(g.keys) {
		return ErrInvalidKey.WithDetails("key %d outside [0, %d)", key, g.keys)
	}
	return nil
}

// Acquire waits up to timeout for the partition lock key and resolves the
// record at (row, column).
//
// Invalid references and positions fail at once, before any lock is taken.
// A timeout at or above WaitForever is clamped to WaitForever-1; a timeout
// of zero or less only succeeds if the lock is free right now. If ctx is
// done first the wait ends with ErrTimeout wrapping ctx.Err().
//
// In ReadOnly mode the record is copied into dst (nothing is copied when dst
// is nil; a short dst receives a prefix) and the lock is released before
// Acquire returns. In ReadWrite mode dst is ignored and the returned ticket
// must be released. On any error the lock is not held.
func (g *Grid) Acquire(ctx context.Context, row, column, key int, dst []byte, timeout time.Duration, mode Mode) (*Ticket, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := g.check(row, column, key); err != nil {
		return nil, err
	}

	timeout = clampTimeout(timeout)
	access := Access{Row: row, Column: column, Key: key, Timeout: timeout, Mode: mode}

	access.Event = EventWait
	g.emit(ctx, access)

	if !g.opts.noLocking {
		start := time.Now()
		if err := g.locks.wait(ctx, key, timeout); err != nil {
			access.Event = EventTimeout
			access.Waited = time.Since(start)
			g.emit(ctx, access)
			return nil, err
		}
		access.Waited = time.Since(start)
	}

	offset, _ := g.Offset(row, column)
	src := g.record(offset)

	access.Event = EventTake
	g.emit(ctx, access)

	t := &Ticket{Row: row, Column: column, Key: key, Mode: mode, grid: g, ctx: ctx, timeout: timeout}

	switch mode {
	case ReadOnly:
		copy(dst, src)
		t.Record = dst
		t.released.Store(true)
		if err := g.release(ctx, access); err != nil {
			return nil, err
		}
		return t, nil
	case ReadWrite:
		t.Record = src
		return t, nil
	default:
		// Nothing was handed out, so the lock must not outlive this call.
		if err := g.release(ctx, access); err != nil {
			return nil, err
		}
		return nil, ErrInvalidMode.WithDetails("mode %d", int(mode))
	}
}

// Release frees the partition lock key taken by a ReadWrite Acquire of
// (row, column). It performs the same checks as Acquire and does nothing
// when they fail.
//
// Partition locks have no owner: Release frees key whoever holds it, and
// row and column only have to lie inside the grid. Calling it for a lock
// taken by another task lets a third task into that task's critical
// section. Prefer Ticket.Release, which releases exactly the lock its own
// Acquire took and cannot release twice.
func (g *Grid) Release(ctx context.Context, row, column, key int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := g.check(row, column, key); err != nil {
		return err
	}
	a := Access{Row: row, Column: column, Key: key, Mode: ReadWrite}
	if !g.opts.noLocking {
		a.Timeout = g.locks.holderTimeout(key)
	}
	return g.release(ctx, a)
}

// release frees the lock of a and emits the release event only when a lock
// was actually freed, so observers can pair every take with at most one
// release.
func (g *Grid) release(ctx context.Context, a Access) error {
	if !g.opts.noLocking {
		if err := g.locks.release(a.Key); err != nil {
			return err
		}
	}
	a.Event = EventRelease
	a.Waited = 0
	g.emit(ctx, a)
	return nil
}

// emit forwards a diagnostic event when its category is enabled.
func (g *Grid) emit(ctx context.Context, a Access) {
	if g.opts.observer == nil || !g.opts.events.Has(a.Event) {
		return
	}
	a.Task = g.opts.identity(ctx)
	g.opts.observer.Observe(ctx, a)
}
