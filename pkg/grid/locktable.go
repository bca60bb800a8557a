package grid

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// WaitForever is the timeout value the lock primitive treats as unbounded.
// Acquire never passes it through: longer or equal timeouts are clamped to
// WaitForever-1 so every wait has a deadline.
const WaitForever = time.Duration(math.MaxInt64)

// clampTimeout keeps a caller's bounded wait bounded.
func clampTimeout(timeout time.Duration) time.Duration {
	if timeout >= WaitForever {
		return WaitForever - 1
	}
	return timeout
}

// lockTable holds one lock per partition key. Waiters on the same key are
// served in FIFO order by the underlying semaphore.
type lockTable struct {
	locks []*partitionLock
}

type partitionLock struct {
	sem  *semaphore.Weighted
	held atomic.Bool
	// timeout is the clamped timeout the current holder acquired with.
	timeout atomic.Int64
}

func newLockTable(keys int) *lockTable {
	t := &lockTable{
		locks: make([]*partitionLock, keys),
	}
	for i := range t.locks {
		t.locks[i] = &partitionLock{sem: semaphore.NewWeighted(1)}
	}
	return t
}

// wait blocks until the lock for key is held, the timeout expires or ctx is
// done. A timeout of zero or less only tries once.
func (t *lockTable) wait(ctx context.Context, key int, timeout time.Duration) error {
	l := t.locks[key]

	if l.sem.TryAcquire(1) {
		l.take(timeout)
		return nil
	}
	if timeout <= 0 {
		return ErrTimeout
	}

	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := l.sem.Acquire(wctx, 1); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return ErrTimeout.WithCause(cerr)
		}
		return ErrTimeout.WithCause(err)
	}
	l.take(timeout)
	return nil
}

func (l *partitionLock) take(timeout time.Duration) {
	l.timeout.Store(int64(timeout))
	l.held.Store(true)
}

// holderTimeout returns the timeout the current holder of key waited with.
func (t *lockTable) holderTimeout(key int) time.Duration {
	return time.Duration(t.locks[key].timeout.Load())
}

// release frees the lock for key. Releasing a free lock is reported and
// otherwise ignored.
func (t *lockTable) release(key int) error {
	l := t.locks[key]
	if !l.held.CompareAndSwap(true, false) {
		return ErrNotHeld
	}
	l.sem.Release(1)
	return nil
}

// heldKeys returns the keys whose lock is currently held.
func (t *lockTable) heldKeys() []int {
	keys := make([]int, 0, len(t.locks))
	for i, l := range t.locks {
		if l.held.Load() {
			keys = append(keys, i)
		}
	}
	return keys
}
