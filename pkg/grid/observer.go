package grid

import (
	"context"
	"strings"
	"time"
)

// Event is a diagnostic event category. Values are bit flags so that a set
// of enabled categories fits in one Event.
type Event uint8

const (
	// EventWait fires before a task starts waiting on a partition lock.
	EventWait Event = 1 << iota
	// EventTimeout fires when the wait gave up.
	EventTimeout
	// EventTake fires once the lock is held and the record is resolved.
	EventTake
	// EventRelease fires when a partition lock is released.
	EventRelease

	// EventNone disables all diagnostics.
	EventNone Event = 0
	// EventAll enables every category.
	EventAll = EventWait | EventTimeout | EventTake | EventRelease
)

// Has reports whether all bits of other are set in e.
func (e Event) Has(other Event) bool {
	return e&other == other && other != 0
}

func (e Event) String() string {
	switch e {
	case EventWait:
		return "wait"
	case EventTimeout:
		return "timeout"
	case EventTake:
		return "take"
	case EventRelease:
		return "release"
	case EventNone:
		return "none"
	}

	var parts []string
	for _, ev := range []Event{EventWait, EventTimeout, EventTake, EventRelease} {
		if e.Has(ev) {
			parts = append(parts, ev.String())
		}
	}
	return strings.Join(parts, "|")
}

// Access describes one diagnostic event.
type Access struct {
	Event   Event
	Row     int
	Column  int
	Key     int
	Task    string
	Timeout time.Duration
	Mode    Mode

	// Waited is the time spent waiting for the lock (timeout and take only).
	Waited time.Duration
}

// Observer receives diagnostic events. Implementations must not block and
// must not call back into the grid: the partition lock may be held while
// Observe runs.
type Observer interface {
	Observe(ctx context.Context, a Access)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, a Access)

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, a Access) {
	f(ctx, a)
}

// Observers fans an event out to several observers in order.
type Observers []Observer

// Observe implements Observer.
func (os Observers) Observe(ctx context.Context, a Access) {
	for _, o := range os {
		if o != nil {
			o.Observe(ctx, a)
		}
	}
}

// TaskIdentity names the calling task for diagnostics.
type TaskIdentity func(ctx context.Context) string

type taskKey struct{}

// WithTask returns a context carrying the task name used in diagnostics.
func WithTask(ctx context.Context, task string) context.Context {
	return context.WithValue(ctx, taskKey{}, task)
}

// TaskFromContext returns the task name stored by WithTask, or "".
// It is the default TaskIdentity.
func TaskFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if task, ok := ctx.Value(taskKey{}).(string); ok {
		return task
	}
	return ""
}
