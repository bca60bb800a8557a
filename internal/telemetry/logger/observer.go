package logger

import (
	"context"
	"sync/atomic"

	"github.com/yndnr/chgrid-go/pkg/grid"
)

// Diagnostics selects which grid access events are logged.
type Diagnostics struct {
	Wait    bool `koanf:"wait" json:"wait"`
	Timeout bool `koanf:"timeout" json:"timeout"`
	Take    bool `koanf:"take" json:"take"`
	Release bool `koanf:"release" json:"release"`
}

// Events returns the event mask for d.
func (d Diagnostics) Events() grid.Event {
	var ev grid.Event
	if d.Wait {
		ev |= grid.EventWait
	}
	if d.Timeout {
		ev |= grid.EventTimeout
	}
	if d.Take {
		ev |= grid.EventTake
	}
	if d.Release {
		ev |= grid.EventRelease
	}
	return ev
}

// GridObserver logs grid access events. Timeouts are logged at warn level,
// everything else at debug level.
type GridObserver struct {
	logger Logger
	events atomic.Uint32
}

// NewGridObserver creates an observer that logs the events enabled in d.
func NewGridObserver(l Logger, d Diagnostics) *GridObserver {
	if l == nil {
		l = Default()
	}
	o := &GridObserver{logger: l.With("component", "grid")}
	o.SetDiagnostics(d)
	return o
}

// SetDiagnostics replaces the enabled categories. Safe for concurrent use.
func (o *GridObserver) SetDiagnostics(d Diagnostics) {
	o.events.Store(uint32(d.Events()))
}

// Events returns the currently enabled categories.
func (o *GridObserver) Events() grid.Event {
	return grid.Event(o.events.Load())
}

// Diagnostics returns the currently enabled categories as a Diagnostics.
func (o *GridObserver) Diagnostics() Diagnostics {
	ev := o.Events()
	return Diagnostics{
		Wait:    ev.Has(grid.EventWait),
		Timeout: ev.Has(grid.EventTimeout),
		Take:    ev.Has(grid.EventTake),
		Release: ev.Has(grid.EventRelease),
	}
}

// Observe implements grid.Observer.
func (o *GridObserver) Observe(ctx context.Context, a grid.Access) {
	if !o.Events().Has(a.Event) {
		return
	}

	args := []any{
		"row", a.Row,
		"column", a.Column,
		"key", a.Key,
		"task", a.Task,
		"timeout", a.Timeout,
		"mode", a.Mode.String(),
	}
	if a.Event == grid.EventTimeout {
		args = append(args, "waited", a.Waited)
		o.logger.WithContext(ctx).Warn("grid timeout", args...)
		return
	}
	o.logger.WithContext(ctx).Debug("grid "+a.Event.String(), args...)
}
