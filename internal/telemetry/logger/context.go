package logger

import (
	"context"

	"github.com/yndnr/chgrid-go/pkg/grid"
)

type contextKey string

const (
	loggerKey contextKey = "chgrid.logger"
	runIDKey  contextKey = "chgrid.run_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRunID tags the context with the id of the current process run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run id, or "".
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// L returns the context logger enriched with the run id and the grid task
// name carried by ctx.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)

	if id := RunIDFromContext(ctx); id != "" {
		l = l.With("run_id", id)
	}
	if task := grid.TaskFromContext(ctx); task != "" {
		l = l.With("task", task)
	}

	return l
}
