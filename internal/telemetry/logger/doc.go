// Package logger provides structured logging for ChGrid.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, JSON/text handlers, runtime level changes
//   - context.go: context-carried loggers enriched with run id and task name
//   - observer.go: GridObserver, which turns grid access events into log
//     records under per-category toggles
package logger
