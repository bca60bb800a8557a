package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/yndnr/chgrid-go/pkg/grid"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)

	retrieved := FromContext(ctx)
	if retrieved == nil {
		t.Fatal("FromContext returned nil")
	}

	retrieved.Info("test message")
	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestWithRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "01J9Z3V4K8")
	if got := RunIDFromContext(ctx); got != "01J9Z3V4K8" {
		t.Errorf("RunIDFromContext() = %q, want %q", got, "01J9Z3V4K8")
	}
	if got := RunIDFromContext(context.Background()); got != "" {
		t.Errorf("RunIDFromContext() = %q, want empty", got)
	}
}

func TestL(t *testing.T) {
	tests := []struct {
		name     string
		ctx      func(context.Context) context.Context
		wantRun  any
		wantTask any
	}{
		{
			name:     "no ids",
			ctx:      func(ctx context.Context) context.Context { return ctx },
			wantRun:  nil,
			wantTask: nil,
		},
		{
			name:     "run id",
			ctx:      func(ctx context.Context) context.Context { return WithRunID(ctx, "run-1") },
			wantRun:  "run-1",
			wantTask: nil,
		},
		{
			name: "run id and task",
			ctx: func(ctx context.Context) context.Context {
				return grid.WithTask(WithRunID(ctx, "run-2"), "poll-odd")
			},
			wantRun:  "run-2",
			wantTask: "poll-odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: "json", Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			ctx := tt.ctx(WithLogger(context.Background(), l))
			L(ctx).Info("test message")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("Failed to parse JSON log: %v", err)
			}
			if got := entry["run_id"]; got != tt.wantRun {
				t.Errorf("run_id = %v, want %v", got, tt.wantRun)
			}
			if got := entry["task"]; got != tt.wantTask {
				t.Errorf("task = %v, want %v", got, tt.wantTask)
			}
		})
	}
}
