package metric

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/chgrid-go/pkg/grid"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.AcquireTotal == nil || r.WaitSeconds == nil || r.Held == nil || r.ReleaseTotal == nil {
		t.Error("grid metrics not initialized")
	}
	if r.PollPasses == nil {
		t.Error("PollPasses is nil")
	}
}

func TestRegistry_Handler(t *testing.T) {
	body := scrape(t, NewRegistry().Handler())

	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	if !strings.Contains(body, "process_") {
		t.Error("expected process metrics")
	}
}

func TestRegistry_ObserveGrid(t *testing.T) {
	r := NewRegistry()

	g, err := grid.New(4, 2, 8, grid.Keys2, grid.WithObserver(r))
	if err != nil {
		t.Fatalf("grid.New() error = %v", err)
	}
	if err := g.Init(func(*grid.Grid) error { return nil }); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	ctx := context.Background()

	if _, err := g.Acquire(ctx, 0, 0, 0, nil, time.Second, grid.ReadOnly); err != nil {
		t.Fatalf("Acquire(ReadOnly) error = %v", err)
	}

	tk, err := g.Acquire(ctx, 1, 0, 1, nil, time.Second, grid.ReadWrite)
	if err != nil {
		t.Fatalf("Acquire(ReadWrite) error = %v", err)
	}
	if got := testutil.ToFloat64(r.Held.WithLabelValues("1")); got != 1 {
		t.Errorf("held{key=1} = %v, want 1", got)
	}

	if _, err := g.Acquire(ctx, 3, 1, 1, nil, 0, grid.ReadWrite); err == nil {
		t.Fatal("Acquire on held key succeeded")
	}
	if err := tk.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"acquire readonly taken key 0", testutil.ToFloat64(r.AcquireTotal.WithLabelValues("0", "readonly", "taken")), 1},
		{"acquire readwrite taken key 1", testutil.ToFloat64(r.AcquireTotal.WithLabelValues("1", "readwrite", "taken")), 1},
		{"acquire readwrite timeout key 1", testutil.ToFloat64(r.AcquireTotal.WithLabelValues("1", "readwrite", "timeout")), 1},
		{"release key 0", testutil.ToFloat64(r.ReleaseTotal.WithLabelValues("0")), 1},
		{"release key 1", testutil.ToFloat64(r.ReleaseTotal.WithLabelValues("1")), 1},
		{"held key 0", testutil.ToFloat64(r.Held.WithLabelValues("0")), 0},
		{"held key 1", testutil.ToFloat64(r.Held.WithLabelValues("1")), 0},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(r.WaitSeconds); n != 2 {
		t.Errorf("wait_seconds series = %d, want 2", n)
	}

	body := scrape(t, r.Handler())
	if !strings.Contains(body, `chgrid_grid_acquire_total{key="1",mode="readwrite",outcome="timeout"} 1`) {
		t.Errorf("expected timeout counter in exposition, got:\n%s", body)
	}
	if !strings.Contains(body, "chgrid_grid_wait_seconds_bucket") {
		t.Error("expected chgrid_grid_wait_seconds_bucket")
	}
}

func TestRegistry_RecordPass(t *testing.T) {
	r := NewRegistry()

	r.RecordPass("even", false)
	r.RecordPass("even", false)
	r.RecordPass("odd", true)

	if got := testutil.ToFloat64(r.PollPasses.WithLabelValues("even", "ok")); got != 2 {
		t.Errorf("passes{even,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.PollPasses.WithLabelValues("odd", "aborted")); got != 1 {
		t.Errorf("passes{odd,aborted} = %v, want 1", got)
	}
}
