package command

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/internal/storage"
	"github.com/yndnr/chgrid-go/internal/telemetry/logger"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// saveCheckpoint stores a checkpoint of a default grid whose channels are
// open at baud.
func saveCheckpoint(t *testing.T, dir string, baud uint32) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Output: io.Discard})
	if err != nil {
		t.Fatalf("logger.New() error = %v", err)
	}

	cfg := storage.DefaultConfig()
	cfg.Dir = dir
	store, err := storage.Open(cfg, log)
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	defer store.Close()

	g, err := channel.NewGrid(channel.DefaultLayout(), grid.Keys3, func(g *grid.Grid) error {
		table, err := grid.NewTable[channel.State](g, channel.StateCodec{})
		if err != nil {
			return err
		}
		table.Seed(channel.OpenSeed(baud))
		return nil
	})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	if _, err := store.Save(context.Background(), g, time.Second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestInspect_RequiresStorageDir(t *testing.T) {
	_, err := runApp(t, "inspect")
	if err == nil || !strings.Contains(err.Error(), "storage.dir") {
		t.Errorf("inspect error = %v, want storage.dir error", err)
	}
}

func TestInspect_NoCheckpoint(t *testing.T) {
	_, err := runApp(t, "inspect", "--storage-dir", t.TempDir())
	if err == nil {
		t.Error("inspect of an empty store should fail")
	}
}

func TestInspect_JSON(t *testing.T) {
	dir := t.TempDir()
	saveCheckpoint(t, dir, 57600)

	out, err := runApp(t, "-o", "json", "inspect", "--storage-dir", dir, "--summary")
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}

	var report inspectReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.Error != "" {
		t.Errorf("Error = %q", report.Error)
	}
	if report.Intact != 48 || report.Checkpoint.Records != 48 {
		t.Errorf("intact = %d, records = %d, want 48", report.Intact, report.Checkpoint.Records)
	}
	if report.Summary == nil || len(report.Summary.Classes) != 3 {
		t.Fatalf("summary = %+v", report.Summary)
	}
	for _, cs := range report.Summary.Classes {
		if cs.Records != cs.Channels*4 || cs.Open != cs.Records {
			t.Errorf("class %s open = %d records = %d, want %d", cs.Class, cs.Open, cs.Records, cs.Channels*4)
		}
	}
}

func TestInspect_SummaryGeometryMismatch(t *testing.T) {
	dir := t.TempDir()
	saveCheckpoint(t, dir, 9600)

	t.Setenv("CHGRID_LAYOUT_DEVICES", "2")
	if _, err := runApp(t, "inspect", "--storage-dir", dir, "--summary"); err == nil ||
		!strings.Contains(err.Error(), "geometry") {
		t.Errorf("inspect error = %v, want geometry mismatch", err)
	}
}

func TestInspect_Table(t *testing.T) {
	dir := t.TempDir()
	saveCheckpoint(t, dir, 9600)

	out, err := runApp(t, "inspect", "--storage-dir", dir)
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}
	for _, want := range []string{"record_size", "intact records: 48/48"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
