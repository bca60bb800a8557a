package command

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

func TestBuildLayout(t *testing.T) {
	report, err := buildLayout(channel.DefaultLayout(), grid.Keys3)
	if err != nil {
		t.Fatalf("buildLayout() error = %v", err)
	}

	if report.Rows != 12 || report.Columns != 4 || report.Keys != 3 {
		t.Errorf("geometry = %+v", report)
	}
	if report.Bytes != 12*4*channel.StateSize {
		t.Errorf("Bytes = %d, want %d", report.Bytes, 12*4*channel.StateSize)
	}

	want := map[int]layoutRow{
		0:  {Row: 0, Class: channel.ClassEven, Key: 0},
		1:  {Row: 1, Class: channel.ClassOdd, Key: 1},
		7:  {Row: 7, Class: channel.ClassOdd, Key: 1},
		8:  {Row: 8, Class: channel.ClassExpansion, Key: 2},
		11: {Row: 11, Class: channel.ClassExpansion, Key: 2},
	}
	for row, w := range want {
		if report.Map[row] != w {
			t.Errorf("Map[%d] = %+v, want %+v", row, report.Map[row], w)
		}
	}
}

func TestBuildLayout_InvalidKeys(t *testing.T) {
	if _, err := buildLayout(channel.DefaultLayout(), grid.KeyCount(5)); err == nil {
		t.Error("expected error for 5 keys")
	}
}

func TestLayoutCommand_JSON(t *testing.T) {
	out, err := runApp(t, "-o", "json", "layout", "--keys", "1")
	if err != nil {
		t.Fatalf("layout error = %v", err)
	}

	var report layoutReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.Keys != 1 || len(report.Map) != 12 {
		t.Fatalf("report = %+v", report)
	}
	for _, r := range report.Map {
		if r.Key != 0 || r.Class != channel.ClassAll {
			t.Errorf("row %d = %+v, want key 0 class all", r.Row, r)
		}
	}
}

func TestLayoutCommand_Table(t *testing.T) {
	out, err := runApp(t, "layout")
	if err != nil {
		t.Fatalf("layout error = %v", err)
	}
	if !strings.HasPrefix(out, "12 rows x 4 columns, 3 keys") {
		t.Errorf("header line = %q", strings.SplitN(out, "\n", 2)[0])
	}
	if !strings.Contains(out, "expansion") || !strings.Contains(out, "ROW") {
		t.Errorf("table output:\n%s", out)
	}
}
