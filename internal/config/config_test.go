package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/yndnr/chgrid-go/internal/infra/confloader"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Grid.Keys != DefaultKeys {
		t.Errorf("Grid.Keys = %d, want %d", cfg.Grid.Keys, DefaultKeys)
	}
	if !cfg.Grid.Locking {
		t.Error("locking should be enabled by default")
	}
	if cfg.Access.DefaultTimeout != DefaultAccessTimeout {
		t.Errorf("Access.DefaultTimeout = %v, want %v", cfg.Access.DefaultTimeout, DefaultAccessTimeout)
	}
	if cfg.HTTP.Enabled {
		t.Error("http should be disabled by default")
	}
	if cfg.HTTP.RateLimit != DefaultHTTPRateLimit {
		t.Errorf("HTTP.RateLimit = %d, want %d", cfg.HTTP.RateLimit, DefaultHTTPRateLimit)
	}
	if cfg.Storage.Dir != "" {
		t.Errorf("Storage.Dir = %q, want empty", cfg.Storage.Dir)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, DefaultLogFormat)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"one key", func(c *Config) { c.Grid.Keys = 1 }, false},
		{"zero keys", func(c *Config) { c.Grid.Keys = 0 }, true},
		{"four keys", func(c *Config) { c.Grid.Keys = 4 }, true},
		{"no devices", func(c *Config) { c.Layout.Devices = 0 }, true},
		{"zero access timeout", func(c *Config) { c.Access.DefaultTimeout = 0 }, true},
		{"zero poll interval", func(c *Config) { c.Poller.Interval = 0 }, true},
		{"zero burst", func(c *Config) { c.Poller.Burst = 0 }, true},
		{"gc threshold 1", func(c *Config) { c.Storage.GCThreshold = 1 }, true},
		{"negative checkpoint interval", func(c *Config) { c.Storage.Interval = -time.Second }, true},
		{"http without addr", func(c *Config) { c.HTTP.Enabled = true; c.HTTP.Addr = "" }, true},
		{"negative rate limit", func(c *Config) { c.HTTP.RateLimit = -1 }, true},
		{"rate limit off", func(c *Config) { c.HTTP.RateLimit = 0 }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"text log format", func(c *Config) { c.Log.Format = "text" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := Verify(nil); err == nil {
		t.Error("Verify(nil) should fail")
	}
}

func TestVerify_CreatesStorageDir(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = filepath.Join(t.TempDir(), "a", "b")

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if _, err := os.Stat(cfg.Storage.Dir); err != nil {
		t.Errorf("storage dir not created: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	content := `
grid:
  keys: 2
layout:
  slot_count: 2
  expansion_channels: 0
poller:
  interval: 20ms
diagnostics:
  timeout: true
storage:
  interval: 1m
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("CHGRID_LAYOUT_DEVICES", "8")
	t.Setenv("CHGRID_DIAGNOSTICS_TAKE", "true")

	cfg := Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if cfg.Grid.Keys != 2 {
		t.Errorf("Grid.Keys = %d, want 2", cfg.Grid.Keys)
	}
	if !cfg.Grid.Locking {
		t.Error("Grid.Locking default lost")
	}
	if cfg.Layout.SlotCount != 2 || cfg.Layout.SlotChannels != 2 || cfg.Layout.ExpansionChannels != 0 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Layout.Devices != 8 {
		t.Errorf("Layout.Devices = %d, want 8 (from env)", cfg.Layout.Devices)
	}
	if cfg.Poller.Interval != 20*time.Millisecond {
		t.Errorf("Poller.Interval = %v, want 20ms", cfg.Poller.Interval)
	}
	if !cfg.Diagnostics.Timeout || !cfg.Diagnostics.Take || cfg.Diagnostics.Wait {
		t.Errorf("Diagnostics = %+v", cfg.Diagnostics)
	}
	if cfg.Storage.Interval != time.Minute {
		t.Errorf("Storage.Interval = %v, want 1m", cfg.Storage.Interval)
	}
}

func TestChanged(t *testing.T) {
	a := Default()
	b := Default()
	if got := Changed(a, b); len(got) != 0 {
		t.Errorf("Changed(equal) = %v, want none", got)
	}

	b.Log.Level = "debug"
	b.Diagnostics.Wait = true
	b.Layout.Devices = 9

	want := []string{"layout", "diagnostics", "log.level"}
	if got := Changed(a, b); !reflect.DeepEqual(got, want) {
		t.Errorf("Changed() = %v, want %v", got, want)
	}

	for _, s := range want {
		if got := IsReloadable(s); got != (s != "layout") {
			t.Errorf("IsReloadable(%q) = %v", s, got)
		}
	}
}

func TestFlatten(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = "/var/lib/chgrid"

	flat, err := Flatten(cfg)
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}

	checks := map[string]any{
		"grid.keys":              DefaultKeys,
		"layout.slot_count":      cfg.Layout.SlotCount,
		"poller.interval":        cfg.Poller.Interval.String(),
		"diagnostics.wait":       false,
		"storage.dir":            "/var/lib/chgrid",
		"http.rate_limit":        DefaultHTTPRateLimit,
		"log.level":              DefaultLogLevel,
		"access.default_timeout": DefaultAccessTimeout.String(),
	}
	for key, want := range checks {
		if got, ok := flat[key]; !ok || !reflect.DeepEqual(got, want) {
			t.Errorf("Flatten()[%q] = %v, want %v", key, got, want)
		}
	}
	if _, ok := flat["storage.in_memory"]; ok {
		t.Error("koanf:\"-\" field should be skipped")
	}
	for key := range flat {
		if key == "storage" || key == "log" {
			t.Errorf("nested section %q should be flattened", key)
		}
	}

	empty, err := Flatten(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("Flatten(nil) = %v, %v, want empty map", empty, err)
	}
}
