package config

import (
	"reflect"
	"time"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/internal/storage"
	"github.com/yndnr/chgrid-go/internal/telemetry/logger"
)

// Config is the root configuration for chgrid.
type Config struct {
	Grid        GridSection          `koanf:"grid"`
	Layout      channel.Layout       `koanf:"layout"`
	Access      AccessSection        `koanf:"access"`
	Poller      channel.PollerConfig `koanf:"poller"`
	Diagnostics logger.Diagnostics   `koanf:"diagnostics"`
	Storage     storage.Config       `koanf:"storage"`
	HTTP        HTTPSection          `koanf:"http"`
	Log         LogSection           `koanf:"log"`
}

// GridSection configures the grid itself. Rows and columns come from the
// layout and the record size from the channel state.
type GridSection struct {
	// Keys is the number of partition keys (1, 2 or 3).
	Keys int `koanf:"keys"`
	// Locking enables partition locks. Disable only for single-task use.
	Locking bool `koanf:"locking"`
	// SeedBaud is the baud rate of every channel in a fresh grid.
	SeedBaud uint32 `koanf:"seed_baud"`
}

// AccessSection configures record access outside the poller.
type AccessSection struct {
	// DefaultTimeout bounds acquisitions made by summaries and checkpoints.
	DefaultTimeout time.Duration `koanf:"default_timeout"`
}

// HTTPSection configures the admin HTTP endpoint that serves metrics,
// summaries and diagnostics.
type HTTPSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	// Socket, if set, also serves the endpoint on this Unix socket path,
	// whether or not Enabled is set.
	Socket string `koanf:"socket"`
	// RateLimit is the number of requests per second allowed per client
	// address. Zero disables limiting.
	RateLimit int `koanf:"rate_limit"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Reloadable lists the sections that take effect without a restart.
var Reloadable = []string{"diagnostics", "log.level"}

// Changed returns the koanf names of the sections that differ between a
// and b. log.level is reported separately from the rest of log.
func Changed(a, b *Config) []string {
	var out []string
	add := func(name string, x, y any) {
		if !reflect.DeepEqual(x, y) {
			out = append(out, name)
		}
	}
	add("grid", a.Grid, b.Grid)
	add("layout", a.Layout, b.Layout)
	add("access", a.Access, b.Access)
	add("poller", a.Poller, b.Poller)
	add("diagnostics", a.Diagnostics, b.Diagnostics)
	add("storage", a.Storage, b.Storage)
	add("http", a.HTTP, b.HTTP)
	add("log.level", a.Log.Level, b.Log.Level)
	add("log.format", a.Log.Format, b.Log.Format)
	return out
}

// IsReloadable reports whether a change to section applies at runtime.
func IsReloadable(section string) bool {
	for _, s := range Reloadable {
		if s == section {
			return true
		}
	}
	return false
}
