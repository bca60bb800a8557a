package config

import (
	"time"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/internal/storage"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// Default configuration values.
const (
	DefaultKeys           = int(grid.Keys3)
	DefaultSeedBaud       = 115200
	DefaultAccessTimeout  = 100 * time.Millisecond
	DefaultHTTPAddr       = "127.0.0.1:9464"
	DefaultHTTPRateLimit  = 50
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultConfigFileName = "chgrid.yaml"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Grid: GridSection{
			Keys:     DefaultKeys,
			Locking:  true,
			SeedBaud: DefaultSeedBaud,
		},
		Layout: channel.DefaultLayout(),
		Access: AccessSection{
			DefaultTimeout: DefaultAccessTimeout,
		},
		Poller:  channel.DefaultPollerConfig(),
		Storage: storage.DefaultConfig(),
		HTTP: HTTPSection{
			Enabled:   false,
			Addr:      DefaultHTTPAddr,
			RateLimit: DefaultHTTPRateLimit,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
