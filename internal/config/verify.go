package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yndnr/chgrid-go/internal/telemetry/logger"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := verifyGrid(&cfg.Grid); err != nil {
		return err
	}
	if err := cfg.Layout.Validate(); err != nil {
		return err
	}
	if cfg.Access.DefaultTimeout <= 0 {
		return errors.New("access.default_timeout must be positive")
	}
	if cfg.Poller.Interval <= 0 {
		return errors.New("poller.interval must be positive")
	}
	if cfg.Poller.Burst < 1 {
		return errors.New("poller.burst must be at least 1")
	}
	if err := verifyStorage(cfg); err != nil {
		return err
	}
	if cfg.HTTP.Enabled && cfg.HTTP.Addr == "" {
		return errors.New("http.addr is required when http is enabled")
	}
	if cfg.HTTP.RateLimit < 0 {
		return errors.New("http.rate_limit must not be negative")
	}
	return verifyLog(&cfg.Log)
}

func verifyGrid(cfg *GridSection) error {
	if !grid.KeyCount(cfg.Keys).Valid() {
		return fmt.Errorf("grid.keys must be 1, 2 or 3, got %d", cfg.Keys)
	}
	return nil
}

func verifyStorage(cfg *Config) error {
	s := &cfg.Storage
	if s.GCThreshold <= 0 || s.GCThreshold >= 1 {
		return fmt.Errorf("storage.gc_threshold must be between 0 and 1, got %v", s.GCThreshold)
	}
	if s.Interval < 0 {
		return errors.New("storage.interval must not be negative")
	}
	if s.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.Dir, 0750); err != nil {
		return errors.New("cannot create storage directory: " + err.Error())
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	}
	return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
}
