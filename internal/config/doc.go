// Package config defines the chgrid configuration structure.
//
// Sections map one to one onto koanf keys (grid, layout, access, poller,
// diagnostics, storage, http, log). Default returns a configuration that
// passes Verify; confloader overlays file, environment and flags on top.
package config
