// Package confloader loads configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (CHGRID_ prefix)
//  3. Configuration file (YAML)
//  4. Defaults already present in the target struct
//
// Watcher reports changes to the configuration file so the caller can
// reload the settings that may change at runtime.
package confloader
