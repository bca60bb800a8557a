package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Flatten returns the effective configuration keyed by dotted koanf paths,
// for example "layout.slot_count". Fields tagged koanf:"-" are skipped and
// durations are rendered the way they are written in the file.
func Flatten(cfg *Config) (map[string]any, error) {
	if cfg == nil {
		return map[string]any{}, nil
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(*cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("flatten config: %w", err)
	}

	out := k.All()
	for key, v := range out {
		if d, ok := v.(time.Duration); ok {
			out[key] = d.String()
		}
	}
	return out, nil
}
