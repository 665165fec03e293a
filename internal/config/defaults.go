package config

import (
	"time"

	"github.com/rbright/pjctl/internal/pjlink"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Port:           pjlink.DefaultPort,
		Format:         FormatText,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    0,
		Projectors:     map[string]Projector{},
	}
}
