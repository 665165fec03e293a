package config

import (
	"strings"
	"time"
)

// Parse reads configuration content as JSONC or TOML.
//
// JSONC is selected when the first non-whitespace character is `{`.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		return parseJSONC(content, base)
	}
	return parseTOML(content, base)
}

// fileConfig is the on-disk shape shared by both formats. Pointer fields
// distinguish "absent" from zero values.
type fileConfig struct {
	Port             *int                     `json:"port" toml:"port"`
	Password         *string                  `json:"password" toml:"password"`
	Format           *string                  `json:"format" toml:"format"`
	ConnectTimeoutMS *int                     `json:"connect_timeout_ms" toml:"connect_timeout_ms"`
	ReadTimeoutMS    *int                     `json:"read_timeout_ms" toml:"read_timeout_ms"`
	Projectors       map[string]fileProjector `json:"projectors" toml:"projectors"`
}

type fileProjector struct {
	Address  *string `json:"address" toml:"address"`
	Port     *int    `json:"port" toml:"port"`
	Password *string `json:"password" toml:"password"`
}

func (payload fileConfig) applyTo(cfg *Config) {
	if payload.Port != nil {
		cfg.Port = *payload.Port
	}
	if payload.Password != nil {
		cfg.Password = *payload.Password
	}
	if payload.Format != nil {
		cfg.Format = strings.ToLower(strings.TrimSpace(*payload.Format))
	}
	if payload.ConnectTimeoutMS != nil {
		cfg.ConnectTimeout = millis(*payload.ConnectTimeoutMS)
	}
	if payload.ReadTimeoutMS != nil {
		cfg.ReadTimeout = millis(*payload.ReadTimeoutMS)
	}

	if len(payload.Projectors) == 0 {
		return
	}
	projectors := make(map[string]Projector, len(cfg.Projectors)+len(payload.Projectors))
	for name, p := range cfg.Projectors {
		projectors[name] = p
	}
	for name, p := range payload.Projectors {
		entry := Projector{Name: name}
		if p.Address != nil {
			entry.Address = strings.TrimSpace(*p.Address)
		}
		if p.Port != nil {
			entry.Port = *p.Port
		}
		if p.Password != nil {
			entry.Password = *p.Password
		}
		projectors[name] = entry
	}
	cfg.Projectors = projectors
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
