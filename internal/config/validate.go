package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := validatePort("port", cfg.Port); err != nil {
		return nil, err
	}
	switch cfg.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("format must be one of: text, json, yaml")
	}
	if cfg.ConnectTimeout < 0 {
		return nil, fmt.Errorf("connect_timeout_ms must be >= 0")
	}
	if cfg.ReadTimeout < 0 {
		return nil, fmt.Errorf("read_timeout_ms must be >= 0")
	}

	names := make([]string, 0, len(cfg.Projectors))
	for name := range cfg.Projectors {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := cfg.Projectors[name]
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("projectors: alias must not be empty")
		}
		if p.Address == "" {
			return nil, fmt.Errorf("projectors.%s.address must not be empty", name)
		}
		if p.Port != 0 {
			if err := validatePort("projectors."+name+".port", p.Port); err != nil {
				return nil, err
			}
		}
		if strings.ContainsAny(name, ".:") {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("projector alias %q looks like a host name and shadows it", name),
			})
		}
	}

	return warnings, nil
}

func validatePort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535", key)
	}
	return nil
}
