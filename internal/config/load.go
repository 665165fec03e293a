package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	base := Default()
	info, err := os.Stat(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			loaded := Loaded{Path: resolvedPath, Config: base, Exists: false}
			if explicitPath != "" {
				loaded.Warnings = []Warning{{
					Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
				}}
			}
			return loaded, nil
		}
		return Loaded{}, fmt.Errorf("stat config %q: %w", resolvedPath, err)
	}

	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, warnings, err := Parse(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	if hasPasswords(cfg) && info.Mode().Perm()&0o077 != 0 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("config file %q stores passwords but is readable by others (mode %04o)", resolvedPath, info.Mode().Perm()),
		})
	}

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   true,
	}, nil
}

func hasPasswords(cfg Config) bool {
	if cfg.Password != "" {
		return true
	}
	for _, p := range cfg.Projectors {
		if p.Password != "" {
			return true
		}
	}
	return false
}
