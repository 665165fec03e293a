// Package config resolves, parses, validates, and defaults pjctl configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by pjctl.
type Config struct {
	Port           int
	Password       string
	Format         string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Projectors     map[string]Projector
}

// Projector is a named device entry addressable by alias on the command line.
type Projector struct {
	Name     string
	Address  string
	Port     int
	Password string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// Output formats accepted by the format key and --format flag.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)
