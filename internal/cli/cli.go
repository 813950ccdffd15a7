// Package cli provides terminal output formatting for the alpha command:
// colored diagnostics, migration status tables, and progress output, with
// plain-text fallbacks for pipes and CI.
package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// OutputMode determines how output is formatted.
type OutputMode int

const (
	// ModeTTY enables colored output for interactive terminals.
	ModeTTY OutputMode = iota
	// ModePlain outputs plain text without colors (pipes, CI).
	ModePlain
)

// Config holds output configuration. It is auto-detected, not user-facing.
type Config struct {
	Mode   OutputMode
	Writer io.Writer
}

// DetectConfig returns the auto-detected configuration: colors when stdout
// is a terminal, unless NO_COLOR (https://no-color.org/) or TERM=dumb says
// otherwise.
func DetectConfig() *Config {
	mode := ModePlain
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		mode = ModeTTY
	}
	if os.Getenv("NO_COLOR") != "" {
		mode = ModePlain
	}
	if os.Getenv("TERM") == "dumb" {
		mode = ModePlain
	}
	return &Config{Mode: mode, Writer: os.Stdout}
}

// IsTTY reports whether colored output is active.
func (c *Config) IsTTY() bool {
	return c.Mode == ModeTTY
}

var defaultCfg *Config

// Default returns the global configuration, detecting it on first use.
func Default() *Config {
	if defaultCfg == nil {
		defaultCfg = DetectConfig()
	}
	return defaultCfg
}

// SetDefault replaces the global configuration. Used by tests and by the
// --no-color flag.
func SetDefault(cfg *Config) {
	defaultCfg = cfg
}

// EnableColors reports whether styled output should be rendered.
func EnableColors() bool {
	return Default().IsTTY()
}
