// Package ui renders ingestion summaries and index status to the
// terminal, with styled output on TTYs and plain text for CI/pipes.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Config controls renderer output.
type Config struct {
	Output  io.Writer
	NoColor bool
}

// ConfigOption customizes a Config.
type ConfigOption func(*Config)

// WithNoColor disables styled output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// NewConfig builds a renderer config. Color is disabled automatically
// when output is not a terminal or NO_COLOR is set.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{
		Output:  output,
		NoColor: !isTerminal(output) || os.Getenv("NO_COLOR") != "",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}
