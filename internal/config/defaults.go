package config

import (
	"path/filepath"
	"time"

	"github.com/ziadkadry99/examdesk/internal/highlight"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".examdesk.yml"

// DefaultIncludes are the passage file patterns imported by default.
var DefaultIncludes = []string{"**/*.md", "**/*.markdown", "**/*.html", "**/*.htm"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".examdesk",
		Port:    8080,
		LogMode: LogProduction,
		Highlight: HighlightConfig{
			DefaultColor: string(highlight.Yellow),
		},
		Render: RenderConfig{ScrollDelayMS: 100},
		Import: ImportConfig{
			Include:     append([]string(nil), DefaultIncludes...),
			MaxFileSize: 1 << 20,
		},
	}
}

// DBPath is the SQLite database file inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "examdesk.db")
}

// ScrollDelay returns Render.ScrollDelayMS as a duration.
func (c *Config) ScrollDelay() time.Duration {
	return time.Duration(c.Render.ScrollDelayMS) * time.Millisecond
}

// EngineOptions builds highlight engine options from the highlight section.
func (c *Config) EngineOptions() highlight.Options {
	opts := highlight.DefaultOptions()
	if color, err := highlight.ParseColor(c.Highlight.DefaultColor); err == nil {
		opts.DefaultColor = color
	}
	opts.BlockSpanning = c.Highlight.BlockSpanning
	return opts
}
