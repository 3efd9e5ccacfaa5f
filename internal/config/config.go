package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/examdesk/internal/highlight"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: EXAMDESK_HIGHLIGHT__BLOCK_SPANNING -> highlight.block_spanning.
const EnvPrefix = "EXAMDESK_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (EXAMDESK_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// Lists from the file replace the defaults instead of merging into them.
	if k.Exists("import.include") {
		cfg.Import.Include = nil
	}
	if k.Exists("import.exclude") {
		cfg.Import.Exclude = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validLogModes = map[LogMode]bool{
	LogProduction:  true,
	LogDevelopment: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.LogMode != "" && !validLogModes[c.LogMode] {
		return fmt.Errorf("invalid log_mode %q: must be production or development", c.LogMode)
	}
	if c.Highlight.DefaultColor != "" {
		if _, err := highlight.ParseColor(c.Highlight.DefaultColor); err != nil {
			return fmt.Errorf("invalid highlight.default_color: %w", err)
		}
	}
	if c.Render.ScrollDelayMS < 0 {
		return fmt.Errorf("render.scroll_delay_ms must be non-negative")
	}
	if c.Import.MaxFileSize < 0 {
		return fmt.Errorf("import.max_file_size must be non-negative")
	}
	return nil
}
