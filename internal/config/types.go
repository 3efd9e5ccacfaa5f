package config

// LogMode selects the zap logger preset.
type LogMode string

const (
	LogProduction  LogMode = "production"
	LogDevelopment LogMode = "development"
)

// Config is the top-level examdesk configuration, corresponding to .examdesk.yml.
type Config struct {
	DataDir         string          `yaml:"data_dir" koanf:"data_dir"`
	Port            int             `yaml:"port" koanf:"port"`
	LogMode         LogMode         `yaml:"log_mode" koanf:"log_mode"`
	AllowAllOrigins bool            `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Highlight       HighlightConfig `yaml:"highlight" koanf:"highlight"`
	Render          RenderConfig    `yaml:"render" koanf:"render"`
	Import          ImportConfig    `yaml:"import" koanf:"import"`
}

// HighlightConfig controls the manual highlight engine.
type HighlightConfig struct {
	DefaultColor string `yaml:"default_color" koanf:"default_color"`
	// BlockSpanning lets a selection that crosses paragraphs or list items
	// be highlighted piecewise. When false such selections are refused.
	BlockSpanning bool `yaml:"block_spanning" koanf:"block_spanning"`
}

// RenderConfig controls passage rendering.
type RenderConfig struct {
	// ScrollDelayMS is how long clients wait before scrolling to the first
	// referenced sentence, so layout can settle.
	ScrollDelayMS int `yaml:"scroll_delay_ms" koanf:"scroll_delay_ms"`
}

// ImportConfig holds the passage import filters.
type ImportConfig struct {
	Include     []string `yaml:"include" koanf:"include"`
	Exclude     []string `yaml:"exclude" koanf:"exclude"`
	MaxFileSize int64    `yaml:"max_file_size" koanf:"max_file_size"`
}
