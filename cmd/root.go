package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/examdesk/internal/config"
	"github.com/ziadkadry99/examdesk/internal/logger"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "examdesk",
	Short: "Reading-comprehension exam server with passage highlighting",
	Long: `examdesk serves reading-comprehension tests. Passages are split into
sentences so explanations can highlight the sentences a question refers to,
and test takers can add their own highlights, mask answer options and cross
out the ones they have ruled out.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `examdesk init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the zap logger for cfg; --verbose forces development mode.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	mode := string(cfg.LogMode)
	if verbose {
		mode = string(config.LogDevelopment)
	}
	return logger.New(mode)
}
