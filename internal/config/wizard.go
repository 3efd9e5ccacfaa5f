package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/examdesk/internal/highlight"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to examdesk! Let's configure this server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (database lives here)",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dataDir

	// 2. Port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 3. Default highlight colour.
	colors := highlight.Colors()
	items := make([]string, len(colors))
	for i, c := range colors {
		items[i] = string(c)
	}
	colorPrompt := promptui.Select{
		Label: "Default highlight colour",
		Items: items,
	}
	_, color, err := colorPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("highlight colour: %w", err)
	}
	cfg.Highlight.DefaultColor = color

	// 4. Cross-paragraph highlights.
	spanPrompt := promptui.Select{
		Label: "Selections across paragraphs",
		Items: []string{
			"refuse the selection",
			"highlight each paragraph's part",
		},
	}
	spanIdx, _, err := spanPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("block spanning: %w", err)
	}
	cfg.Highlight.BlockSpanning = spanIdx == 1

	// 5. Import patterns.
	includePrompt := promptui.Prompt{
		Label:   "Passage file patterns (comma-separated globs)",
		Default: strings.Join(DefaultIncludes, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	if include := splitAndTrim(includeStr); len(include) > 0 {
		cfg.Import.Include = include
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
