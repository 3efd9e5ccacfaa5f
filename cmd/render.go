package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/examdesk/internal/highlight"
	"github.com/ziadkadry99/examdesk/internal/passage"
	"github.com/ziadkadry99/examdesk/internal/reference"
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a passage file with sentence highlights",
	Long: `Renders a Markdown or HTML passage the way the exam UI shows it. --refs takes
a JSON list of sentence references, for example '[0,{"sentenceIndex":2,"start":4,"end":10}]'.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("refs", "", "sentence references as JSON")
	renderCmd.Flags().String("format", "", "content format: html or markdown (default: from extension)")
	renderCmd.Flags().Bool("json", false, "print the full view as JSON instead of HTML")
	renderCmd.Flags().Bool("highlighting", true, "mark the passage as highlighting-enabled")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	formatName, _ := cmd.Flags().GetString("format")
	if formatName == "" {
		formatName = filepath.Ext(path)
	}
	format, err := passage.ParseFormat(formatName)
	if err != nil {
		return err
	}
	content, err := passage.Prepare(string(src), format)
	if err != nil {
		return err
	}

	refsJSON, _ := cmd.Flags().GetString("refs")
	refs, err := reference.Parse([]byte(refsJSON))
	if err != nil {
		return fmt.Errorf("parsing --refs: %w", err)
	}

	highlighting, _ := cmd.Flags().GetBool("highlighting")
	engine := highlight.NewEngine(log, cfg.EngineOptions())
	renderer := passage.NewRenderer(log, engine, cfg.ScrollDelay())
	view := renderer.Render(content, refs, passage.Mode{Highlighting: highlighting})

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Println(view.HTML)
	if verbose {
		for _, s := range view.Sentences {
			marker := " "
			if slices.Contains(view.Highlighted, s.Index) {
				marker = "*"
			}
			fmt.Fprintf(os.Stderr, "%s [%d] %s\n", marker, s.Index, s.Text)
		}
	}
	return nil
}
