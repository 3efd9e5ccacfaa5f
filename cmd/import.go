package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/examdesk/internal/db"
	"github.com/ziadkadry99/examdesk/internal/importer"
	"github.com/ziadkadry99/examdesk/internal/progress"
	"github.com/ziadkadry99/examdesk/internal/server"
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import passage files into the database",
	Long: `Walks dir (default ".") for Markdown and HTML passage files and stores each
one as a passage. Files imported earlier are updated in place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("test", "", "attach imported passages to this test id")
	importCmd.Flags().StringSlice("include", nil, "glob patterns to import (overrides config)")
	importCmd.Flags().StringSlice("exclude", nil, "glob patterns to skip (overrides config)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	opts := importer.Options{
		Root:        root,
		Include:     cfg.Import.Include,
		Exclude:     cfg.Import.Exclude,
		MaxFileSize: cfg.Import.MaxFileSize,
	}
	opts.TestID, _ = cmd.Flags().GetString("test")
	if include, _ := cmd.Flags().GetStringSlice("include"); len(include) > 0 {
		opts.Include = include
	}
	if exclude, _ := cmd.Flags().GetStringSlice("exclude"); len(exclude) > 0 {
		opts.Exclude = exclude
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	svc := server.NewServices(database, cfg.EngineOptions(), cfg.ScrollDelay(), log)
	reporter := progress.NewReporter("Importing passages", os.Stderr)
	im := importer.New(svc.Exams, svc.Audit, reporter, log)

	res, err := im.Import(ctx, opts)
	if err != nil {
		return err
	}

	if verbose {
		for _, f := range res.Files {
			if f.Error != "" {
				fmt.Fprintf(os.Stderr, "  failed  %s: %s\n", f.Path, f.Error)
			} else if f.Created {
				fmt.Fprintf(os.Stderr, "  created %s (%s)\n", f.Path, f.PassageID)
			} else {
				fmt.Fprintf(os.Stderr, "  updated %s (%s)\n", f.Path, f.PassageID)
			}
		}
	}
	fmt.Printf("Imported %d new, %d updated, %d failed\n", res.Created, res.Updated, res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d passage file(s) failed to import", res.Failed)
	}
	return nil
}
