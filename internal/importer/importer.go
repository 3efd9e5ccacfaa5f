// Package importer bulk-loads reading passages from Markdown and HTML
// files into the exam store.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/examdesk/internal/audit"
	"github.com/ziadkadry99/examdesk/internal/exam"
	"github.com/ziadkadry99/examdesk/internal/logger"
	"github.com/ziadkadry99/examdesk/internal/passage"
	"github.com/ziadkadry99/examdesk/internal/progress"
)

// Options selects what to import.
type Options struct {
	Root        string
	TestID      string   // attach imported passages to this test
	Include     []string // doublestar patterns; DefaultInclude when empty
	Exclude     []string
	MaxFileSize int64
}

// FileResult is the outcome for one source file.
type FileResult struct {
	Path      string `json:"path"`
	PassageID string `json:"passage_id,omitempty"`
	Created   bool   `json:"created"`
	Error     string `json:"error,omitempty"`
}

// Result summarizes an import run.
type Result struct {
	Created int          `json:"created"`
	Updated int          `json:"updated"`
	Failed  int          `json:"failed"`
	Files   []FileResult `json:"files"`
}

// Importer reads passage files into an exam store. Re-importing a file
// replaces the passage created from it earlier.
type Importer struct {
	exams    *exam.Store
	trail    audit.Logger
	reporter progress.Reporter
	log      *logger.Logger
}

// New creates an Importer. trail and reporter may be nil.
func New(exams *exam.Store, trail audit.Logger, reporter progress.Reporter, log *logger.Logger) *Importer {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Importer{exams: exams, trail: trail, reporter: reporter, log: logger.OrNop(log)}
}

// Import loads every matching file under opts.Root. A file that fails is
// recorded in the result and does not stop the run; only walking errors
// and cancellation abort it.
func (im *Importer) Import(ctx context.Context, opts Options) (Result, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return Result{}, fmt.Errorf("resolving import root: %w", err)
	}
	if opts.TestID != "" {
		t, err := im.exams.GetTest(ctx, opts.TestID)
		if err != nil {
			return Result{}, err
		}
		if t == nil {
			return Result{}, fmt.Errorf("test %s does not exist", opts.TestID)
		}
	}

	files, err := findFiles(root, opts.Include, opts.Exclude, opts.MaxFileSize)
	if err != nil {
		return Result{}, err
	}

	res := Result{Files: make([]FileResult, 0, len(files))}
	im.reporter.Start(len(files))
	defer im.reporter.Finish()

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		fr := im.importFile(ctx, f, opts.TestID)
		switch {
		case fr.Error != "":
			res.Failed++
			im.log.Warn("passage import failed", "path", f.RelPath, "error", fr.Error)
		case fr.Created:
			res.Created++
		default:
			res.Updated++
		}
		res.Files = append(res.Files, fr)
		im.reporter.Update(i+1, f.RelPath)
	}

	im.log.Info("passages imported", "root", root, "created", res.Created, "updated", res.Updated, "failed", res.Failed)
	return res, nil
}

func (im *Importer) importFile(ctx context.Context, f file, testID string) FileResult {
	fr := FileResult{Path: f.RelPath}

	format, err := passage.ParseFormat(strings.ToLower(filepath.Ext(f.Path)))
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		fr.Error = fmt.Sprintf("reading file: %v", err)
		return fr
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		fr.Error = "file is empty"
		return fr
	}

	p, created, err := im.exams.SavePassageFromSource(ctx, exam.Passage{
		TestID:     testID,
		Title:      titleOf(content, format, f.RelPath),
		Content:    content,
		Format:     format,
		SourcePath: f.RelPath,
	})
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.PassageID = p.ID
	fr.Created = created

	if im.trail != nil {
		verb := "Updated"
		if created {
			verb = "Imported"
		}
		if err := im.trail.Log(ctx, audit.Entry{
			ActorType: audit.ActorSystem,
			ActorID:   "importer",
			Action:    audit.ActionPassageImported,
			Scope:     audit.ScopePassage,
			ScopeID:   p.ID,
			Summary:   verb + " " + f.RelPath,
		}); err != nil {
			im.log.Warn("audit entry dropped", "path", f.RelPath, "error", err)
		}
	}
	return fr
}

// titleOf returns the first Markdown heading, or the file name without
// its extension.
func titleOf(content string, format passage.Format, relPath string) string {
	if format == passage.FormatMarkdown {
		for _, line := range strings.Split(content, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "#") {
				if title := strings.TrimSpace(strings.TrimLeft(line, "#")); title != "" {
					return title
				}
			}
		}
	}
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
