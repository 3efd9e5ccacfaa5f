package importer

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude matches every passage file format the importer reads.
var DefaultInclude = []string{"**/*.md", "**/*.markdown", "**/*.html", "**/*.htm"}

// skipDirs are never descended into.
var skipDirs = []string{".git", "node_modules", ".examdesk", ".idea", ".vscode"}

// DefaultMaxFileSize is the largest passage file read (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// file is one candidate passage source.
type file struct {
	Path    string // absolute
	RelPath string // slash separated, relative to the import root
	Size    int64
}

// findFiles walks root and returns the regular files matching include and
// not matching exclude, sorted by relative path.
func findFiles(root string, include, exclude []string, maxSize int64) ([]file, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []file
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !matchesAny(rel, include) || matchesAny(rel, exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}
		files = append(files, file{Path: path, RelPath: rel, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func skipDir(name string) bool {
	for _, s := range skipDirs {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}

// matchesAny checks relPath, then its base name, against doublestar
// patterns.
func matchesAny(relPath string, patterns []string) bool {
	base := filepath.Base(relPath)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
