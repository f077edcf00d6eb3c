package watcher

import (
	"path/filepath"
	"slices"
	"strings"
)

// FileFilter decides which discovered files are never forwarded.
type FileFilter struct {
	patterns []string
}

// NewFileFilter ignores nothing when no patterns are given.
func NewFileFilter(patterns []string) *FileFilter {
	return &FileFilter{patterns: slices.Clone(patterns)}
}

// ShouldIgnore matches the base name of path against every glob pattern.
// Patterns starting with a dot and without wildcards are treated as
// case-insensitive suffixes.
func (f *FileFilter) ShouldIgnore(path string) bool {
	filename := filepath.Base(path)

	for _, pattern := range f.patterns {
		if matched, err := filepath.Match(pattern, filename); err == nil && matched {
			return true
		}
		if strings.HasPrefix(pattern, ".") && !strings.ContainsAny(pattern, "*?[") {
			if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(pattern)) {
				return true
			}
		}
	}
	return false
}

func (f *FileFilter) Patterns() []string {
	return slices.Clone(f.patterns)
}
