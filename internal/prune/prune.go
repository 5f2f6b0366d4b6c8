// Package prune deletes directory trees matching glob patterns, such as
// interpreter bytecode caches left under a project before launching it.
package prune

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns cover the usual Python bytecode and tool caches.
var DefaultPatterns = []string{
	"**/__pycache__",
	"**/.pytest_cache",
	"**/.mypy_cache",
}

// Target is one directory selected for deletion.
type Target struct {
	Path  string // absolute
	Rel   string // slash-separated, relative to the scan root
	Files int
	Bytes int64
}

// Result summarizes a prune pass.
type Result struct {
	Targets []Target
	Files   int
	Bytes   int64
	DryRun  bool
}

func normalizePatterns(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSuffix(filepath.ToSlash(strings.TrimSpace(p)), "/")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable patterns")
	}
	return out, nil
}

func matchesAny(patterns []string, relPath string) bool {
	for _, p := range patterns {
		matched, err := doublestar.Match(p, relPath)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// FindTargets walks root and collects directories whose slash-relative path
// matches any pattern. Matched directories are not descended into, so a
// cache inside a cache reports once.
func FindTargets(root string, patterns []string) ([]Target, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", absRoot)
	}

	pats, err := normalizePatterns(patterns)
	if err != nil {
		return nil, err
	}

	var targets []Target
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(pats, rel) {
			return nil
		}

		t := Target{Path: path, Rel: rel}
		if err := measure(&t); err != nil {
			return err
		}
		targets = append(targets, t)
		return filepath.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}
	return targets, nil
}

func measure(t *Target) error {
	return filepath.WalkDir(t.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		t.Files++
		t.Bytes += info.Size()
		return nil
	})
}

// Prune finds and deletes matching directories under root. With dryRun the
// result lists what would be removed and nothing is touched.
func Prune(root string, patterns []string, dryRun bool) (*Result, error) {
	targets, err := FindTargets(root, patterns)
	if err != nil {
		return nil, err
	}

	result := &Result{Targets: targets, DryRun: dryRun}
	for _, t := range targets {
		result.Files += t.Files
		result.Bytes += t.Bytes
	}
	if dryRun {
		return result, nil
	}

	for _, t := range targets {
		if err := os.RemoveAll(t.Path); err != nil {
			return result, fmt.Errorf("remove %s: %w", t.Path, err)
		}
	}
	return result, nil
}
