package prune

import (
	"os"
	"path/filepath"
	"testing"
)

func makeTree(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	dirs := []string{
		"pkg/__pycache__",
		"pkg/sub/__pycache__",
		"pkg/.pytest_cache",
		"pkg/src",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(tmpDir, d), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}

	files := map[string]string{
		"pkg/__pycache__/mod.cpython-312.pyc":     "bytecode",
		"pkg/sub/__pycache__/sub.cpython-312.pyc": "more bytecode",
		"pkg/.pytest_cache/CACHEDIR.TAG":          "tag",
		"pkg/src/keep.py":                         "print('hi')",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return tmpDir
}

func TestFindTargets(t *testing.T) {
	t.Run("default patterns find caches", func(t *testing.T) {
		root := makeTree(t)
		targets, err := FindTargets(root, nil)
		if err != nil {
			t.Fatalf("FindTargets() error = %v", err)
		}
		if len(targets) != 3 {
			t.Fatalf("got %d targets, want 3: %+v", len(targets), targets)
		}
		for _, tgt := range targets {
			if tgt.Rel == "pkg/src" {
				t.Errorf("source directory matched: %+v", tgt)
			}
		}
	})

	t.Run("custom pattern", func(t *testing.T) {
		root := makeTree(t)
		targets, err := FindTargets(root, []string{"**/.pytest_cache"})
		if err != nil {
			t.Fatalf("FindTargets() error = %v", err)
		}
		if len(targets) != 1 || targets[0].Rel != "pkg/.pytest_cache" {
			t.Errorf("targets = %+v", targets)
		}
	})

	t.Run("counts files and bytes", func(t *testing.T) {
		root := makeTree(t)
		targets, err := FindTargets(root, []string{"pkg/__pycache__"})
		if err != nil {
			t.Fatalf("FindTargets() error = %v", err)
		}
		if len(targets) != 1 {
			t.Fatalf("got %d targets, want 1", len(targets))
		}
		if targets[0].Files != 1 {
			t.Errorf("Files = %d, want 1", targets[0].Files)
		}
		if targets[0].Bytes != int64(len("bytecode")) {
			t.Errorf("Bytes = %d, want %d", targets[0].Bytes, len("bytecode"))
		}
	})

	t.Run("invalid pattern rejected", func(t *testing.T) {
		root := makeTree(t)
		if _, err := FindTargets(root, []string{"[unclosed"}); err == nil {
			t.Error("FindTargets() should reject an invalid pattern")
		}
	})

	t.Run("missing root rejected", func(t *testing.T) {
		if _, err := FindTargets(filepath.Join(t.TempDir(), "absent"), nil); err == nil {
			t.Error("FindTargets() should error on missing root")
		}
	})
}

func TestPrune(t *testing.T) {
	t.Run("dry run leaves tree intact", func(t *testing.T) {
		root := makeTree(t)
		result, err := Prune(root, nil, true)
		if err != nil {
			t.Fatalf("Prune() error = %v", err)
		}
		if !result.DryRun {
			t.Error("result should be marked dry run")
		}
		if len(result.Targets) != 3 {
			t.Errorf("got %d targets, want 3", len(result.Targets))
		}
		if _, err := os.Stat(filepath.Join(root, "pkg/__pycache__")); err != nil {
			t.Error("dry run deleted a directory")
		}
	})

	t.Run("deletes matches and keeps the rest", func(t *testing.T) {
		root := makeTree(t)
		result, err := Prune(root, nil, false)
		if err != nil {
			t.Fatalf("Prune() error = %v", err)
		}
		if result.Files != 3 {
			t.Errorf("Files = %d, want 3", result.Files)
		}
		for _, gone := range []string{"pkg/__pycache__", "pkg/sub/__pycache__", "pkg/.pytest_cache"} {
			if _, err := os.Stat(filepath.Join(root, gone)); !os.IsNotExist(err) {
				t.Errorf("%s still exists", gone)
			}
		}
		if _, err := os.Stat(filepath.Join(root, "pkg/src/keep.py")); err != nil {
			t.Error("source file was deleted")
		}
	})

	t.Run("no matches is a no-op", func(t *testing.T) {
		root := t.TempDir()
		result, err := Prune(root, nil, false)
		if err != nil {
			t.Fatalf("Prune() error = %v", err)
		}
		if len(result.Targets) != 0 {
			t.Errorf("got %d targets, want 0", len(result.Targets))
		}
	})
}
