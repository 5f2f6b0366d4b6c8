package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	t.Run("detects writes to a watched file", func(t *testing.T) {
		tmpDir := t.TempDir()
		envFile := filepath.Join(tmpDir, ".env")
		if err := os.WriteFile(envFile, []byte("KEY=value\n"), 0644); err != nil {
			t.Fatalf("write file: %v", err)
		}

		w, err := NewWithDebounce(50 * time.Millisecond)
		if err != nil {
			t.Fatalf("NewWithDebounce: %v", err)
		}
		defer w.Close()

		if err := w.Add(envFile); err != nil {
			t.Fatalf("Add: %v", err)
		}
		changes := w.Start()

		time.Sleep(50 * time.Millisecond)

		if err := os.WriteFile(envFile, []byte("KEY=changed\n"), 0644); err != nil {
			t.Fatalf("write file: %v", err)
		}

		select {
		case <-changes:
		case <-time.After(2 * time.Second):
			t.Error("expected change notification")
		}
	})

	t.Run("detects creation of a not-yet-existing file", func(t *testing.T) {
		tmpDir := t.TempDir()
		envFile := filepath.Join(tmpDir, ".env")

		w, err := NewWithDebounce(50 * time.Millisecond)
		if err != nil {
			t.Fatalf("NewWithDebounce: %v", err)
		}
		defer w.Close()

		if err := w.Add(envFile); err != nil {
			t.Fatalf("Add: %v", err)
		}
		changes := w.Start()

		time.Sleep(50 * time.Millisecond)

		if err := os.WriteFile(envFile, []byte("KEY=value\n"), 0644); err != nil {
			t.Fatalf("write file: %v", err)
		}

		select {
		case <-changes:
		case <-time.After(2 * time.Second):
			t.Error("expected notification for created file")
		}
	})

	t.Run("debounces rapid writes", func(t *testing.T) {
		tmpDir := t.TempDir()
		envFile := filepath.Join(tmpDir, ".env")
		if err := os.WriteFile(envFile, []byte("KEY=value\n"), 0644); err != nil {
			t.Fatalf("write file: %v", err)
		}

		w, err := NewWithDebounce(200 * time.Millisecond)
		if err != nil {
			t.Fatalf("NewWithDebounce: %v", err)
		}
		defer w.Close()

		if err := w.Add(envFile); err != nil {
			t.Fatalf("Add: %v", err)
		}
		changes := w.Start()

		time.Sleep(50 * time.Millisecond)

		for i := 0; i < 5; i++ {
			if err := os.WriteFile(envFile, []byte("KEY=burst\n"), 0644); err != nil {
				t.Fatalf("write file: %v", err)
			}
			time.Sleep(20 * time.Millisecond)
		}

		select {
		case <-changes:
		case <-time.After(2 * time.Second):
			t.Fatal("expected one notification")
		}

		select {
		case <-changes:
			t.Error("burst should collapse into a single notification")
		case <-time.After(400 * time.Millisecond):
		}
	})

	t.Run("ignores unrelated files", func(t *testing.T) {
		tmpDir := t.TempDir()
		envFile := filepath.Join(tmpDir, ".env")
		otherFile := filepath.Join(tmpDir, "other.txt")
		if err := os.WriteFile(envFile, []byte("KEY=value\n"), 0644); err != nil {
			t.Fatalf("write file: %v", err)
		}

		w, err := NewWithDebounce(50 * time.Millisecond)
		if err != nil {
			t.Fatalf("NewWithDebounce: %v", err)
		}
		defer w.Close()

		if err := w.Add(envFile); err != nil {
			t.Fatalf("Add: %v", err)
		}
		changes := w.Start()

		time.Sleep(50 * time.Millisecond)

		if err := os.WriteFile(otherFile, []byte("noise\n"), 0644); err != nil {
			t.Fatalf("write file: %v", err)
		}

		select {
		case <-changes:
			t.Error("unrelated file should not notify")
		case <-time.After(300 * time.Millisecond):
		}
	})

	t.Run("add is idempotent", func(t *testing.T) {
		tmpDir := t.TempDir()
		envFile := filepath.Join(tmpDir, ".env")
		if err := os.WriteFile(envFile, []byte("KEY=value\n"), 0644); err != nil {
			t.Fatalf("write file: %v", err)
		}

		w, err := New()
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer w.Close()

		if err := w.Add(envFile); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := w.Add(envFile); err != nil {
			t.Fatalf("second Add: %v", err)
		}
		if got := len(w.Files()); got != 1 {
			t.Errorf("Files() has %d entries, want 1", got)
		}
	})
}
