package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLogAndReadAll(t *testing.T) {
	tmpDir := t.TempDir()

	if err := Log(tmpDir, OpRun, WithCommand("python main.py"), WithExitCode(0), WithFiles([]string{".env"})); err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if err := Log(tmpDir, OpClean, WithTargets([]string{"pkg/__pycache__"})); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	entries, err := ReadAll(tmpDir)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	if entries[0].Op != OpRun || entries[0].Command != "python main.py" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[0].PrevHash != "" {
		t.Error("first entry should have empty prev hash")
	}
	if entries[1].Op != OpClean || entries[1].PrevHash == "" {
		t.Errorf("second entry = %+v", entries[1])
	}
	if entries[0].SessionID == "" || entries[0].SessionID != entries[1].SessionID {
		t.Error("entries should share the process session id")
	}
}

func TestReadAllMissing(t *testing.T) {
	_, err := ReadAll(t.TempDir())
	if !errors.Is(err, ErrNoAuditLog) {
		t.Errorf("ReadAll() error = %v, want ErrNoAuditLog", err)
	}
}

func TestVerify(t *testing.T) {
	t.Run("valid chain", func(t *testing.T) {
		tmpDir := t.TempDir()
		for i := 0; i < 3; i++ {
			if err := Log(tmpDir, OpExport, WithFiles([]string{".env"})); err != nil {
				t.Fatalf("Log() error = %v", err)
			}
		}
		n, err := Verify(tmpDir)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if n != 3 {
			t.Errorf("Verify() = %d, want 3", n)
		}
	})

	t.Run("tampered line breaks chain", func(t *testing.T) {
		tmpDir := t.TempDir()
		for i := 0; i < 2; i++ {
			if err := Log(tmpDir, OpRun, WithCommand("true")); err != nil {
				t.Fatalf("Log() error = %v", err)
			}
		}

		path := filepath.Join(tmpDir, auditDir, auditFile)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read log: %v", err)
		}
		tampered := []byte("{\"ts\":\"2026-01-01T00:00:00Z\",\"op\":\"run\",\"sid\":\"x\",\"prev_hash\":\"\"}\n")
		if err := os.WriteFile(path, append(tampered, data...), 0644); err != nil {
			t.Fatalf("write log: %v", err)
		}

		if _, err := Verify(tmpDir); err == nil {
			t.Error("Verify() should fail on a tampered log")
		}
	})

	t.Run("missing log", func(t *testing.T) {
		_, err := Verify(t.TempDir())
		if !errors.Is(err, ErrNoAuditLog) {
			t.Errorf("Verify() error = %v, want ErrNoAuditLog", err)
		}
	})
}
