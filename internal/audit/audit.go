// Package audit keeps a hash-chained JSONL record of envfold operations in
// the working directory. Logging is best effort: callers ignore its errors
// so a read-only directory never breaks a run.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	auditDir  = ".envfold"
	auditFile = "audit.log"
)

var (
	ErrNoAuditLog = errors.New("no audit log found")

	mu        sync.Mutex
	sessionID = uuid.New().String()
)

type Op string

const (
	OpRun     Op = "run"
	OpClean   Op = "clean"
	OpExport  Op = "export"
	OpMCPCall Op = "mcp_call"
)

type Entry struct {
	Timestamp time.Time `json:"ts"`
	Op        Op        `json:"op"`
	SessionID string    `json:"sid"`
	Command   string    `json:"cmd,omitempty"`
	ExitCode  int       `json:"exit,omitempty"`
	Files     []string  `json:"files,omitempty"`
	Targets   []string  `json:"targets,omitempty"`
	Tool      string    `json:"tool,omitempty"`
	PrevHash  string    `json:"prev_hash"`
}

type Option func(*Entry)

func WithCommand(cmd string) Option {
	return func(e *Entry) { e.Command = cmd }
}

func WithExitCode(code int) Option {
	return func(e *Entry) { e.ExitCode = code }
}

func WithFiles(files []string) Option {
	return func(e *Entry) { e.Files = files }
}

func WithTargets(targets []string) Option {
	return func(e *Entry) { e.Targets = targets }
}

func WithTool(tool string) Option {
	return func(e *Entry) { e.Tool = tool }
}

func auditPath(workdir string) string {
	if workdir == "" {
		workdir, _ = os.Getwd()
	}
	return filepath.Join(workdir, auditDir, auditFile)
}

func lastHash(workdir string) string {
	f, err := os.Open(auditPath(workdir))
	if err != nil {
		return ""
	}
	defer f.Close()

	var lastLine string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lastLine = scanner.Text()
	}
	if lastLine == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(lastLine))
	return hex.EncodeToString(hash[:])
}

// Log appends one entry, chaining it to the previous line's hash.
func Log(workdir string, op Op, opts ...Option) error {
	mu.Lock()
	defer mu.Unlock()

	path := auditPath(workdir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ensure audit dir: %w", err)
	}

	entry := &Entry{
		Timestamp: time.Now().UTC(),
		Op:        op,
		SessionID: sessionID,
		PrevHash:  lastHash(workdir),
	}
	for _, opt := range opts {
		opt(entry)
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// ReadAll returns every entry in the log, oldest first.
func ReadAll(workdir string) ([]Entry, error) {
	f, err := os.Open(auditPath(workdir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoAuditLog
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("parse audit line %d: %w", len(entries)+1, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}

// Show returns up to n most recent entries, oldest first.
func Show(workdir string, n int) ([]Entry, error) {
	entries, err := ReadAll(workdir)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Verify checks the hash chain and returns the number of valid entries.
func Verify(workdir string) (int, error) {
	f, err := os.Open(auditPath(workdir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNoAuditLog
		}
		return 0, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	prevHash := ""
	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return count, fmt.Errorf("entry %d unparseable: %w", count+1, err)
		}
		if e.PrevHash != prevHash {
			return count, fmt.Errorf("entry %d breaks the hash chain", count+1)
		}
		hash := sha256.Sum256([]byte(line))
		prevHash = hex.EncodeToString(hash[:])
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("read audit log: %w", err)
	}
	return count, nil
}
