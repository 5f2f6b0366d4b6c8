// Package watch notifies about env file changes so a running child can be
// restarted with a fresh environment.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses editor save bursts into one notification.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a fixed set of files. For files that do not exist yet the
// containing directory is watched so the first write still notifies.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu    sync.Mutex
	files map[string]bool
	timer *time.Timer

	changes chan struct{}
	done    chan struct{}
}

// New creates a watcher with the default debounce window.
func New() (*Watcher, error) {
	return NewWithDebounce(DefaultDebounce)
}

func NewWithDebounce(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		files:    make(map[string]bool),
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Add registers a file to watch. Adding the same file twice is a no-op.
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[absPath] {
		return nil
	}

	target := absPath
	if _, err := os.Stat(absPath); err != nil {
		// Not there yet: watch the directory and filter events by name.
		target = filepath.Dir(absPath)
	}
	if err := w.fsw.Add(target); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}
	w.files[absPath] = true
	return nil
}

// Start begins event delivery and returns the change channel. Each receive
// means at least one watched file was created or written since the last one.
func (w *Watcher) Start() <-chan struct{} {
	go w.loop()
	return w.changes
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if w.interested(event.Name) {
				w.trigger()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) interested(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[name] {
		return true
	}
	// Atomic-save editors replace the file; match on base name within a
	// watched directory.
	for watched := range w.files {
		if filepath.Base(watched) == filepath.Base(name) && filepath.Dir(watched) == filepath.Dir(name) {
			return true
		}
	}
	return false
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.changes <- struct{}{}:
		default:
		}
	})
}

// Files returns the absolute paths currently watched.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	return files
}

func (w *Watcher) Close() error {
	close(w.done)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
