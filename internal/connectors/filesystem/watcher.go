// Package filesystem watches a drop folder for import files.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/importer"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// DefaultSettle is how long a file must be quiet before it is handled.
// Editors and copy tools write files in several steps.
const DefaultSettle = 500 * time.Millisecond

// HandlerFunc processes one import file.
type HandlerFunc func(ctx context.Context, path string) error

// Watcher calls a handler for every importable file created or written
// in a directory. Hidden files and subdirectories are ignored.
type Watcher struct {
	dir     string
	handler HandlerFunc
	settle  time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, handler HandlerFunc) *Watcher {
	return &Watcher{
		dir:     dir,
		handler: handler,
		settle:  DefaultSettle,
		pending: make(map[string]time.Time),
	}
}

// SetSettle overrides how long a file must be quiet before handling.
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Scan handles every importable file already in the directory, in name
// order. It returns the number of files handled without error.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", w.dir, err)
	}
	handled := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			return handled, ctx.Err()
		}
		if e.IsDir() || !wanted(e.Name()) {
			continue
		}
		if w.handle(ctx, filepath.Join(w.dir, e.Name())) {
			handled++
		}
	}
	return handled, nil
}

// Watch blocks until ctx is cancelled, handling files as they settle.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("watching %s for import files", w.dir)

	tick := max(w.settle/2, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := handleFsEvent(event); ok {
				w.touch(path, time.Now())
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				w.handle(ctx, path)
			}
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) bool {
	if err := w.handler(ctx, path); err != nil {
		logger.Error("import %s: %v", filepath.Base(path), err)
		return false
	}
	return true
}

func (w *Watcher) touch(path string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = at
}

// settled removes and returns the pending paths quiet since now-settle.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	slices.Sort(ready)
	return ready
}

// handleFsEvent returns the path to import for a create or write event on
// a regular, visible, importable file.
func handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !wanted(filepath.Base(event.Name)) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

func wanted(name string) bool {
	return !strings.HasPrefix(name, ".") && importer.Supported(name)
}
