package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is imported.
const DefaultDebounce = 300 * time.Millisecond

// Watcher imports finding files created or written in a directory.
type Watcher struct {
	importer *Importer
	dir      string
	debounce time.Duration
	onImport func(path string, report Report)

	mu      sync.Mutex
	pending map[string]time.Time
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long a file must be quiet before import.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithOnImport registers a callback invoked after each file is imported.
func WithOnImport(fn func(path string, report Report)) WatcherOption {
	return func(w *Watcher) { w.onImport = fn }
}

// NewWatcher creates a watcher for dir.
func NewWatcher(importer *Importer, dir string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		importer: importer,
		dir:      dir,
		debounce: DefaultDebounce,
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run imports the supported files already in the directory, then watches it
// until ctx is cancelled. Rejected files and findings are logged and do not
// stop the watcher. Run returns an error if watching cannot start or a
// storage failure makes further imports pointless.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return fmt.Errorf("creating inbox directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for findings", w.dir)

	existing, err := w.existingFiles()
	if err != nil {
		return err
	}
	for _, path := range existing {
		if err := w.importPath(ctx, path); err != nil {
			return err
		}
	}

	tick := w.debounce / 3
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Inbox watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox watcher: %v", err)

		case now := <-ticker.C:
			for _, path := range w.due(now) {
				if err := w.importPath(ctx, path); err != nil {
					return err
				}
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if _, ok := FormatFor(event.Name); !ok {
		return
	}
	logger.Debug("Inbox event %s for %s", event.Op, event.Name)

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// due removes and returns the pending paths quiet for at least the debounce.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var paths []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			paths = append(paths, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(paths)
	return paths
}

func (w *Watcher) existingFiles() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", w.dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := FormatFor(entry.Name()); ok {
			paths = append(paths, filepath.Join(w.dir, entry.Name()))
		}
	}
	return paths, nil
}

// importPath imports one file and returns only storage failures.
func (w *Watcher) importPath(ctx context.Context, path string) error {
	report, err := w.importer.ImportFile(ctx, path)
	for _, r := range report.Rejected {
		logger.Error("rejected %s", r)
	}
	if w.onImport != nil {
		w.onImport(path, report)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrStorage) {
		return fmt.Errorf("inbox watcher stopped: %w", err)
	}
	logger.Error("importing %s: %v", path, err)
	return nil
}
