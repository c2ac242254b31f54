// Package watch observes the file backend's preferences file and reports
// record counts whenever the document changes on disk. External writers
// (another roster process, a hand edit) become visible without polling.
package watch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"roster/internal/record"
)

// Event describes the decoded state of the watched document after a
// settled change.
type Event struct {
	Path    string
	Records int
	Dropped int
}

// Stats tracks watcher activity for debugging.
type Stats struct {
	Writes    int
	Removes   int
	Errors    int
	LastEvent time.Time
}

// Watcher watches one preferences file for changes, debounces rapid
// saves, and invokes the callback with the freshly decoded record count.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	key         string
	onChange    func(Event)
	logger      *zap.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// New creates a Watcher for the preferences file at path. key is the
// substrate key the record blob lives under inside the document.
func New(path, key string, logger *zap.Logger, onChange func(Event)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:     fsw,
		path:        filepath.Clean(path),
		key:         key,
		onChange:    onChange,
		logger:      logger,
		debounceMap: make(map[string]time.Time),
		debounceDur: 250 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in its own
// goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory, not the file: atomic saves replace the file
	// via rename, which drops a direct file watch.
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.logger.Warn("failed to create watch directory", zap.String("dir", dir), zap.Error(err))
	}
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("initial watch failed", zap.String("dir", dir), zap.Error(err))
	} else {
		w.logger.Info("watching preferences file", zap.String("path", w.path))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("error closing watcher", zap.Error(err))
	}
}

// GetStats returns the current watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0:
		w.mu.Lock()
		w.stats.Writes++
		w.stats.LastEvent = time.Now()
		w.debounceMap[w.path] = time.Now()
		w.mu.Unlock()
	case event.Op&fsnotify.Remove != 0:
		w.mu.Lock()
		w.stats.Removes++
		w.stats.LastEvent = time.Now()
		w.mu.Unlock()
	}
}

func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	toProcess := make([]string, 0, len(w.debounceMap))
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			toProcess = append(toProcess, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range toProcess {
		w.decodeAndNotify(path)
	}
}

func (w *Watcher) decodeAndNotify(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		w.logger.Error("failed to read preferences file", zap.String("path", path), zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	doc := map[string]string{}
	if err := json.Unmarshal(data, &doc); err != nil {
		w.logger.Error("failed to parse preferences file", zap.String("path", path), zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	records, dropped := record.Decode(doc[w.key], time.Now().UnixMilli())
	if w.onChange != nil {
		w.onChange(Event{Path: path, Records: len(records), Dropped: dropped})
	}
}
