package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
)

const defaultDebounce = 500 * time.Millisecond

// FileWatcher re-runs the pipeline when the fixture file changes. Editors
// often replace a file instead of writing it, so the parent directory is
// watched and events are matched on the file name.
type FileWatcher struct {
	path     string
	runner   Runner
	logger   *slog.Logger
	clock    clockwork.Clock
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// WatcherOption configures a FileWatcher.
type WatcherOption func(*FileWatcher)

// WithDebounce collapses bursts of events closer together than d into one run.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *FileWatcher) { w.debounce = d }
}

// WithWatcherClock sets the clock used for debouncing.
func WithWatcherClock(c clockwork.Clock) WatcherOption {
	return func(w *FileWatcher) { w.clock = c }
}

// NewFileWatcher starts watching the directory that contains path.
func NewFileWatcher(path string, runner Runner, logger *slog.Logger, opts ...WatcherOption) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	fw := &FileWatcher{
		path:     abs,
		runner:   runner,
		logger:   logger.With("trigger", "fixture_watch", "path", abs),
		clock:    clockwork.NewRealClock(),
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(fw)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("watch %q: %w", filepath.Dir(abs), err)
	}
	fw.watcher = w
	return fw, nil
}

// Run dispatches change events until ctx is cancelled, then closes the
// underlying watcher.
func (fw *FileWatcher) Run(ctx context.Context) error {
	defer fw.watcher.Close() //nolint:errcheck // shutdown path
	fw.logger.Info("fixture watcher started")

	var pending clockwork.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("fixture changed", "op", event.Op.String())
			if pending != nil {
				pending.Stop()
			}
			pending = fw.clock.AfterFunc(fw.debounce, func() {
				fire(ctx, fw.runner, fw.logger)
			})
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("fixture watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && abs == fw.path
}
