// Package watch reruns a handler when watched files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vibekit/rulehub/pkg/log"
)

// DefaultDebounce coalesces the bursts of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// ErrNoFiles is returned by [New] when no paths are given.
var ErrNoFiles = errors.New("no files to watch")

// Handler is called with the path of a changed file.
type Handler func(ctx context.Context, path string) error

// Opt configures a [Watcher].
type Opt func(*Watcher)

// WithDebounce sets the quiet period after the last event before the
// handler runs.
func WithDebounce(d time.Duration) Opt {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// Watcher watches individual files. The parent directories are watched so
// that files replaced by rename (as many editors do) keep being observed.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	dirs     map[string]struct{}
	debounce time.Duration
}

// New creates a [Watcher] for paths.
func New(paths []string, opts ...Opt) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]struct{}, len(paths)),
		dirs:     map[string]struct{}{},
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close() //nolint:errcheck // Already failing.

			return nil, fmt.Errorf("resolve %q: %w", p, err)
		}

		dir := filepath.Dir(abs)
		if _, ok := w.dirs[dir]; !ok {
			err := fw.Add(dir)
			if err != nil {
				_ = fw.Close() //nolint:errcheck // Already failing.

				return nil, fmt.Errorf("add path to watcher: %w", err)
			}

			w.dirs[dir] = struct{}{}
		}

		w.files[abs] = struct{}{}
	}

	return w, nil
}

func (w *Watcher) isFileWatched(path string) bool {
	_, ok := w.files[filepath.Clean(path)]

	return ok
}

// Run calls h for every changed file until ctx is canceled or the watcher
// is closed. Handler errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	logger := log.WithContext(ctx)

	logger.DebugContext(ctx, "added file watchers",
		slog.Int("files", len(w.files)),
		slog.Int("dirs", len(w.dirs)),
	)

	var (
		timers  = map[string]*time.Timer{}
		fire    = make(chan string)
		stop    = make(chan struct{})
		pending sync.WaitGroup
	)

	defer func() {
		close(stop)

		for _, t := range timers {
			if t.Stop() {
				pending.Done()
			}
		}

		pending.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-fire:
			delete(timers, path)

			logger.InfoContext(ctx, "file changed", slog.String("path", path))

			err := h(ctx, path)
			if err != nil {
				logger.ErrorContext(ctx, "handle file change",
					slog.String("path", path),
					slog.Any("err", err),
				)
			}

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if !w.isFileWatched(evt.Name) {
				continue
			}

			// Ignore events that are not related to file content changes.
			if evt.Has(fsnotify.Chmod) || evt.Has(fsnotify.Remove) {
				continue
			}

			path := filepath.Clean(evt.Name)

			if t, ok := timers[path]; ok && t.Stop() {
				pending.Done()
			}

			pending.Add(1)
			timers[path] = time.AfterFunc(w.debounce, func() {
				defer pending.Done()

				select {
				case fire <- path:
				case <-stop:
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			logger.ErrorContext(ctx, "file watcher", slog.Any("err", err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}

	return nil
}
