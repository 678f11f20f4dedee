// Package watch pushes source files when they change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/fsnotify.v1"

	"github.com/gerunddev/blockbridge/internal/logger"
)

// DefaultExtensions are the file types treated as documents
var DefaultExtensions = []string{".md", ".markdown", ".txt"}

// Handler is called once per changed file after the debounce window closes
type Handler func(ctx context.Context, path string) error

// Watcher watches a directory tree and hands settled changes to a Handler
type Watcher struct {
	dir        string
	debounce   time.Duration
	extensions []string
	handle     Handler
	log        *logger.Logger
}

// Option configures a Watcher
type Option func(*Watcher)

// WithExtensions replaces the watched file extensions
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.extensions = exts
	}
}

// WithLogger sets the watcher's logger
func WithLogger(l *logger.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// New creates a watcher for dir
func New(dir string, debounce time.Duration, handle Handler, opts ...Option) *Watcher {
	w := &Watcher{
		dir:        dir,
		debounce:   debounce,
		extensions: DefaultExtensions,
		handle:     handle,
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
// Handler errors are logged and reported, never fatal.
func (w *Watcher) Run(ctx context.Context) error {
	if w.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.dir); err != nil {
		return err
	}
	w.log.WatchStarted(w.dir, w.debounce)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.log.FileError(event.Name, err)
					}
					continue
				}
				fallthrough

			case event.Op&fsnotify.Write == fsnotify.Write:
				if !w.matches(event.Name) {
					continue
				}
				pending[event.Name] = struct{}{}
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(w.debounce)
				}
				fire = timer.C

			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				delete(pending, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.FileError(w.dir, err)

		case <-fire:
			fire = nil
			w.flush(ctx, pending)
			pending = make(map[string]struct{})
		}
	}
}

func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		// Editors that save via rename leave nothing behind at the old name
		if _, err := os.Stat(path); err != nil {
			continue
		}

		if err := w.handle(ctx, path); err != nil {
			w.log.FileError(path, err)
		}
	}
}

// addTree watches root and every directory below it, skipping hidden ones
func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching directory %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, want := range w.extensions {
		if ext == want {
			return true
		}
	}
	return false
}
