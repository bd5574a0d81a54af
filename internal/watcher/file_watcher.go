// Package watcher reports debounced batches of changed source documents.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 300 * time.Millisecond

// Filter decides which root-relative paths are watched.
type Filter interface {
	Matches(url string) bool
	IgnoresDir(url string) bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// Watcher watches a directory tree and reports changed documents as sorted,
// slash-separated URLs relative to the root.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	filter   Filter
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

// New watches root and every directory below it that filter does not ignore.
func New(root string, filter Filter, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		root:     root,
		filter:   filter,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start delivers batches to callback from a single goroutine until ctx is
// cancelled or Stop is called. Batches never overlap.
func (w *Watcher) Start(ctx context.Context, callback func(urls []string)) error {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx, callback)
	return nil
}

// Stop ends watching and waits for an in-flight callback to return.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.done
		}
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) run(ctx context.Context, callback func(urls []string)) {
	defer close(w.done)

	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event, fire)

		case <-fire:
			if urls := w.drain(); len(urls) > 0 {
				callback(urls)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, fire chan struct{}) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	url, ok := w.url(event.Name)
	if !ok || !w.filter.Matches(url) {
		return
	}

	w.mu.Lock()
	w.pending[url] = struct{}{}
	w.mu.Unlock()
	w.resetTimer(fire)
}

// drain returns and clears the accumulated changes.
func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	urls := make([]string, 0, len(w.pending))
	for url := range w.pending {
		urls = append(urls, url)
	}
	clear(w.pending)
	slices.Sort(urls)
	return urls
}

func (w *Watcher) resetTimer(fire chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) url(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// addTree watches dir and its subdirectories. Only an unreadable dir itself
// is an error.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if url, ok := w.url(path); ok && w.filter.IgnoresDir(url) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "dir", path, "error", err)
		}
		return nil
	})
}
