// Package watcher watches corpus directories with fsnotify and reports changed
// and removed corpus files after a debounce period.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler receives file events. OnChange and OnRemove are called once per path
// after events for that path have been quiet for the debounce period. OnSettled,
// when set, is called once after a burst of OnChange/OnRemove calls ends, which
// lets callers rebuild derived state once instead of once per file.
type Handler struct {
	OnChange  func(path string)
	OnRemove  func(path string)
	OnSettled func()
}

// Watcher watches a fixed set of root directories.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	debounce   time.Duration
	handler    Handler
	logger     *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	pending  map[string]*time.Timer
	settle   *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output (file events, directories added).
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the 400ms per-path debounce period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithRecursive makes the watcher descend into subdirectories, including ones
// created after Start.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// New returns a watcher for roots. extensions filters the files reported (empty
// means all files); entries may include the leading dot.
func New(roots, extensions []string, h Handler, opts ...Option) *Watcher {
	w := &Watcher{
		extensions: extensions,
		debounce:   defaultDebounce,
		handler:    h,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			w.roots = append(w.roots, abs)
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Missing roots are created. It returns immediately; events
// are processed until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := os.MkdirAll(root, 0755); err != nil {
			_ = fsw.Close()
			return err
		}
		if err := w.addTree(fsw, root); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.started = true
	w.logger.Debug("watcher started",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	if !w.recursive {
		return fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.newDirectory(path)
			return
		}
		if w.Matches(path) {
			w.schedule(path, w.handler.OnChange)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		if w.Matches(path) {
			w.schedule(path, w.handler.OnRemove)
		}
	}
}

// newDirectory starts watching a directory created under a recursive root and
// reports the files already inside it.
func (w *Watcher) newDirectory(dir string) {
	if !w.recursive || strings.HasPrefix(filepath.Base(dir), ".") {
		return
	}
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return
	}
	if err := w.addTree(fsw, dir); err != nil {
		w.logger.Debug("watcher failed to add directory", zap.String("path", dir), zap.Error(err))
		return
	}
	w.logger.Debug("watcher added directory", zap.String("path", dir))
	for _, path := range w.files(dir) {
		w.schedule(path, w.handler.OnChange)
	}
}

// schedule runs fn(path) after the debounce period, replacing any pending call
// for the same path, and re-arms the settle timer.
func (w *Watcher) schedule(path string, fn func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if fn != nil {
			fn(path)
		}
		w.armSettle()
	})
}

func (w *Watcher) armSettle() {
	if w.handler.OnSettled == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.settle != nil {
		w.settle.Stop()
	}
	w.settle = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		busy := len(w.pending) > 0
		w.settle = nil
		w.mu.Unlock()
		if !busy {
			w.handler.OnSettled()
		}
	})
}

// Matches reports whether path has one of the watched extensions.
func (w *Watcher) Matches(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range w.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// files lists the matching regular files under dir, honouring the recursive flag.
func (w *Watcher) files(dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != dir && (!w.recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.Matches(path) {
			out = append(out, path)
		}
		return nil
	})
	return out
}

// Roots returns the absolute root directories.
func (w *Watcher) Roots() []string {
	return append([]string(nil), w.roots...)
}

// ExistingFiles returns every matching file currently under the roots, so callers
// can import them once at startup.
func (w *Watcher) ExistingFiles() []string {
	var out []string
	for _, root := range w.roots {
		out = append(out, w.files(root)...)
	}
	return out
}

// Stop stops the watcher, drops pending events, and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	if w.settle != nil {
		w.settle.Stop()
		w.settle = nil
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
