package server

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
)

// DefaultDebounce collapses bursts of file events into one reload.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a project directory and pushes a new fingerprint to the
// hub after each quiet period. Edits to the deck document only reload when
// the fingerprint actually changes; any other file forces a reload.
type Watcher struct {
	fsw         *fsnotify.Watcher
	doc         string
	fingerprint func() string
	hub         *LiveReloadHub
	debounce    time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	forced bool
	last   string
	seq    int
}

// NewWatcher watches dir recursively. doc is the deck document path and
// fingerprint summarizes what a browser would currently see.
func NewWatcher(dir, doc string, hub *LiveReloadHub, fingerprint func() string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "create file watcher").Build()
	}
	if err := addDirsRecursive(fsw, dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w := &Watcher{
		fsw:         fsw,
		doc:         filepath.Clean(doc),
		fingerprint: fingerprint,
		hub:         hub,
		debounce:    DefaultDebounce,
	}
	w.last = fingerprint()
	hub.Broadcast(w.last)
	return w, nil
}

// Run handles events until ctx ends, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.fsw.Close() }()
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.fsw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger(filepath.Clean(ev.Name))
}

// trigger records a change to path and restarts the quiet period.
func (w *Watcher) trigger(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if path != w.doc {
		w.forced = true
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	fp := w.fingerprint()
	w.mu.Lock()
	forced := w.forced
	w.forced = false
	if !forced && fp == w.last {
		w.mu.Unlock()
		slog.Debug("Deck unchanged; skipping reload")
		return
	}
	w.last = fp
	if forced {
		w.seq++
		fp += "-" + strconv.Itoa(w.seq)
	}
	w.mu.Unlock()
	slog.Info("Change detected; reloading browsers")
	w.hub.Broadcast(fp)
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && shouldIgnoreEvent(path) {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent skips hidden files, editor swap files and OS litter.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
