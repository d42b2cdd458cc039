package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/freezer/internal/logfields"
)

// Watcher monitors source paths and calls onChange once per burst of
// changes, after the debounce window has been quiet.
type Watcher struct {
	paths       []string
	ignoreDirs  []string
	ignoreFiles []string
	debounce    time.Duration
	onChange    func()

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher watches paths (files or directory trees).
func NewWatcher(paths []string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		debounce: debounce,
		onChange: onChange,
		watcher:  fw,
		done:     make(chan struct{}),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to resolve watch path %s: %w", p, err)
		}
		w.paths = append(w.paths, abs)
	}
	return w, nil
}

// IgnoreDir drops changes at or below dir, such as the build output.
// Call before Start.
func (w *Watcher) IgnoreDir(dir string) {
	if abs, err := filepath.Abs(dir); err == nil {
		w.ignoreDirs = append(w.ignoreDirs, abs)
	}
}

// IgnoreFile drops changes to file and to temporary siblings whose names
// start with its name, as written by atomic replacement.
func (w *Watcher) IgnoreFile(file string) {
	if abs, err := filepath.Abs(file); err == nil {
		w.ignoreFiles = append(w.ignoreFiles, abs)
	}
}

// Start registers the watches and begins delivering changes.
func (w *Watcher) Start(ctx context.Context) error {
	for _, p := range w.paths {
		if err := w.add(p); err != nil {
			return err
		}
	}
	slog.Info("Starting source watcher", slog.Any("paths", w.paths))
	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher and cancels any pending change notification.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

// add watches p, or every directory below p when p is a directory.
// fsnotify watches are not recursive.
func (w *Watcher) add(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", p, err)
	}
	if !info.IsDir() {
		// Watch the parent directory; editors replace files on save.
		return w.watcher.Add(filepath.Dir(p))
	}
	return filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) || (path != p && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignoreDirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	for _, file := range w.ignoreFiles {
		if strings.HasPrefix(path, file) {
			return true
		}
	}
	return false
}

// editorNoise reports editor swap, backup and lock files.
func editorNoise(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) ||
		base == "Thumbs.db"
}

// relevant reports whether an event touches a watched path.
func (w *Watcher) relevant(name string) bool {
	if w.ignored(name) || editorNoise(name) {
		return false
	}
	for _, p := range w.paths {
		if name == p || strings.HasPrefix(name, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories need their own watch.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.add(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Source watcher error", logfields.Error(err))
		}
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.onChange()
	})
}
