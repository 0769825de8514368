package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports settled changes to matching files below a set of local directories.
type Watcher struct {
	watcher  *fsnotify.Watcher
	accept   func(name string) bool
	debounce time.Duration
}

// NewWatcher watches dirs and all their subdirectories. accept filters file
// base names; a nil accept reports every file.
func NewWatcher(dirs []string, accept func(name string) bool, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	sw := &Watcher{watcher: w, accept: accept, debounce: debounce}
	for _, dir := range dirs {
		if err := sw.addTree(dir); err != nil {
			w.Close()
			return nil, err
		}
	}
	return sw, nil
}

func (w *Watcher) addTree(root string) error {
	root, err := Normalize(root)
	if err != nil {
		return err
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scan %s: %w", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Run blocks until ctx is done, calling onChange once per settled batch of
// changes. onChange runs on the watcher goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	defer w.watcher.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if err := w.watchIfDir(event.Name); err != nil {
					slog.Warn("failed to watch new directory", "dir", event.Name, "error", err)
				}
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("file changed", "file", event.Name, "op", event.Op.String())
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			onChange(paths)
		}
	}
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.accept == nil || w.accept(filepath.Base(event.Name))
}

func (w *Watcher) watchIfDir(name string) error {
	info, err := os.Stat(name)
	if err != nil || !info.IsDir() {
		return nil
	}
	return w.addTree(name)
}
