// Package watch reports changes to a repository's git directory.
package watch

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/gitsync-go/internal/debounce"
)

const DefaultDelay = 350 * time.Millisecond

// Watcher calls a function once a burst of changes under a repository's
// .git directory settles.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
	done     chan struct{}
}

// New starts watching root. onChange runs on its own goroutine after delay
// passes without further events.
func New(root string, delay time.Duration, onChange func()) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for path := range Paths(root) {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := watcher.Add(path); err != nil {
			err := errors.Join(err, watcher.Close())
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
	}
	w := &Watcher{
		watcher:  watcher,
		debounce: debounce.New(delay, onChange),
		done:     make(chan struct{}),
	}
	go w.loop(watcher)
	return w, nil
}

// Close stops watching and drops a pending call.
func (w *Watcher) Close() error {
	w.mu.Lock()
	watcher := w.watcher
	w.watcher = nil
	w.mu.Unlock()
	if watcher == nil {
		return nil
	}
	w.debounce.Stop()
	err := watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) loop(watcher *fsnotify.Watcher) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if Ignored(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.debounce.Trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

// Paths yields the directories to watch for root: its .git directory and
// .git/refs/heads when present, root itself otherwise.
func Paths(root string) iter.Seq[string] {
	if root == "" {
		return slices.Values([]string(nil))
	}
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		paths := []string{gitDir}
		heads := filepath.Join(gitDir, "refs", "heads")
		if info, err := os.Stat(heads); err == nil && info.IsDir() {
			paths = append(paths, heads)
		}
		return slices.Values(paths)
	}
	return slices.Values([]string{root})
}

// Ignored reports whether a change to name should not trigger a reload. Lock
// files and the index churn on every git command, including the ones issued
// by a reload.
func Ignored(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".lock" || ext == ".ipc" {
		return true
	}
	return filepath.Base(name) == "index"
}
