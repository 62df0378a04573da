package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/glorpus-work/wingetmirror/internal/logger"
)

// DefaultWatchDelay is how long Watch waits for changes to settle before reloading.
const DefaultWatchDelay = 500 * time.Millisecond

// Watch reloads the snapshot when files below the data dir change outside the store.
// It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := s.watchTree(w, s.dataDir, 3); err != nil {
		return err
	}

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = s.watchTree(w, ev.Name, s.remainingDepth(ev.Name))
				}
			}
			timer.Reset(delay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Repository watcher error", logger.Fields{"error": err})
		case <-timer.C:
			if err := s.Reload(); err != nil {
				logger.Error("Repository reload failed", logger.Fields{"error": err})
				continue
			}
			logger.Info("Repository reloaded after external change", logger.Fields{"packages": s.Snapshot().Len()})
		}
	}
}

// watchTree adds dir and its subdirectories up to depth levels.
func (s *Store) watchTree(w *fsnotify.Watcher, dir string, depth int) error {
	if depth < 0 {
		return nil
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if depth == 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			if err := s.watchTree(w, filepath.Join(dir, e.Name()), depth-1); err != nil {
				logger.Debug("Skipping watch", logger.Fields{"dir": e.Name(), "error": err})
			}
		}
	}
	return nil
}

// remainingDepth is how many levels below dir belong to the store layout
// (data dir, group, package, installer).
func (s *Store) remainingDepth(dir string) int {
	rel, err := filepath.Rel(s.dataDir, dir)
	if err != nil {
		return 0
	}
	return 3 - len(strings.Split(filepath.ToSlash(rel), "/"))
}
