package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/thiagokokada/gitstatic/internal/debounce"
)

const rebuildDebounceDelay = 350 * time.Millisecond

// Run blocks watching the repository's git directory and invokes rebuild
// after each burst of changes settles. Every rebuild recomputes the full
// output set; nothing incremental happens here.
func Run(repoPath string, rebuild func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()

	path := watchPath(repoPath)
	slog.Debug("adding path to FS watcher", slog.String("path", path))
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	// Allocated on the first qualifying event; a quiet repository never
	// schedules a timer.
	var debouncer *debounce.Debouncer
	defer func() {
		if debouncer != nil {
			debouncer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnorePath(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			debounce.Ensure(&debouncer, rebuildDebounceDelay, rebuild).Trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

// watchPath prefers the .git directory so working-tree churn does not trigger
// rebuilds; bare repositories are watched directly.
func watchPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		return gitDir
	}
	return root
}

func shouldIgnorePath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
