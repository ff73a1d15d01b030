package match

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"snipd/internal/logging"
)

const reloadDebounce = 150 * time.Millisecond

// Watch reloads the match directory whenever a match file changes and
// hands each successfully loaded set to onChange. A set that fails to load
// is logged and skipped; the previous one stays in effect. Watch blocks
// until ctx is done.
func Watch(ctx context.Context, dir string, log *logging.Logger, onChange func(*Set)) error {
	if log == nil {
		log = logging.Component("match")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create match dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch match dir: %w", err)
	}

	reload := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsMatchFile(filepath.Base(event.Name)) || event.Op == fsnotify.Chmod {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			set, err := LoadDir(dir)
			if err != nil {
				log.Warn("match reload failed, keeping previous matches", "dir", dir, "error", err)
				continue
			}
			log.Info("matches reloaded", "dir", dir, "files", len(set.Files), "triggers", len(set.Triggers()))
			onChange(set)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("match watcher error", "error", err)
		}
	}
}
