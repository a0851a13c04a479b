package backfill

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MikeSquared-Agency/readlogs/internal/capture"
)

const defaultSettle = 500 * time.Millisecond

// Watch renders logs under cfg.Dir as they are created or modified, until ctx
// is cancelled. A log is rendered once it has been quiet for cfg.Settle, so a
// test run still appending to its log is rendered after it stops writing.
// Changed logs are re-rendered even if the state already records them.
func (r *Runner) Watch(ctx context.Context) error {
	dir := expandHome(r.cfg.Dir)

	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	settle := r.cfg.Settle
	if settle <= 0 {
		settle = defaultSettle
	}
	tick := time.NewTicker(settle / 4)
	defer tick.Stop()

	pending := make(map[string]time.Time)
	r.logger.Info("watching for captured logs", "dir", dir, "settle", settle)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("watch stopped", "pending", len(pending))
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						r.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if capture.IsCapturedLog(filepath.Base(event.Name)) {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", "error", err)

		case now := <-tick.C:
			for path, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, path)
				r.record(state, r.renderFile(ctx, path))
			}
		}
	}
}

// addTree watches root and every directory below it.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
