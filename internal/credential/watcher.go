package credential

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch marks the store stale whenever a credential file changes in either
// tier. It never rebuilds anything itself; rescans happen on the next
// discovery call or on an explicit rescan request.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create credential watcher: %w", err)
	}

	watched := 0
	for _, dir := range []string{s.repositoryDir, s.activeDir} {
		if err := watcher.Add(dir); err != nil {
			s.logger.Warn("cannot watch credential directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		watched++
	}
	if watched == 0 {
		watcher.Close()
		return fmt.Errorf("create credential watcher: no watchable directories")
	}

	go s.watchLoop(ctx, watcher)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	s.logger.Info("credential watcher started")
	defer s.logger.Info("credential watcher stopped")

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != fileExt {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.logger.Debug("credential directory changed",
				slog.String("file", filepath.Base(event.Name)),
				slog.String("op", event.Op.String()))
			s.MarkStale()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("credential watcher error", slog.String("error", err.Error()))
		}
	}
}
