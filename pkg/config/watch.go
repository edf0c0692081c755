package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch calls onChange with the reloaded config each time the file at path is
// saved, until ctx is done. A config that fails to load is logged and
// skipped, and the previous one stays in effect.
//
// The parent directory is watched rather than the file so that saves which
// rename a temp file over path keep being observed.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if onChange == nil {
		return errors.New("config change handler required")
	}

	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "failed to watch config file: %s", path)
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create config watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "failed to watch config dir: %s", filepath.Dir(path))
	}

	slog.Debug("watching config", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// truncate-then-write saves fire once on the empty file
			if info, err := os.Stat(path); err != nil || info.Size() == 0 {
				continue
			}

			c, err := Load(path)
			if err != nil {
				slog.Error("config reload failed, keeping previous config", "path", path, "error", err)
				continue
			}

			slog.Info("config reloaded", "path", path, "plots", len(c.Plots))
			onChange(c)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config watcher error", "error", err)
		}
	}
}
