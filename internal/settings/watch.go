package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchToken calls fn with the token in path now and after every change,
// until ctx is cancelled. fn is not called for an empty or unchanged token.
//
// The directory is watched rather than the file so that atomic replacement
// (write to temp, rename over) is seen.
func WatchToken(ctx context.Context, path string, logger *slog.Logger, fn func(token string)) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create token watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve token file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var last string
	deliver := func() {
		token, err := ReadToken(abs)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("token file unreadable", "path", abs, "error", err)
			}
			return
		}
		if token == "" || token == last {
			return
		}
		last = token
		logger.Debug("token changed", "path", abs)
		fn(token)
	}

	deliver()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				deliver()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("token watcher error", "error", err)
		}
	}
}
