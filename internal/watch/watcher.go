// Package watch observes the vault for Markdown changes and forwards
// them as lifecycle events. The watcher never mutates notes; it only
// tells interested parties (the SSE broker, a refreshing triage view)
// that the filesystem moved under them.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventCallback receives one filesystem-driven event. kind is
// "note.changed" for creates and writes, "note.removed" for removes
// and renames; path is vault-relative.
type EventCallback func(kind string, path string)

// Watch runs an fsnotify loop over vaultRoot until ctx is cancelled.
// With recursive set, existing subdirectories are watched and
// directories created at runtime are picked up as well.
func Watch(ctx context.Context, vaultRoot string, recursive bool, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if recursive {
		if err := addDirsRecursive(w, vaultRoot); err != nil {
			return err
		}
	} else if err := w.Add(vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot), slog.Bool("recursive", recursive))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if recursive && ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				logger.Debug("watcher: changed", slog.String("path", rel))
				if cb != nil {
					cb("note.changed", rel)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old path only; the new path, if it
				// lands in a watched dir, arrives as its own Create.
				logger.Debug("watcher: removed", slog.String("path", rel))
				if cb != nil {
					cb("note.removed", rel)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
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
