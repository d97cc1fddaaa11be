package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change kinds reported by Watch.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// rootPollInterval is how often Watch checks for a notes root that does
// not exist yet.
var rootPollInterval = 2 * time.Second

// ChangeCallback is called for every note file change seen by Watch.
// rel is slash-separated and relative to the watched root.
type ChangeCallback func(kind string, rel string)

// Watch starts an fsnotify watcher on root and reports changes to note
// files, including edits made outside the filer, until ctx is cancelled.
// Index files and temporary files are ignored. New directories created at
// runtime are added to the watch list. A missing root is not created; the
// watch starts once the first store has made it.
func Watch(ctx context.Context, root, indexName string, logger *slog.Logger, cb ChangeCallback) error {
	if ok, err := waitForDir(ctx, root, logger); !ok {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

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

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					continue
				}
			}

			name := filepath.Base(absPath)
			if !strings.HasSuffix(name, ".md") || name == indexName || strings.HasPrefix(name, ".") {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			var kind string
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = ChangeCreated
			case ev.Op&fsnotify.Write != 0:
				kind = ChangeUpdated
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				kind = ChangeDeleted
			default:
				continue
			}
			logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", kind))
			if cb != nil {
				cb(kind, rel)
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

// waitForDir blocks until dir exists. It returns false when ctx ends first
// or dir exists but is not a directory.
func waitForDir(ctx context.Context, dir string, logger *slog.Logger) (bool, error) {
	ticker := time.NewTicker(rootPollInterval)
	defer ticker.Stop()
	logged := false
	for {
		info, err := os.Stat(dir)
		switch {
		case err == nil && info.IsDir():
			return true, nil
		case err == nil:
			return false, fmt.Errorf("catalog: watch %s: not a directory", dir)
		case !errors.Is(err, fs.ErrNotExist):
			return false, fmt.Errorf("catalog: watch %s: %w", dir, err)
		}
		if !logged {
			logger.Info("watcher: waiting for notes root", slog.String("root", dir))
			logged = true
		}
		select {
		case <-ctx.Done():
			return false, nil
		case <-ticker.C:
		}
	}
}
