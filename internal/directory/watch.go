package directory

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/xming13/GoGovSG/internal/config"
)

// WatchOptions tune Watch.
type WatchOptions struct {
	// Settle is how long the file must stay quiet before a reload.
	// Default: 200ms.
	Settle time.Duration

	Logger *slog.Logger

	// OnReload, if set, is called after every reload attempt with the number
	// of links loaded or the error.
	OnReload func(n int, err error)
}

// Watch reloads dst from the dump at path whenever the file changes, until
// ctx is done. The parent directory is watched so that editors replacing
// the file atomically are seen. A reload that fails leaves dst unchanged.
func Watch(ctx context.Context, path string, dst Replacer, opts WatchOptions) error {
	if strings.HasPrefix(path, "s3://") {
		return fmt.Errorf("watching %s: only local files can be watched", path)
	}
	if opts.Settle <= 0 {
		opts.Settle = 200 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "directory.watch", "path", path)

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching directory dump")

	settle := time.NewTimer(opts.Settle)
	settle.Stop()
	defer settle.Stop()

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
				settle.Reset(opts.Settle)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case <-settle.C:
			items, err := Load(ctx, abs, config.ImportConfig{})
			if err == nil {
				err = dst.Replace(ctx, items)
			}
			if err != nil {
				logger.Warn("directory reload failed", "error", err)
			} else {
				logger.Info("directory reloaded", "links", len(items))
			}
			if opts.OnReload != nil {
				opts.OnReload(len(items), err)
			}
		}
	}
}
