package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"x11clicker/internal/core/autoclicker"

	"github.com/fsnotify/fsnotify"
)

var reloadDebounce = 300 * time.Millisecond

// watchSettings applies edits of the settings file to the live settings
// until ctx is done. A changed hotkey is picked up by the hotkey worker on
// its next poll. onChange, if set, receives the new values after each
// effective change.
func watchSettings(ctx context.Context, path string, settings *autoclicker.Settings, logger *slog.Logger, onChange func(autoclicker.Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}

	// The directory is watched so that atomic replace-by-rename is seen.
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		watcher.Close()
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch settings dir: %w", err)
	}
	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer
		defer func() {
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(reloadDebounce, func() {
					reloadSettings(path, settings, logger, onChange)
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Settings watcher error", "err", err)
			}
		}
	}()

	return nil
}

func reloadSettings(path string, settings *autoclicker.Settings, logger *slog.Logger, onChange func(autoclicker.Config)) {
	stored, err := loadSettings(path)
	if err != nil {
		logger.Warn("Settings reload failed", "path", path, "err", err)
		return
	}
	if stored == nil {
		return
	}

	var before, after autoclicker.Config
	settings.Update(func(cfg *autoclicker.Config) {
		before = *cfg
		*cfg = stored.apply(*cfg, logger)
		after = *cfg
	})
	if before == after {
		return
	}

	logger.Info("Settings reloaded", "path", path, "cps", after.Rate, "duty", after.Duty, "button", after.Button, "hotkey", after.Shortcut)
	if onChange != nil {
		onChange(after)
	}
}
