package main

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/logguard-ai/logguard/pkg/logger"
)

// watchConfig reloads the config file on change and hands the parsed
// result to onReload. Editors often replace the file rather than write
// it in place, so the parent directory is watched and events are
// debounced. Returns a stop function.
func watchConfig(path string, onReload func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	l := logger.Component("config-watch")
	done := make(chan struct{})

	go func() {
		var debounce *time.Timer
		reload := func() {
			cfg, err := LoadConfig(abs)
			if err != nil {
				l.WithError(err).Warn("ignoring invalid config file change")
				return
			}
			onReload(cfg)
		}

		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(200*time.Millisecond, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.WithError(err).Warn("config watch error")
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
