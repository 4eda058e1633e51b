package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce collapses the burst of events editors emit on save.
const debounce = 50 * time.Millisecond

// Event is a reload result from Watch.
type Event struct {
	File *File
	Err  error
}

// Watch reloads path whenever it changes and sends the result on the
// returned channel. The channel is closed when ctx is cancelled.
func Watch(ctx context.Context, path string) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: editors replace files via rename, which drops a
	// watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	ch := make(chan Event, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()
		watchLoop(ctx, path, watcher, ch)
	}()
	return ch, nil
}

func watchLoop(ctx context.Context, path string, watcher *fsnotify.Watcher, ch chan<- Event) {
	baseName := filepath.Base(path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != baseName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			f, err := Load(path)
			if err == nil {
				err = f.Validate()
			}
			if err != nil {
				slog.Warn("config reload failed", slog.String("path", path), slog.Any("error", err))
				f = nil
			} else {
				slog.Debug("config reloaded", slog.String("path", path))
			}
			select {
			case ch <- Event{File: f, Err: err}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", slog.String("path", path), slog.Any("error", err))
		}
	}
}
