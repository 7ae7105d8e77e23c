package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the config whenever one of paths changes and passes the
// result to onChange. It blocks until ctx is done.
//
// Parent directories are watched rather than the files, since editors often
// replace a file on save and files may not exist yet.
func Watch(ctx context.Context, paths []string, onChange func(*Config, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()

	targets := make(map[string]bool, len(paths))
	watched := 0
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		targets[abs] = true
		if err := w.Add(filepath.Dir(abs)); err == nil {
			watched++
		}
	}
	if watched == 0 {
		return fmt.Errorf("no config directory could be watched")
	}

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(ev.Name)] {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			reload = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			onChange(nil, fmt.Errorf("watch config: %w", err))
		case <-reload:
			reload = nil
			onChange(LoadFiles(paths...))
		}
	}
}
