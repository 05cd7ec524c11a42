package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/gethiox/ohmrgb/internal/pkg/logger"
)

// DetectPresetChanges emits on every preset file write, channel is closed when ctx is done.
func DetectPresetChanges(ctx context.Context) <-chan bool {
	return detectChanges(ctx, FactoryPresets, UserPresets)
}

func detectChanges(ctx context.Context, paths ...string) <-chan bool {
	var change = make(chan bool)

	go func() {
		defer close(change)
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Info(fmt.Sprintf("creating preset watcher failed: %v", err), logger.Warning)
			return
		}

		go func() {
			<-ctx.Done()
			err := watcher.Close()
			if err != nil {
				log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
			}
		}()

		for _, path := range paths {
			err = watcher.Add(path)
			if err != nil {
				log.Info(fmt.Sprintf("watching \"%s\" failed: %v", path, err), logger.Warning)
			}
		}

		for event := range watcher.Events {
			if event.Op&fsnotify.Write == 0 {
				continue
			}

			if _, err := FormatFromPath(event.Name); err != nil {
				continue
			}

			log.Info(fmt.Sprintf("preset change detected: %s", event.Name), logger.Info)
			select {
			case change <- true:
			case <-ctx.Done():
				return
			}
		}
	}()

	return change
}
