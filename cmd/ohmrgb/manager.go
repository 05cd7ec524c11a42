package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device/config"
	"go.uber.org/zap"
)

// presetLoader abstracts preset discovery for the manager.
type presetLoader func() (config.Presets, error)

// selectPreset finds preset with given name, falls back to the first available one when it does not exist.
func selectPreset(presets config.Presets, name string) (config.PresetFile, error) {
	p, err := presets.FindPreset(name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, config.ErrPresetNotFound) {
		return config.PresetFile{}, err
	}

	names := presets.Names()
	if len(names) == 0 {
		return config.PresetFile{}, fmt.Errorf("no presets available: %w", err)
	}
	log.Info(fmt.Sprintf("preset \"%s\" not found, using \"%s\"", name, names[0]), zap.String("preset", name), logger.Warning)
	return presets.FindPreset(names[0])
}

// reloadPreset re-reads presets and rebinds the active one, lighting stays intact.
func reloadPreset(dev *device.Device, load presetLoader) error {
	presets, err := load()
	if err != nil {
		return fmt.Errorf("loading presets failed: %w", err)
	}

	name := dev.Preset().Name
	p, err := presets.FindPreset(name)
	if err != nil {
		return fmt.Errorf("preset \"%s\" no longer available: %w", name, err)
	}
	dev.ReloadPreset(p.Preset)
	return nil
}

// runManager keeps the active preset in sync with preset files until ctx is done.
func runManager(ctx context.Context, dev *device.Device, load presetLoader) {
	changes := config.DetectPresetChanges(ctx)

	log.Info("Run manager", logger.Debug)
root:
	for {
		select {
		case <-ctx.Done():
			break root
		case _, ok := <-changes:
			if !ok {
				changes = nil // watcher unavailable, keep the preset as is
				continue
			}
			log.Info("handling preset change", logger.Debug)
			err := reloadPreset(dev, load)
			if err != nil {
				log.Info(fmt.Sprintf("preset reload failed: %s", err), zap.String("preset", dev.Preset().Name), logger.Warning)
			}
		}
	}
	log.Info("Exit manager", logger.Debug)
}
