package main

import (
	"errors"
	"testing"

	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device/config"
	"github.com/stretchr/testify/assert"
)

func presetFile(name string, bindings ...config.Binding) config.PresetFile {
	return config.PresetFile{
		PresetFile: name + ".yaml",
		PresetType: "factory",
		Preset:     config.Preset{Name: name, Bindings: bindings},
	}
}

func TestSelectPreset(t *testing.T) {
	presets := config.Presets{
		Factory: config.PresetMap{"default": presetFile("default"), "meters": presetFile("meters")},
		User:    config.PresetMap{},
	}

	p, err := selectPreset(presets, "meters")
	assert.Equal(t, nil, err)
	assert.Equal(t, "meters", p.Preset.Name)

	p, err = selectPreset(presets, "missing")
	assert.Equal(t, nil, err)
	assert.Equal(t, "default", p.Preset.Name)

	_, err = selectPreset(config.Presets{}, "missing")
	assert.ErrorIs(t, err, config.ErrPresetNotFound)
}

func TestReloadPreset(t *testing.T) {
	frames := make(chan midi.Event, 4)
	dev := device.NewDevice(frames, true)

	note := midi.ControlID(3, midi.NOTE)
	dev.ApplyPreset(config.Preset{Name: "default", Initial: map[midi.Control]uint8{note: 5}})

	err := reloadPreset(dev, func() (config.Presets, error) {
		return config.Presets{
			Factory: config.PresetMap{"default": presetFile("default",
				config.Binding{Control: note, Action: config.Set, Target: note, Value: 1},
			)},
		}, nil
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(5), dev.Lighting(note))

	assert.True(t, dev.Dispatch(midi.NoteEvent(midi.NoteOn, 0, 3, midi.ButtonDown)))
	assert.Equal(t, uint8(1), dev.Lighting(note))

	err = reloadPreset(dev, func() (config.Presets, error) {
		return config.Presets{}, nil
	})
	assert.ErrorIs(t, err, config.ErrPresetNotFound)

	loadErr := errors.New("disk on fire")
	err = reloadPreset(dev, func() (config.Presets, error) {
		return config.Presets{}, loadErr
	})
	assert.ErrorIs(t, err, loadErr)
}
