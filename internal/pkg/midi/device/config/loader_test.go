package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, path, data string) {
	err := os.WriteFile(path, []byte(data), 0o666)
	assert.Equal(t, nil, err)
}

func TestLoadPresets(t *testing.T) {
	root := t.TempDir()
	factory, user := filepath.Join(root, "factory"), filepath.Join(root, "user")
	assert.Equal(t, nil, os.Mkdir(factory, 0o777))
	assert.Equal(t, nil, os.Mkdir(user, 0o777))

	writeFile(t, filepath.Join(factory, "a.yaml"), "name: shared\nmeter_value: 1\n")
	writeFile(t, filepath.Join(factory, "factory_only.toml"), "meter_value = 4\n")
	writeFile(t, filepath.Join(factory, "broken.yaml"), "bindings: [\n")
	writeFile(t, filepath.Join(factory, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(user, "b.yml"), "name: shared\nmeter_value: 5\n")

	presets, err := loadPresets(factory, user)
	assert.Equal(t, nil, err)

	assert.Equal(t, []string{"factory_only", "shared"}, presets.Names())

	p, err := presets.FindPreset("shared")
	assert.Equal(t, nil, err)
	assert.Equal(t, "user", p.PresetType)
	assert.Equal(t, "b.yml", p.PresetFile)
	assert.Equal(t, uint8(5), p.Preset.MeterValue)

	p, err = presets.FindPreset("factory_only")
	assert.Equal(t, nil, err)
	assert.Equal(t, "factory", p.PresetType)
	assert.Equal(t, uint8(4), p.Preset.MeterValue)

	_, err = presets.FindPreset("nope")
	assert.True(t, errors.Is(err, ErrPresetNotFound))
}

func TestLoadPresetsMissingUserDirectory(t *testing.T) {
	presets, err := loadPresets(factoryDir, filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []string{"default", "meters"}, presets.Names())
	assert.Equal(t, 0, len(presets.User))
}

func TestDetectChanges(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := detectChanges(ctx, dir)
	time.Sleep(time.Millisecond * 100) // watcher setup

	writeFile(t, filepath.Join(dir, "ignored.txt"), "x")
	writeFile(t, filepath.Join(dir, "preset.yaml"), "name: x\n")

	select {
	case <-changes:
	case <-time.After(time.Second * 2):
		t.Fatal("preset change not detected")
	}

	cancel()
	for range changes {
	}
}
