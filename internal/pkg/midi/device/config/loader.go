package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	FactoryPresets = "ohmrgb-config/factory"
	UserPresets    = "ohmrgb-config/user"
)

var ErrPresetNotFound = errors.New("preset not found")

type PresetMap map[string]PresetFile

type Presets struct {
	Factory PresetMap
	User    PresetMap
}

// FindPreset returns user preset if exist, factory one otherwise.
func (p *Presets) FindPreset(name string) (PresetFile, error) {
	if preset, ok := p.User[name]; ok {
		return preset, nil
	}
	if preset, ok := p.Factory[name]; ok {
		return preset, nil
	}
	return PresetFile{}, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
}

func (p *Presets) Names() []string {
	var unique = make(map[string]bool, len(p.Factory)+len(p.User))
	for name := range p.Factory {
		unique[name] = true
	}
	for name := range p.User {
		unique[name] = true
	}

	names := make([]string, 0, len(unique))
	for name := range unique {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LoadPresets() (Presets, error) {
	return loadPresets(FactoryPresets, UserPresets)
}

func loadPresets(factoryRoot, userRoot string) (Presets, error) {
	presets := Presets{
		Factory: make(PresetMap),
		User:    make(PresetMap),
	}

	for _, dir := range []struct {
		root       string
		presetType string
		presetMap  PresetMap
	}{
		{factoryRoot, "factory", presets.Factory},
		{userRoot, "user", presets.User},
	} {
		err := loadDirectory(dir.root, dir.presetType, dir.presetMap)
		if err != nil {
			return presets, fmt.Errorf("loading \"%s\" directory failed: %w", dir.root, err)
		}
	}
	return presets, nil
}

func loadDirectory(root, presetType string, presetMap PresetMap) error {
	err := filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}

		if _, err := FormatFromPath(path); err != nil {
			return nil
		}

		presetFile, err := readPreset(path, presetType)
		if err != nil {
			log.Info(fmt.Sprintf("preset %s (%s) load failed: %s", info.Name(), presetType, err), logger.Warning)
			return nil
		}

		if previous, ok := presetMap[presetFile.Preset.Name]; ok {
			log.Info(fmt.Sprintf("preset \"%s\" defined twice, %s overrides %s",
				presetFile.Preset.Name, presetFile.PresetFile, previous.PresetFile),
				zap.String("preset", presetFile.Preset.Name), logger.Warning,
			)
		}
		presetMap[presetFile.Preset.Name] = presetFile
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk failed: %w", err)
	}
	return nil
}
