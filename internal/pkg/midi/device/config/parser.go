package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	path2 "path"
	"strconv"
	"strings"

	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/grid"
	"github.com/holoplot/go-evdev"
	"github.com/pelletier/go-toml/v2"
	"github.com/realbucksavage/openrgb-go"
	"gopkg.in/yaml.v3"
)

const (
	YAML Format = "yaml"
	TOML Format = "toml"

	defaultMeterValue = 2
)

var (
	ErrUnsupportedFormat = errors.New("unsupported preset format")
	ErrUnknownControl    = errors.New("unknown control")
)

type Format string

func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(path2.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

type rawBinding struct {
	Control string `yaml:"control" toml:"control"`
	Action  string `yaml:"action" toml:"action"`
	Target  string `yaml:"target,omitempty" toml:"target,omitempty"`
	Value   *int   `yaml:"value,omitempty" toml:"value,omitempty"`
	Column  *int   `yaml:"column,omitempty" toml:"column,omitempty"`
}

type rawPreset struct {
	Name       string            `yaml:"name" toml:"name"`
	MeterValue *int              `yaml:"meter_value,omitempty" toml:"meter_value,omitempty"`
	Initial    map[string]int    `yaml:"initial" toml:"initial"`
	Bindings   []rawBinding      `yaml:"bindings" toml:"bindings"`
	Keys       map[string]string `yaml:"keys" toml:"keys"`
	OpenRGB    struct {
		Palette map[string]int `yaml:"palette" toml:"palette"`
	} `yaml:"open_rgb" toml:"open_rgb"`
}

// ParseControl extends midi.ParseControl with "grid:ROW,COLUMN" notation addressing grid buttons.
func ParseControl(s string) (midi.Control, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))

	if strings.HasPrefix(trimmed, "grid:") {
		rowCol := strings.Split(strings.TrimPrefix(trimmed, "grid:"), ",")
		if len(rowCol) != 2 {
			return 0, fmt.Errorf("%w \"%s\": expected grid:ROW,COLUMN", ErrUnknownControl, s)
		}
		row, err := strconv.Atoi(strings.TrimSpace(rowCol[0]))
		if err != nil {
			return 0, fmt.Errorf("%w \"%s\": failed to parse row: %v", ErrUnknownControl, s, err)
		}
		col, err := strconv.Atoi(strings.TrimSpace(rowCol[1]))
		if err != nil {
			return 0, fmt.Errorf("%w \"%s\": failed to parse column: %v", ErrUnknownControl, s, err)
		}
		p := grid.Position{Row: row, Column: col}
		if !p.Valid() {
			return 0, fmt.Errorf("%w \"%s\": position outside of the grid", ErrUnknownControl, s)
		}
		return midi.ControlID(grid.ButtonAt(p), midi.NOTE), nil
	}

	c, err := midi.ParseControl(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w \"%s\": %v", ErrUnknownControl, s, err)
	}
	return c, nil
}

// IsGridControl reports whether control addresses one of the 64 grid buttons.
func IsGridControl(c midi.Control) bool {
	return c.EventType() == midi.NOTE && grid.IsGridButton(c.Component())
}

func lightingValue(v int) (uint8, error) {
	if v < 0 || v > 7 {
		return 0, fmt.Errorf("lighting value outside of 0-7 range: %d", v)
	}
	return uint8(v), nil
}

func KeyToEvCode(key string) (evdev.EvCode, error) {
	if strings.HasPrefix(key, "x") {
		keyTrimmed := strings.TrimPrefix(key, "x")
		evcode, err := strconv.ParseUint(keyTrimmed, 16, 16)
		if err != nil {
			return evdev.EvCode(0), fmt.Errorf("convertion hex value \"%s\" failed: %w", keyTrimmed, err)
		}
		return evdev.EvCode(evcode), nil
	}

	evcode, ok := evdev.KEYFromString[key]
	if !ok {
		return evdev.EvCode(0), fmt.Errorf("EvCode name \"%s\" not found / not supported", key)
	}
	return evcode, nil
}

func intToColor(v int) openrgb.Color {
	return openrgb.Color{
		Red:   byte(v >> 16),
		Green: byte(v >> 8),
		Blue:  byte(v),
	}
}

func decode(data []byte, format Format) (rawPreset, error) {
	raw := rawPreset{}

	switch format {
	case YAML:
		d := yaml.NewDecoder(bytes.NewReader(data))
		d.KnownFields(true)
		err := d.Decode(&raw)
		if err != nil {
			return raw, fmt.Errorf("parsing yaml failed: %w", err)
		}
	case TOML:
		d := toml.NewDecoder(bytes.NewReader(data))
		d.DisallowUnknownFields()
		err := d.Decode(&raw)
		if err != nil {
			return raw, fmt.Errorf("parsing toml failed: %w", err)
		}
	default:
		return raw, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return raw, nil
}

func parseBinding(i int, rb rawBinding) (Binding, error) {
	control, err := ParseControl(rb.Control)
	if err != nil {
		return Binding{}, fmt.Errorf("[bindings] #%d: %w", i, err)
	}

	action := Action(strings.ToLower(strings.TrimSpace(rb.Action)))
	if !SupportedActions[action] {
		return Binding{}, fmt.Errorf("[bindings] %s: unsupported action: %s", control, rb.Action)
	}

	b := Binding{
		Control: control,
		Action:  action,
		Target:  control,
		Value:   7,
	}

	if rb.Target != "" {
		b.Target, err = ParseControl(rb.Target)
		if err != nil {
			return Binding{}, fmt.Errorf("[bindings] %s: target: %w", control, err)
		}
	}

	if rb.Value != nil {
		b.Value, err = lightingValue(*rb.Value)
		if err != nil {
			return Binding{}, fmt.Errorf("[bindings] %s: %w", control, err)
		}
	}

	switch action {
	case Exclusive:
		if !IsGridControl(b.Target) {
			return Binding{}, fmt.Errorf("[bindings] %s: exclusive action requires grid button target, got %s", control, b.Target)
		}
	case Meter:
		if rb.Column == nil {
			return Binding{}, fmt.Errorf("[bindings] %s: meter column not set", control)
		}
		if *rb.Column < 0 || *rb.Column >= grid.Size {
			return Binding{}, fmt.Errorf("[bindings] %s: meter column outside of 0-7 range: %d", control, *rb.Column)
		}
		b.Column = *rb.Column
	}

	return b, nil
}

func ParseData(data []byte, format Format) (Preset, error) {
	raw, err := decode(data, format)
	if err != nil {
		return Preset{}, err
	}

	preset := Preset{
		Name:       strings.TrimSpace(raw.Name),
		MeterValue: defaultMeterValue,
		Initial:    make(map[midi.Control]uint8, len(raw.Initial)),
		Bindings:   make([]Binding, 0, len(raw.Bindings)),
		Keys:       make(map[evdev.EvCode]midi.Control, len(raw.Keys)),
		Palette:    make(map[uint8]openrgb.Color, len(raw.OpenRGB.Palette)),
	}

	if raw.MeterValue != nil {
		preset.MeterValue, err = lightingValue(*raw.MeterValue)
		if err != nil {
			return Preset{}, fmt.Errorf("[meter_value] %w", err)
		}
	}

	for controlRaw, v := range raw.Initial {
		control, err := ParseControl(controlRaw)
		if err != nil {
			return Preset{}, fmt.Errorf("[initial] %w", err)
		}
		preset.Initial[control], err = lightingValue(v)
		if err != nil {
			return Preset{}, fmt.Errorf("[initial] %s: %w", control, err)
		}
	}

	var bound = make(map[midi.Control]bool, len(raw.Bindings))
	for i, rb := range raw.Bindings {
		b, err := parseBinding(i, rb)
		if err != nil {
			return Preset{}, err
		}
		if bound[b.Control] {
			return Preset{}, fmt.Errorf("[bindings] %s: control bound more than once", b.Control)
		}
		bound[b.Control] = true
		preset.Bindings = append(preset.Bindings, b)
	}

	for keyRaw, controlRaw := range raw.Keys {
		evcode, err := KeyToEvCode(keyRaw)
		if err != nil {
			return Preset{}, fmt.Errorf("[keys] %w", err)
		}
		control, err := ParseControl(controlRaw)
		if err != nil {
			return Preset{}, fmt.Errorf("[keys] %s: %w", keyRaw, err)
		}
		preset.Keys[evcode] = control
	}

	for valueRaw, color := range raw.OpenRGB.Palette {
		v, err := strconv.Atoi(valueRaw)
		if err != nil {
			return Preset{}, fmt.Errorf("[open_rgb.palette] failed to parse lighting value \"%s\": %w", valueRaw, err)
		}
		value, err := lightingValue(v)
		if err != nil {
			return Preset{}, fmt.Errorf("[open_rgb.palette] %w", err)
		}
		if color < 0 || color > 0xFFFFFF {
			return Preset{}, fmt.Errorf("[open_rgb.palette] %d: color outside of 0x000000-0xFFFFFF range", value)
		}
		preset.Palette[value] = intToColor(color)
	}

	return preset, nil
}

func readPreset(path, presetType string) (PresetFile, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return PresetFile{}, err
	}

	fd, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return PresetFile{}, fmt.Errorf("opening preset file failed: %w", err)
	}
	defer fd.Close()

	data, err := io.ReadAll(fd)
	if err != nil {
		return PresetFile{}, fmt.Errorf("reading file data failed: %w", err)
	}

	preset, err := ParseData(data, format)
	if err != nil {
		return PresetFile{}, err
	}

	base := path2.Base(path)
	if preset.Name == "" {
		preset.Name = strings.TrimSuffix(base, path2.Ext(base))
	}

	return PresetFile{
		PresetFile: base,
		PresetType: presetType,
		Preset:     preset,
	}, nil
}
