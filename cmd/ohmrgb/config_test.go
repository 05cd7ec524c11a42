package main

import (
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/d2r2/go-hd44780"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device"
	"github.com/stretchr/testify/assert"
)

func TestTemplateConfig(t *testing.T) {
	data, err := fs.ReadFile(templateConfig, configDir+"/ohmrgb.config")
	assert.Equal(t, nil, err)

	cfg, err := parseOhmRGBConfig(data)
	assert.Equal(t, nil, err)

	assert.Equal(t, "OhmRGB", cfg.OhmRGB.PortName)
	assert.Equal(t, false, cfg.OhmRGB.Virtual)
	assert.Equal(t, time.Second/30, cfg.OhmRGB.RedrawRate)
	assert.Equal(t, "default", cfg.OhmRGB.Preset)
	assert.Equal(t, 512, cfg.OhmRGB.LogBufferSize)

	assert.Equal(t, false, cfg.OpenRGB.Enabled)
	assert.Equal(t, 6742, cfg.OpenRGB.Port)
	assert.Equal(t, "", cfg.OpenRGB.ServerBinary)
	assert.Equal(t, device.LayoutGrid, cfg.OpenRGB.Layout)
	assert.Equal(t, 1.0, cfg.OpenRGB.Brightness)
	assert.Equal(t, time.Second/30, cfg.OpenRGB.UpdateRate)

	assert.Equal(t, hd44780.LCD_20x4, cfg.Screen.LcdType)
	assert.Equal(t, uint8(0x27), cfg.Screen.Address)
	assert.False(t, cfg.Screen.HaveExitMessage())

	assert.Equal(t, "/dev/input/event0", cfg.Keyboard.Device)
}

func TestTemplatePresetsEmbedded(t *testing.T) {
	for _, path := range []string{
		configDir + "/factory/default.yaml",
		configDir + "/factory/meters.toml",
	} {
		_, err := fs.Stat(templateConfig, path)
		assert.Equal(t, nil, err, path)
	}
}

func TestConfigErrors(t *testing.T) {
	base := `
[ohmrgb]
redraw_rate = 30
log_view_rate = 30
[openrgb]
%s
[screen]
type = 16x2
bus = 1
address = 39
update_rate = 1
`
	for _, tc := range []struct {
		name    string
		openrgb string
		fails   bool
	}{
		{name: "defaults", openrgb: "", fails: false},
		{name: "keys layout", openrgb: "layout = keys", fails: false},
		{name: "unknown layout", openrgb: "layout = spiral", fails: true},
		{name: "brightness", openrgb: "brightness = 1.5", fails: true},
		{name: "update rate", openrgb: "update_rate = 0", fails: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseOhmRGBConfig([]byte(strings.Replace(base, "%s", tc.openrgb, 1)))
			assert.Equal(t, tc.fails, err != nil, "%v", err)
		})
	}

	_, err := parseOhmRGBConfig([]byte("[ohmrgb]\nredraw_rate = fast\nlog_view_rate = 30\n"))
	assert.NotEqual(t, nil, err)
}
