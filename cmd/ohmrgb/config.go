package main

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/gethiox/ohmrgb/internal/pkg/display"
	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device"
	"github.com/go-ini/ini"
)

type OhmRGB struct {
	PortName      string
	Virtual       bool
	RedrawRate    time.Duration
	LogViewRate   time.Duration
	LogBufferSize int
	Preset        string
}

type OpenRGB struct {
	device.OpenRGBConfig
	ServerBinary string // OpenRGB executable started in server mode, empty when server runs on its own
}

type Keyboard struct {
	Enabled bool
	Device  string // event path or part of the keyboard name
	Grab    bool
}

type OhmRGBConfig struct {
	OhmRGB   OhmRGB
	OpenRGB  OpenRGB
	Screen   display.ScreenConfig
	Keyboard Keyboard
}

func LoadOhmRGBConfig(path string) (OhmRGBConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OhmRGBConfig{}, err
	}
	return parseOhmRGBConfig(data)
}

func perSecond(key *ini.Key) (time.Duration, error) {
	i, err := key.Int()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key.Name(), err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("%s: rate has to be positive, got %d", key.Name(), i)
	}
	return time.Second / time.Duration(i), nil
}

func parseOhmRGBConfig(data []byte) (OhmRGBConfig, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return OhmRGBConfig{}, err
	}

	var c OhmRGBConfig

	// [ohmrgb]
	ohm := cfg.Section("ohmrgb")
	c.OhmRGB.PortName = ohm.Key("port_name").MustString("OhmRGB")
	c.OhmRGB.Virtual = ohm.Key("virtual").MustBool(false)
	c.OhmRGB.Preset = ohm.Key("preset").MustString("default")
	c.OhmRGB.LogBufferSize = ohm.Key("log_buffer_size").MustInt(512)

	c.OhmRGB.RedrawRate, err = perSecond(ohm.Key("redraw_rate"))
	if err != nil {
		return c, err
	}
	c.OhmRGB.LogViewRate, err = perSecond(ohm.Key("log_view_rate"))
	if err != nil {
		return c, err
	}

	// [openrgb]
	orgb := cfg.Section("openrgb")
	c.OpenRGB.Enabled = orgb.Key("enabled").MustBool(false)
	c.OpenRGB.Host = orgb.Key("host").MustString("localhost")
	c.OpenRGB.Port = orgb.Key("port").MustInt(6742)
	c.OpenRGB.Device = orgb.Key("device").String()
	c.OpenRGB.ServerBinary = orgb.Key("server_binary").String()

	switch layout := orgb.Key("layout").MustString(device.LayoutGrid); layout {
	case device.LayoutGrid, device.LayoutKeys:
		c.OpenRGB.Layout = layout
	default:
		return c, fmt.Errorf("unsupported openrgb layout: \"%s\"", layout)
	}

	c.OpenRGB.Brightness = orgb.Key("brightness").MustFloat64(1.0)
	if c.OpenRGB.Brightness < 0 || c.OpenRGB.Brightness > 1 {
		return c, fmt.Errorf("openrgb brightness out of range: %f", c.OpenRGB.Brightness)
	}
	c.OpenRGB.UpdateRate = c.OhmRGB.RedrawRate
	if orgb.HasKey("update_rate") {
		c.OpenRGB.UpdateRate, err = perSecond(orgb.Key("update_rate"))
		if err != nil {
			return c, err
		}
	}

	// [screen]
	screen := cfg.Section("screen")
	c.Screen.Enabled = screen.Key("enabled").MustBool(false)

	c.Screen.LcdType, err = display.ParseLcdType(screen.Key("type").MustString("20x4"))
	if err != nil {
		return c, err
	}

	c.Screen.Bus, err = screen.Key("bus").Int()
	if err != nil {
		return c, fmt.Errorf("bus: %w", err)
	}

	address, err := screen.Key("address").Int()
	if err != nil {
		return c, fmt.Errorf("address: %w", err)
	}
	c.Screen.Address = uint8(address)

	c.Screen.UpdateRate, err = screen.Key("update_rate").Int()
	if err != nil {
		return c, fmt.Errorf("update_rate: %w", err)
	}

	for i := range c.Screen.ExitMessage {
		c.Screen.ExitMessage[i] = screen.Key(fmt.Sprintf("exit_message%d", i+1)).String()
	}

	// [keyboard]
	kbd := cfg.Section("keyboard")
	c.Keyboard.Enabled = kbd.Key("enabled").MustBool(false)
	c.Keyboard.Device = kbd.Key("device").String()
	c.Keyboard.Grab = kbd.Key("grab").MustBool(false)

	return c, nil
}

//go:embed ohmrgb-config/ohmrgb.config
//go:embed ohmrgb-config/*/*
var templateConfig embed.FS

const configDir = "ohmrgb-config"

func writeTemplate(path string) error {
	data, err := fs.ReadFile(templateConfig, path)
	if err != nil {
		return fmt.Errorf("cannot read \"%s\" template file: %w", path, err)
	}

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666)
	if err != nil {
		return fmt.Errorf("cannot open \"%s\" file: %w", path, err)
	}
	defer dst.Close()

	_, err = dst.Write(data)
	if err != nil {
		return fmt.Errorf("cannot write data into \"%s\" file: %w", path, err)
	}
	return nil
}

// createConfigDirectoryIfNeeded creates config directory if necessary.
// It also updates factory presets, ohmrgb.config and user presets stay intact.
func createConfigDirectoryIfNeeded() error {
	_, err := os.Stat(configDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot open config directory: %w", err)
		}
		log.Info("config not exist, generating tree...", logger.Info)

		err = fs.WalkDir(templateConfig, configDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				err := os.Mkdir(path, 0o777)
				if err != nil {
					return fmt.Errorf("cannot create \"%s\" directory: %w", path, err)
				}
				return nil
			}

			err = writeTemplate(path)
			if err != nil {
				return err
			}
			log.Info(fmt.Sprintf("Created \"%s\" file", path), logger.Debug)
			return nil
		})
		if err != nil {
			return fmt.Errorf("config generation failed: %w", err)
		}

		log.Info("config generation done", logger.Info)
		return nil
	}

	// update factory presets
	err = fs.WalkDir(templateConfig, configDir+"/factory", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			_, err := os.Stat(path)
			if err == nil {
				return nil
			}
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("unexpected error when reading \"%s\" directory: %w", path, err)
			}
			err = os.Mkdir(path, 0o777)
			if err != nil {
				return fmt.Errorf("cannot create \"%s\" directory: %w", path, err)
			}
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("cannot open \"%s\" file: %w", path, err)
			}
			log.Info(fmt.Sprintf("Creating new factory preset: \"%s\"", path), logger.Debug)
			return writeTemplate(path)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return fmt.Errorf("cannot read \"%s\" file: %w", path, err)
		}

		newData, err := fs.ReadFile(templateConfig, path)
		if err != nil {
			return fmt.Errorf("cannot open \"%s\" file template: %w", path, err)
		}

		if bytes.Equal(data, newData) {
			log.Info(fmt.Sprintf("File \"%s\" not changed", path), logger.Debug)
			return nil
		}
		log.Info(fmt.Sprintf("File \"%s\" changed, replacing data...", path), logger.Debug)
		return writeTemplate(path)
	})

	if err != nil {
		return fmt.Errorf("update factory presets failed: %w", err)
	}
	return nil
}
