package device

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/grid"
	"github.com/holoplot/go-evdev"
	"github.com/realbucksavage/openrgb-go"
	"go.uber.org/zap"
)

const (
	LayoutGrid = "grid" // first 64 LEDs follow the grid row by row
	LayoutKeys = "keys" // keyboard keys bound in the preset follow their controls
)

type OpenRGBConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Device     string // part of the controller name
	Layout     string
	Brightness float64
	UpdateRate time.Duration
}

func init() {
	for k, v := range KeyToLedName {
		LedNameToKey[v] = k
	}
}

var LedNameToKey = map[string]evdev.EvCode{} // filled up with init()

// KeyToLedName maps keyboard keys to OpenRGB LED names, letters, digits and F-keys are added with init().
var KeyToLedName = map[evdev.EvCode]string{
	evdev.KEY_ESC:        "Key: Escape",
	evdev.KEY_GRAVE:      "Key: `",
	evdev.KEY_TAB:        "Key: Tab",
	evdev.KEY_CAPSLOCK:   "Key: Caps Lock",
	evdev.KEY_LEFTSHIFT:  "Key: Left Shift",
	evdev.KEY_LEFTCTRL:   "Key: Left Control",
	evdev.KEY_LEFTMETA:   "Key: Left Windows",
	evdev.KEY_LEFTALT:    "Key: Left Alt",
	evdev.KEY_SPACE:      "Key: Space",
	evdev.KEY_RIGHTALT:   "Key: Right Alt",
	evdev.KEY_RIGHTMETA:  "Key: Right Windows",
	evdev.KEY_COMPOSE:    "Key: Menu",
	evdev.KEY_RIGHTCTRL:  "Key: Right Control",
	evdev.KEY_RIGHTSHIFT: "Key: Right Shift",
	evdev.KEY_ENTER:      "Key: Enter",
	evdev.KEY_BACKSPACE:  "Key: Backspace",
	evdev.KEY_COMMA:      "Key: ,",
	evdev.KEY_DOT:        "Key: .",
	evdev.KEY_SLASH:      "Key: /",
	evdev.KEY_SEMICOLON:  "Key: ;",
	evdev.KEY_APOSTROPHE: "Key: '",
	evdev.KEY_MINUS:      "Key: -",
	evdev.KEY_EQUAL:      "Key: =",
	evdev.KEY_LEFTBRACE:  "Key: [",
	evdev.KEY_RIGHTBRACE: "Key: ]",
	evdev.KEY_BACKSLASH:  "Key: \\ (ANSI)",
	evdev.KEY_UP:         "Key: Up Arrow",
	evdev.KEY_DOWN:       "Key: Down Arrow",
	evdev.KEY_LEFT:       "Key: Left Arrow",
	evdev.KEY_RIGHT:      "Key: Right Arrow",
}

func init() {
	var names []string
	for r := 'A'; r <= 'Z'; r++ {
		names = append(names, string(r))
	}
	for r := '0'; r <= '9'; r++ {
		names = append(names, string(r))
	}
	for i := 1; i <= 12; i++ {
		names = append(names, fmt.Sprintf("F%d", i))
	}

	for _, name := range names {
		code, ok := evdev.KEYFromString["KEY_"+name]
		if !ok {
			continue
		}
		KeyToLedName[code] = "Key: " + name
		LedNameToKey["Key: "+name] = code
	}
}

// FindController returns first controller whose name contains given name, case insensitive.
func FindController(c *openrgb.Client, name string) (openrgb.Device, int, error) {
	count, err := c.GetControllerCount()
	if err != nil {
		return openrgb.Device{}, 0, fmt.Errorf("failed to get controller count: %w", err)
	}

	if count == 0 {
		return openrgb.Device{}, 0, fmt.Errorf("no supported controllers available")
	}

	for i := 0; i < count; i++ {
		dev, err := c.GetDeviceController(i)
		if err != nil {
			return openrgb.Device{}, 0, fmt.Errorf("getting controller information failed (%d/%d): %w", i, count, err)
		}

		if strings.Contains(strings.ToLower(dev.Name), strings.ToLower(name)) {
			return dev, i, nil
		}
	}

	return openrgb.Device{}, 0, fmt.Errorf("controller \"%s\" not found", name)
}

// ledMapping tells which control drives which LED of the controller.
func ledMapping(layout string, ledNames []string, keys map[evdev.EvCode]midi.Control) map[int]midi.Control {
	var mapping = make(map[int]midi.Control)

	switch layout {
	case LayoutKeys:
		for i, name := range ledNames {
			code, ok := LedNameToKey[name]
			if !ok {
				continue
			}
			control, ok := keys[code]
			if !ok {
				continue
			}
			mapping[i] = control
		}
	default:
		for i := 0; i < len(ledNames) && i < grid.Buttons; i++ {
			p := grid.Position{Row: i / grid.Size, Column: i % grid.Size}
			mapping[i] = midi.ControlID(grid.ButtonAt(p), midi.NOTE)
		}
	}
	return mapping
}

func connectOpenRGB(ctx context.Context, host string, port int) (*openrgb.Client, error) {
	var c *openrgb.Client
	var err error

	timeout := time.Now().Add(time.Second * 5)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond * 250):
		}

		c, err = openrgb.Connect(host, port)
		if err == nil {
			return c, nil
		}

		if time.Now().After(timeout) {
			return nil, fmt.Errorf("giving up: %w", err)
		}
	}
}

// HandleOpenRGB mirrors lighting onto an OpenRGB controller until ctx is done.
func (d *Device) HandleOpenRGB(ctx context.Context, wg *sync.WaitGroup, cfg OpenRGBConfig) {
	defer wg.Done()

	fields := []zap.Field{zap.String("openrgb_device", cfg.Device)}

	log.Info(fmt.Sprintf("[OpenRGB] Connecting: %s:%d...", cfg.Host, cfg.Port), append(fields, logger.Debug)...)

	c, err := connectOpenRGB(ctx, cfg.Host, cfg.Port)
	if err != nil {
		log.Info(fmt.Sprintf("[OpenRGB] Cannot connect to server: %s", err), append(fields, logger.Warning)...)
		return
	}
	defer c.Close()

	dev, index, err := FindController(c, cfg.Device)
	if err != nil {
		log.Info(fmt.Sprintf("[OpenRGB] Cannot find controller: %s", err), append(fields, logger.Warning)...)
		return
	}

	log.Info(fmt.Sprintf("[OpenRGB] Controller found: %s, index: %d, leds: %d", dev.Name, index, len(dev.LEDs)), append(fields, logger.Info)...)

	var ledArray = make([]openrgb.Color, len(dev.Colors))

	var ledNames = make([]string, 0, len(dev.LEDs))
	for _, led := range dev.LEDs {
		ledNames = append(ledNames, led.Name)
	}

	var lastGeneration, lastVersion uint64
	var mapping map[int]midi.Control
	var palette Palette
	var first = true

	nextFailedLedUpdateReport := time.Now()
	updateFails := 0

	ticker := time.NewTicker(cfg.UpdateRate)
	defer ticker.Stop()

root:
	for {
		select {
		case <-ctx.Done():
			break root
		case <-ticker.C:
		}

		preset, generation := d.currentPreset()
		snapshot, version := d.lighting.Snapshot()

		if !first && generation == lastGeneration && version == lastVersion {
			continue
		}
		if first || generation != lastGeneration {
			mapping = ledMapping(cfg.Layout, ledNames, preset.Keys)
			palette = DefaultPalette().WithOverrides(preset.Palette)
		}

		for i := range ledArray {
			ledArray[i] = openrgb.Color{}
		}
		for i, control := range mapping {
			if i >= len(ledArray) {
				continue
			}
			ledArray[i] = ToOpenRGB(palette.Color(snapshot.Lighting(control), cfg.Brightness))
		}

		err = c.UpdateLEDs(index, ledArray)
		if err != nil {
			updateFails++
			now := time.Now()
			if now.After(nextFailedLedUpdateReport) {
				log.Info(fmt.Sprintf("[OpenRGB] Led update fails %d times, last err: %s", updateFails, err), append(fields, logger.Debug)...)
				updateFails = 0
				nextFailedLedUpdateReport = now.Add(time.Second * 2)
			}
			continue
		}

		first = false
		lastGeneration, lastVersion = generation, version
	}

	for i := range ledArray {
		ledArray[i] = openrgb.Color{}
	}
	_ = c.UpdateLEDs(index, ledArray)
	log.Info("[OpenRGB] LED mirror stopped", append(fields, logger.Debug)...)
}
