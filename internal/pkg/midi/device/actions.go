package device

import (
	"fmt"

	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device/config"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/grid"
	"go.uber.org/zap"
)

// ApplyPreset replaces all handlers with preset bindings and sets preset initial lighting.
func (d *Device) ApplyPreset(p config.Preset) {
	d.bindPreset(p)
	for id, value := range p.Initial {
		d.SetLighting(id, value)
	}
	log.Info(fmt.Sprintf("preset \"%s\" applied", p.Name), zap.String("preset", p.Name), logger.Info)
}

// ReloadPreset replaces all handlers with preset bindings, current lighting is kept.
func (d *Device) ReloadPreset(p config.Preset) {
	d.bindPreset(p)
	log.Info(fmt.Sprintf("preset \"%s\" reloaded", p.Name), zap.String("preset", p.Name), logger.Info)
}

func (d *Device) bindPreset(p config.Preset) {
	d.resetCallbacks()
	for _, b := range p.Bindings {
		d.RegisterCallback(b.Control, d.actionHandler(b, p.MeterValue))
	}

	d.stateMutex.Lock()
	d.preset = p
	d.presetGeneration++
	d.state.Preset = p.Name
	d.stateMutex.Unlock()
}

// Preset returns currently applied preset.
func (d *Device) Preset() config.Preset {
	d.stateMutex.Lock()
	defer d.stateMutex.Unlock()
	return d.preset
}

func (d *Device) currentPreset() (config.Preset, uint64) {
	d.stateMutex.Lock()
	defer d.stateMutex.Unlock()
	return d.preset, d.presetGeneration
}

func (d *Device) actionHandler(b config.Binding, meterValue uint8) Handler {
	switch b.Action {
	case config.Toggle:
		return func(midi.Event) {
			if d.Lighting(b.Target) == 0 {
				d.SetLighting(b.Target, b.Value)
			} else {
				d.SetLighting(b.Target, 0)
			}
		}
	case config.Cycle:
		return func(midi.Event) {
			d.SetLighting(b.Target, (d.Lighting(b.Target)+1)&MaxLighting)
		}
	case config.Set:
		return func(midi.Event) {
			d.SetLighting(b.Target, b.Value)
		}
	case config.Exclusive:
		return func(midi.Event) {
			d.SetExclusive(b.Target, b.Value)
		}
	case config.Meter:
		return func(ev midi.Event) {
			d.SetMeter(b.Column, ev.Value(), meterValue)
		}
	case config.Clear:
		return func(midi.Event) {
			d.Clear()
		}
	default:
		return func(midi.Event) {
			log.Info(fmt.Sprintf("unsupported action: %s", b.Action), zap.String("control", b.Control.String()), logger.Warning)
		}
	}
}

// SetExclusive lights given grid button and turns off remaining buttons of its row.
func (d *Device) SetExclusive(target midi.Control, value uint8) {
	row := grid.PositionOf(target.Component()).Row
	for col := 0; col < grid.Size; col++ {
		id := midi.ControlID(grid.ButtonAt(grid.Position{Row: row, Column: col}), midi.NOTE)
		if id == target {
			d.SetLighting(id, value)
		} else {
			d.SetLighting(id, 0)
		}
	}
}

// MeterLevel converts 0-127 control value into amount of lit buttons (0-8).
func MeterLevel(ccValue uint8) int {
	if ccValue > 127 {
		ccValue = 127
	}
	return int(ccValue) * grid.Size / 127
}

// SetMeter lights given grid column bottom-up proportionally to the control value.
func (d *Device) SetMeter(column int, ccValue, value uint8) {
	level := MeterLevel(ccValue)
	for row := 0; row < grid.Size; row++ {
		id := midi.ControlID(grid.ButtonAt(grid.Position{Row: row, Column: column}), midi.NOTE)
		if row >= grid.Size-level {
			d.SetLighting(id, value)
		} else {
			d.SetLighting(id, 0)
		}
	}
}
