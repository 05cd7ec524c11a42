package config

import (
	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/holoplot/go-evdev"
	"github.com/realbucksavage/openrgb-go"
)

const (
	Toggle    Action = "toggle"    // flips between 0 and value
	Cycle     Action = "cycle"     // next lighting value, wraps around after 7
	Set       Action = "set"       // sets value
	Exclusive Action = "exclusive" // lights target grid button and clears the rest of its row
	Meter     Action = "meter"     // cc value lights given grid column bottom-up
	Clear     Action = "clear"     // turns off the whole grid
)

var SupportedActions = map[Action]bool{
	Toggle:    true,
	Cycle:     true,
	Set:       true,
	Exclusive: true,
	Meter:     true,
	Clear:     true,
}

type Action string

type Binding struct {
	Control midi.Control
	Action  Action
	Target  midi.Control // lighting affected by the action, the Control itself by default
	Value   uint8
	Column  int // meter only
}

type Preset struct {
	Name       string
	MeterValue uint8
	Initial    map[midi.Control]uint8
	Bindings   []Binding
	Keys       map[evdev.EvCode]midi.Control // PC keyboard emulating controller buttons
	Palette    map[uint8]openrgb.Color       // OpenRGB color overrides per lighting value
}

type PresetFile struct {
	PresetFile string
	PresetType string // factory / user
	Preset     Preset
}
