package midi

import (
	"fmt"
)

const (
	// message types
	NoteOff       uint8 = 0b1000 << 4
	NoteOn        uint8 = 0b1001 << 4
	ControlChange uint8 = 0b1011 << 4
	SysExStart    uint8 = 0xF0
	SysExEnd      uint8 = 0xF7

	// the controller addresses everything with these two
	CC   = ControlChange
	NOTE = NoteOn

	// OhmRGB buttons send NoteOn with full velocity on press
	ButtonDown uint8 = 127
)

type Event []byte

// Type returns message type with channel bits stripped.
func (e Event) Type() uint8 {
	if len(e) == 0 {
		return 0
	}
	return e[0] & 0b11110000
}

// Channel returns 0-based channel number.
func (e Event) Channel() uint8 {
	if len(e) == 0 {
		return 0
	}
	return e[0] & 0b1111
}

func (e Event) Component() uint8 {
	if len(e) < 2 {
		return 0
	}
	return e[1]
}

func (e Event) Value() uint8 {
	if len(e) < 3 {
		return 0
	}
	return e[2]
}

func (e Event) String() string {
	if len(e) == 0 {
		return "Warning: empty Midi event, it should be not emitted"
	}
	if e[0] == SysExStart {
		return fmt.Sprintf("SysEx: %d bytes", len(e))
	}
	channel := e.Channel() + 1
	switch e.Type() {
	case NoteOff:
		return fmt.Sprintf("Note Off: %3d (channel: %2d, velocity: %3d)", e.Component(), channel, e.Value())
	case NoteOn:
		return fmt.Sprintf("Note On : %3d (channel: %2d, velocity: %3d)", e.Component(), channel, e.Value())
	case ControlChange:
		var value string
		if len(e) == 3 {
			value = fmt.Sprintf("%3d", e[2])
		} else {
			value = "---"
		}
		return fmt.Sprintf("Control Change: %3d, value: %s (channel: %2d)", e.Component(), value, channel)
	default:
		msg := "Oof, unexpected event format: "
		for _, v := range e {
			msg += fmt.Sprintf("0x%02x ", v)
		}
		return msg
	}
}

func NoteEvent(messageType, channel, note, velocity uint8) Event {
	return Event{messageType | channel, note, velocity}
}

func ControlChangeEvent(channel, function, value uint8) Event {
	return Event{ControlChange | channel, function, value}
}
