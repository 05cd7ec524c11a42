// Package sysex encodes the OhmRGB "set all LEDs" System Exclusive message.
package sysex

import (
	"errors"
	"fmt"

	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/grid"
)

const (
	CommandSetAllLEDs byte = 0x04

	PayloadSize  = 42 // device reserves room for non-grid controls as well
	GridBytes    = grid.Buttons / 2
	ReservedSize = 10
	FrameSize    = len(Prefix) + 1 + PayloadSize + ReservedSize + 1

	payloadOffset = len(Prefix) + 1

	// lighting value occupies 3 bits, the lower sysex index goes into bits 0-2, the higher one into bits 3-5
	valueMask  = 0b111
	valueShift = 3
)

// Prefix is the Livid Instruments manufacturer id followed by the OhmRGB product id.
var Prefix = [5]byte{midi.SysExStart, 0x00, 0x01, 0x61, 0x07}

var ErrInvalidFrame = errors.New("invalid LED frame")

// Lighting provides lighting value for a given control, 0 when never set.
type Lighting interface {
	Lighting(id midi.Control) uint8
}

type Frame [FrameSize]byte

// Bytes returns a copy of the frame, safe to hand over to a MIDI output.
func (f Frame) Bytes() []byte {
	data := make([]byte, FrameSize)
	copy(data, f[:])
	return data
}

func (f Frame) Payload() []byte {
	payload := make([]byte, PayloadSize)
	copy(payload, f[payloadOffset:payloadOffset+PayloadSize])
	return payload
}

// Build encodes lighting of all 64 grid buttons into one frame.
// Non-grid controls are not encoded, the remaining payload bytes and the reserved tail stay zero.
func Build(l Lighting) Frame {
	var f Frame

	copy(f[:], Prefix[:])
	f[len(Prefix)] = CommandSetAllLEDs

	for index := uint8(0); index < grid.Buttons; index += 2 {
		low := l.Lighting(gridControl(index)) & valueMask
		high := l.Lighting(gridControl(index+1)) & valueMask
		f[payloadOffset+int(index/2)] = low | high<<valueShift
	}

	f[FrameSize-1] = midi.SysExEnd
	return f
}

func gridControl(sysexIndex uint8) midi.Control {
	return midi.ControlID(grid.ButtonFromSysex(sysexIndex), midi.NOTE)
}

// Decode is the inverse of Build, it returns lighting values indexed by MIDI button id.
func Decode(data []byte) ([grid.Buttons]uint8, error) {
	var values [grid.Buttons]uint8

	if len(data) != FrameSize {
		return values, fmt.Errorf("%w: unexpected length %d (expected %d)", ErrInvalidFrame, len(data), FrameSize)
	}
	for i, b := range Prefix {
		if data[i] != b {
			return values, fmt.Errorf("%w: unexpected prefix byte 0x%02x at %d", ErrInvalidFrame, data[i], i)
		}
	}
	if data[len(Prefix)] != CommandSetAllLEDs {
		return values, fmt.Errorf("%w: unsupported command 0x%02x", ErrInvalidFrame, data[len(Prefix)])
	}
	if data[FrameSize-1] != midi.SysExEnd {
		return values, fmt.Errorf("%w: missing terminator", ErrInvalidFrame)
	}

	for i := 0; i < GridBytes; i++ {
		b := data[payloadOffset+i]
		index := uint8(i * 2)
		values[grid.ButtonFromSysex(index)] = b & valueMask
		values[grid.ButtonFromSysex(index+1)] = b >> valueShift & valueMask
	}
	return values, nil
}

// IsFrame reports whether given raw message looks like an LED frame.
func IsFrame(data []byte) bool {
	if len(data) < len(Prefix)+1 {
		return false
	}
	for i, b := range Prefix {
		if data[i] != b {
			return false
		}
	}
	return data[len(Prefix)] == CommandSetAllLEDs
}
