package midi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventString(t *testing.T) {
	for _, tc := range []struct {
		event    Event
		expected string
	}{
		{event: NoteEvent(NoteOn, 0, 12, 127), expected: "Note On :  12 (channel:  1, velocity: 127)"},
		{event: NoteEvent(NoteOff, 3, 63, 0), expected: "Note Off:  63 (channel:  4, velocity:   0)"},
		{event: ControlChangeEvent(0, 24, 64), expected: "Control Change:  24, value:  64 (channel:  1)"},
		{event: Event{ControlChange, 24}, expected: "Control Change:  24, value: --- (channel:  1)"},
		{event: Event{SysExStart, 0x00, SysExEnd}, expected: "SysEx: 3 bytes"},
		{event: Event{0x20, 0x01}, expected: "Oof, unexpected event format: 0x20 0x01 "},
		{event: Event{}, expected: "Warning: empty Midi event, it should be not emitted"},
	} {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.event.String())
		})
	}
}

func TestEventFields(t *testing.T) {
	ev := NoteEvent(NoteOn, 5, 33, 100)
	assert.Equal(t, NoteOn, ev.Type())
	assert.Equal(t, uint8(5), ev.Channel())
	assert.Equal(t, uint8(33), ev.Component())
	assert.Equal(t, uint8(100), ev.Value())

	short := Event{NoteOn}
	assert.Equal(t, uint8(0), short.Component())
	assert.Equal(t, uint8(0), short.Value())
}

func TestControlID(t *testing.T) {
	assert.Equal(t, Control(0xB018), CrossfaderControl)
	assert.Equal(t, Control(0x9040), LeftPlayControl)
	assert.Equal(t, Control(0x9048), RightPlayControl)

	for _, eventType := range []uint8{CC, NOTE} {
		seen := make(map[Control]uint8)
		for component := 0; component < 256; component++ {
			c := ControlID(uint8(component), eventType)
			prev, ok := seen[c]
			assert.False(t, ok, "component %d collides with %d", component, prev)
			seen[c] = uint8(component)

			assert.Equal(t, eventType, c.EventType())
			assert.Equal(t, uint8(component), c.Component())
		}
	}

	assert.NotEqual(t, ControlID(24, CC), ControlID(24, NOTE))
}

func TestControlFromEventIgnoresChannel(t *testing.T) {
	assert.Equal(t, ControlID(10, NOTE), ControlFromEvent(NoteEvent(NoteOn, 0, 10, 127)))
	assert.Equal(t, ControlID(10, NOTE), ControlFromEvent(NoteEvent(NoteOn, 7, 10, 127)))
	assert.Equal(t, CrossfaderControl, ControlFromEvent(ControlChangeEvent(2, Crossfader, 0)))
}

func TestParseControl(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected Control
		err      bool
	}{
		{input: "note:0", expected: ControlID(0, NOTE)},
		{input: "NOTE:63", expected: ControlID(63, NOTE)},
		{input: "cc:24", expected: CrossfaderControl},
		{input: "crossfader", expected: CrossfaderControl},
		{input: " left_play ", expected: LeftPlayControl},
		{input: "right_play", expected: RightPlayControl},
		{input: "note:128", err: true},
		{input: "note:-1", err: true},
		{input: "pitch:3", err: true},
		{input: "note", err: true},
		{input: "note:x", err: true},
	} {
		t.Run(tc.input, func(t *testing.T) {
			c, err := ParseControl(tc.input)
			if tc.err {
				assert.Error(t, err)
				return
			}
			assert.Equal(t, nil, err)
			assert.Equal(t, tc.expected, c)
		})
	}
}

func TestControlString(t *testing.T) {
	for i, tc := range []struct {
		control  Control
		expected string
	}{
		{control: ControlID(5, NOTE), expected: "note:5"},
		{control: ControlID(7, CC), expected: "cc:7"},
		{control: CrossfaderControl, expected: "crossfader"},
		{control: LeftPlayControl, expected: "left_play"},
		{control: ControlID(1, NoteOff), expected: "0x8001"},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.control.String())
		})
	}
}
