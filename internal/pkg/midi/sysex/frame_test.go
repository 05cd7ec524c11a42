package sysex

import (
	"errors"
	"testing"

	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/stretchr/testify/assert"
)

type table map[midi.Control]uint8

func (t table) Lighting(id midi.Control) uint8 {
	return t[id]
}

func note(id uint8) midi.Control {
	return midi.ControlID(id, midi.NOTE)
}

func TestEmptyFrame(t *testing.T) {
	f := Build(table{})
	data := f.Bytes()

	assert.Equal(t, 59, len(data))
	assert.Equal(t, []byte{0xF0, 0x00, 0x01, 0x61, 0x07}, data[:5])
	assert.Equal(t, byte(0x04), data[5])
	assert.Equal(t, make([]byte, 42), data[6:48])
	assert.Equal(t, make([]byte, 10), data[48:58])
	assert.Equal(t, byte(0xF7), data[58])
}

func TestFramePacking(t *testing.T) {
	for _, tc := range []struct {
		name     string
		lighting table
		expected map[int]byte // payload offset: value
	}{
		{
			name:     "first grid buttons",
			lighting: table{note(0): 5, note(1): 3},
			// MIDI 0 -> sysex 56, MIDI 1 -> sysex 60
			expected: map[int]byte{28: 5, 30: 3},
		},
		{
			name:     "pair sharing one byte",
			lighting: table{note(56): 5, note(58): 3},
			// MIDI 56 -> sysex 0, MIDI 58 -> sysex 1
			expected: map[int]byte{0: 5 | 3<<3},
		},
		{
			name:     "last byte high bits",
			lighting: table{note(7): 7, note(15): 1},
			// MIDI 7 -> sysex 63, MIDI 15 -> sysex 55
			expected: map[int]byte{31: 7 << 3, 27: 1 << 3},
		},
		{
			name:     "non-grid controls are not encoded",
			lighting: table{midi.LeftPlayControl: 7, midi.RightPlayControl: 7, midi.CrossfaderControl: 7, midi.ControlID(0, midi.CC): 7},
			expected: map[int]byte{},
		},
		{
			name:     "values are truncated to 3 bits",
			lighting: table{note(56): 0xFF},
			expected: map[int]byte{0: 7},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			payload := Build(tc.lighting).Payload()
			for i, b := range payload {
				assert.Equal(t, tc.expected[i], b, "payload byte %d", i)
			}
		})
	}
}

func TestBuildHasNoSideEffects(t *testing.T) {
	l := table{note(0): 2}
	_ = Build(l)
	assert.Equal(t, table{note(0): 2}, l)
}

func TestDecode(t *testing.T) {
	l := table{}
	for id := uint8(0); id < 64; id++ {
		l[note(id)] = id % 8
	}

	values, err := Decode(Build(l).Bytes())
	assert.Equal(t, nil, err)
	for id := uint8(0); id < 64; id++ {
		assert.Equal(t, id%8, values[id], "button %d", id)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := Build(table{}).Bytes()

	short := valid[:58]
	badPrefix := Build(table{}).Bytes()
	badPrefix[4] = 0x08
	badCommand := Build(table{}).Bytes()
	badCommand[5] = 0x02
	badEnd := Build(table{}).Bytes()
	badEnd[58] = 0x00

	for _, data := range [][]byte{short, badPrefix, badCommand, badEnd} {
		_, err := Decode(data)
		assert.True(t, errors.Is(err, ErrInvalidFrame))
	}

	assert.True(t, IsFrame(valid))
	assert.False(t, IsFrame(badPrefix))
	assert.False(t, IsFrame([]byte{0xF0}))
}
