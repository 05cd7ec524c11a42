package main

import (
	"context"
	"testing"

	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/stretchr/testify/assert"
)

type lightingWrite struct {
	id    midi.Control
	value uint8
}

type recordingLights struct {
	writes []lightingWrite
}

func (r *recordingLights) SetLighting(id midi.Control, value uint8) {
	r.writes = append(r.writes, lightingWrite{id, value})
}

func TestShowLighting(t *testing.T) {
	for _, tc := range []struct {
		name  string
		event midi.Event
		id    midi.Control
		value uint8
		ok    bool
	}{
		{name: "full velocity", event: midi.NoteEvent(midi.NoteOn, 0, 5, 127), id: midi.ControlID(5, midi.NOTE), value: 7, ok: true},
		{name: "low velocity", event: midi.NoteEvent(midi.NoteOn, 3, 5, 32), id: midi.ControlID(5, midi.NOTE), value: 2, ok: true},
		{name: "note on zero", event: midi.NoteEvent(midi.NoteOn, 0, 63, 0), id: midi.ControlID(63, midi.NOTE), value: 0, ok: true},
		{name: "note off", event: midi.NoteEvent(midi.NoteOff, 0, 10, 64), id: midi.ControlID(10, midi.NOTE), value: 0, ok: true},
		{name: "outside of grid", event: midi.NoteEvent(midi.NoteOn, 0, 64, 127), ok: false},
		{name: "control change", event: midi.ControlChangeEvent(0, 5, 127), ok: false},
		{name: "truncated", event: midi.Event{midi.NoteOn, 5}, ok: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			id, value, ok := showLighting(tc.event)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.id, id)
				assert.Equal(t, tc.value, value)
			}
		})
	}
}

func TestShowPlay(t *testing.T) {
	smf := []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 0, 0, 1, 0, 0x60,
		'M', 'T', 'r', 'k', 0, 0, 0, 16,
		0x00, 0x90, 0x00, 0x7F, // button 0 on
		0x00, 0x90, 0x3F, 0x40, // button 63 on
		0x00, 0x80, 0x00, 0x00, // button 0 off
		0x00, 0xFF, 0x2F, 0x00, // end of track
	}

	lights := &recordingLights{}
	show := NewShow(smf)
	err := show.Play(context.Background(), lights, 120)
	assert.Equal(t, nil, err)

	assert.Equal(t, []lightingWrite{
		{midi.ControlID(0, midi.NOTE), 7},
		{midi.ControlID(63, midi.NOTE), 4},
		{midi.ControlID(0, midi.NOTE), 0},
		{midi.ControlID(63, midi.NOTE), 0}, // left lit by the show
	}, lights.writes)

	assert.NotEqual(t, nil, show.Play(context.Background(), lights, 0))
	bad := NewShow([]byte("garbage"))
	assert.NotEqual(t, nil, bad.Play(context.Background(), lights, 120))
}
