package device

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device/config"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/sysex"
	"github.com/stretchr/testify/assert"
)

func note(id uint8) midi.Control {
	return midi.ControlID(id, midi.NOTE)
}

func press(id uint8) midi.Event {
	return midi.NoteEvent(midi.NoteOn, 0, id, midi.ButtonDown)
}

func newTestDevice() (*Device, chan midi.Event) {
	frames := make(chan midi.Event, 16)
	return NewDevice(frames, true), frames
}

func TestRegisterCallbackReplaces(t *testing.T) {
	d, _ := newTestDevice()

	var first, second int
	d.RegisterCallback(note(5), func(midi.Event) { first++ })
	d.RegisterCallback(note(5), func(midi.Event) { second++ })

	assert.True(t, d.Dispatch(press(5)))
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestDispatch(t *testing.T) {
	d, _ := newTestDevice()

	var calls []midi.Event
	handler := func(ev midi.Event) { calls = append(calls, ev) }
	d.RegisterCallback(note(10), handler)
	d.RegisterCallback(midi.CrossfaderControl, handler)
	d.RegisterCallback(note(12), handler)
	d.RegisterCallback(note(12), nil)
	d.RegisterCallback(note(13), nil)

	for _, tc := range []struct {
		name       string
		event      midi.Event
		dispatched bool
	}{
		{name: "press", event: press(10), dispatched: true},
		{name: "press on other channel", event: midi.NoteEvent(midi.NoteOn, 9, 10, midi.ButtonDown), dispatched: true},
		{name: "release", event: midi.NoteEvent(midi.NoteOn, 0, 10, 0), dispatched: false},
		{name: "note off", event: midi.NoteEvent(midi.NoteOff, 0, 10, 0), dispatched: false},
		{name: "crossfader", event: midi.ControlChangeEvent(0, midi.Crossfader, 33), dispatched: true},
		{name: "crossfader zero", event: midi.ControlChangeEvent(3, midi.Crossfader, 0), dispatched: true},
		{name: "not registered", event: press(11), dispatched: false},
		{name: "handler removed", event: press(12), dispatched: false},
		{name: "nil handler", event: press(13), dispatched: false},
		{name: "cc with note number", event: midi.ControlChangeEvent(0, 10, 127), dispatched: false},
		{name: "too short", event: midi.Event{midi.NoteOn, 10}, dispatched: false},
		{name: "empty", event: midi.Event{}, dispatched: false},
		{name: "pitch bend", event: midi.Event{0xE0, 0, 64}, dispatched: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tc.dispatched, d.Dispatch(tc.event))
			})
		})
	}

	assert.Equal(t, 4, len(calls))

	state := d.State()
	assert.Equal(t, uint64(13), state.Events)
	assert.Equal(t, uint64(4), state.Dispatched)
	assert.Equal(t, uint64(4), state.Misses)
}

func TestSetLighting(t *testing.T) {
	d, _ := newTestDevice()

	assert.Equal(t, uint8(0), d.Lighting(note(3)))

	d.SetLighting(note(3), 6)
	assert.Equal(t, uint8(6), d.Lighting(note(3)))

	d.SetLighting(note(3), 9) // 0b1001
	assert.Equal(t, uint8(1), d.Lighting(note(3)))
	assert.Equal(t, uint64(1), d.State().Masked)

	d.SetLighting(midi.LeftPlayControl, 2)
	d.Clear()
	assert.Equal(t, uint8(0), d.Lighting(note(3)))
	assert.Equal(t, uint8(2), d.Lighting(midi.LeftPlayControl))
}

func TestFrame(t *testing.T) {
	d, _ := newTestDevice()

	d.SetLighting(note(56), 5)
	d.SetLighting(note(58), 3)
	d.SetLighting(midi.RightPlayControl, 7)

	payload := d.Frame().Payload()
	assert.Equal(t, byte(5|3<<3), payload[0])
	for i := 1; i < len(payload); i++ {
		assert.Equal(t, byte(0), payload[i])
	}
}

func TestDraw(t *testing.T) {
	frames := make(chan midi.Event, 1)
	d := NewDevice(frames, true)

	assert.True(t, d.Draw()) // first draw always goes out
	assert.Equal(t, sysex.FrameSize, len(<-frames))

	assert.False(t, d.Draw())

	d.SetLighting(note(0), 1)
	d.SetLighting(note(0), 1)
	assert.True(t, d.Draw())
	assert.False(t, d.Draw())

	// queue is full, frame postponed until there is space
	d.SetLighting(note(0), 2)
	assert.False(t, d.Draw())
	values, err := sysex.Decode(<-frames)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(1), values[0])

	assert.True(t, d.Draw())
	values, err = sysex.Decode(<-frames)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(2), values[0])

	assert.True(t, d.Redraw())
	<-frames
	assert.Equal(t, uint64(4), d.State().Frames)
}

func TestApplyPreset(t *testing.T) {
	d, _ := newTestDevice()

	preset := config.Preset{
		Name:       "test",
		MeterValue: 2,
		Initial:    map[midi.Control]uint8{note(0): 4, midi.LeftPlayControl: 1},
		Bindings: []config.Binding{
			{Control: note(0), Action: config.Exclusive, Target: note(0), Value: 4},
			{Control: note(8), Action: config.Exclusive, Target: note(8), Value: 4},
			{Control: note(1), Action: config.Toggle, Target: note(1), Value: 3},
			{Control: note(2), Action: config.Cycle, Target: note(2)},
			{Control: note(3), Action: config.Set, Target: note(11), Value: 5},
			{Control: note(7), Action: config.Clear, Target: note(7)},
			{Control: midi.CrossfaderControl, Action: config.Meter, Target: midi.CrossfaderControl, Column: 7},
		},
	}
	d.ApplyPreset(preset)

	assert.Equal(t, "test", d.State().Preset)
	assert.Equal(t, uint8(4), d.Lighting(note(0)))
	assert.Equal(t, uint8(1), d.Lighting(midi.LeftPlayControl))

	// exclusive: MIDI 8 shares row 0 with MIDI 0
	d.Dispatch(press(8))
	assert.Equal(t, uint8(0), d.Lighting(note(0)))
	assert.Equal(t, uint8(4), d.Lighting(note(8)))

	d.Dispatch(press(1))
	assert.Equal(t, uint8(3), d.Lighting(note(1)))
	d.Dispatch(press(1))
	assert.Equal(t, uint8(0), d.Lighting(note(1)))

	for i, expected := range []uint8{1, 2, 3, 4, 5, 6, 7, 0} {
		d.Dispatch(press(2))
		assert.Equal(t, expected, d.Lighting(note(2)), "cycle step %d", i)
	}

	d.Dispatch(press(3))
	assert.Equal(t, uint8(5), d.Lighting(note(11)))
	assert.Equal(t, uint8(0), d.Lighting(note(3)))

	// meter: column 7 holds MIDI 56-63, row 7 is the bottom one
	d.Dispatch(midi.ControlChangeEvent(0, midi.Crossfader, 64))
	for id := uint8(56); id < 64; id++ {
		if id >= 60 {
			assert.Equal(t, uint8(2), d.Lighting(note(id)), "button %d", id)
		} else {
			assert.Equal(t, uint8(0), d.Lighting(note(id)), "button %d", id)
		}
	}
	d.Dispatch(midi.ControlChangeEvent(0, midi.Crossfader, 0))
	for id := uint8(56); id < 64; id++ {
		assert.Equal(t, uint8(0), d.Lighting(note(id)))
	}

	d.Dispatch(press(7))
	for id := uint8(0); id < 64; id++ {
		assert.Equal(t, uint8(0), d.Lighting(note(id)))
	}
	assert.Equal(t, uint8(1), d.Lighting(midi.LeftPlayControl))
}

func TestReloadPresetKeepsLighting(t *testing.T) {
	d, _ := newTestDevice()

	d.ApplyPreset(config.Preset{
		Name:     "a",
		Initial:  map[midi.Control]uint8{note(4): 6},
		Bindings: []config.Binding{{Control: note(4), Action: config.Set, Target: note(4), Value: 1}},
	})
	d.ReloadPreset(config.Preset{
		Name:     "a",
		Initial:  map[midi.Control]uint8{note(4): 2},
		Bindings: []config.Binding{{Control: note(5), Action: config.Set, Target: note(5), Value: 1}},
	})

	assert.Equal(t, uint8(6), d.Lighting(note(4)))
	assert.False(t, d.Dispatch(press(4)))
	assert.True(t, d.Dispatch(press(5)))
}

func TestMeterLevel(t *testing.T) {
	for _, tc := range []struct {
		value, level int
	}{
		{0, 0}, {15, 0}, {16, 1}, {63, 3}, {64, 4}, {126, 7}, {127, 8}, {200, 8},
	} {
		assert.Equal(t, tc.level, MeterLevel(uint8(tc.value)), "value %d", tc.value)
	}
}

func TestProcessEvents(t *testing.T) {
	d, _ := newTestDevice()

	var called = make(chan bool, 1)
	d.RegisterCallback(note(1), func(midi.Event) { called <- true })

	in := make(chan midi.Event)
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	wg.Add(1)
	go d.ProcessEvents(ctx, &wg, in)

	in <- press(1)
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("handler not invoked")
	}

	cancel()
	wg.Wait()
}

func TestLightingTableVersion(t *testing.T) {
	table := NewLightingTable()
	assert.Equal(t, uint64(0), table.Version())

	table.Set(note(1), 0) // first write counts, the entry did not exist
	assert.Equal(t, uint64(1), table.Version())
	table.Set(note(1), 0)
	assert.Equal(t, uint64(1), table.Version())
	table.Set(note(1), 3)
	assert.Equal(t, uint64(2), table.Version())

	s, version := table.Snapshot()
	table.Set(note(1), 4)
	assert.Equal(t, uint8(3), s.Lighting(note(1)))
	assert.Equal(t, uint64(2), version)
	assert.Equal(t, uint8(3), s.Grid()[1])
}
