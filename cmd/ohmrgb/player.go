package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/grid"
	mmidi "github.com/moutend/go-midi"
	mmidiev "github.com/moutend/go-midi/event"
	"go.uber.org/zap"
)

type LightingSetter interface {
	SetLighting(id midi.Control, value uint8)
}

// Show plays a Standard MIDI File onto the grid: note N (0-63) drives grid button N,
// velocity divided by 16 becomes the lighting value.
type Show struct {
	data []byte
	lit  map[midi.Control]bool
}

func NewShow(data []byte) Show {
	return Show{
		data: data,
		lit:  make(map[midi.Control]bool),
	}
}

// showLighting converts note event of a show into grid lighting.
func showLighting(ev midi.Event) (midi.Control, uint8, bool) {
	if len(ev) < 3 || !grid.IsGridButton(ev.Component()) {
		return 0, 0, false
	}

	var value uint8
	switch ev.Type() {
	case midi.NoteOn:
		value = ev.Value() >> 4
	case midi.NoteOff:
		value = 0
	default:
		return 0, 0, false
	}
	return midi.ControlID(ev.Component(), midi.NOTE), value, true
}

func (s *Show) apply(ev midi.Event, lights LightingSetter) {
	id, value, ok := showLighting(ev)
	if !ok {
		return
	}
	lights.SetLighting(id, value)
	if value > 0 {
		s.lit[id] = true
	} else {
		delete(s.lit, id)
	}
}

// Play blocks until the show is over or ctx is done, buttons lit by the show are turned off afterwards.
func (s *Show) Play(ctx context.Context, lights LightingSetter, bpm int) error {
	if bpm <= 0 {
		return fmt.Errorf("invalid bpm: %d", bpm)
	}

	parser := mmidi.NewParser(s.data)
	mevents, err := parser.Parse()
	if err != nil {
		return fmt.Errorf("parsing show failed: %w", err)
	}

root:
	for _, track := range mevents.Tracks {
		for _, event := range track.Events {
			dt := time.Duration(event.DeltaTime().Quantity().Uint32()) * time.Second / time.Duration(bpm) / 2
			select {
			case <-time.After(dt):
			case <-ctx.Done():
				break root
			}

			switch v := event.(type) {
			case *mmidiev.NoteOnEvent:
				s.apply(midi.NoteEvent(midi.NoteOn, v.Channel(), uint8(v.Note()), uint8(v.Velocity())), lights)
			case *mmidiev.NoteOffEvent:
				s.apply(midi.NoteEvent(midi.NoteOff, v.Channel(), uint8(v.Note()), uint8(v.Velocity())), lights)
			}
		}
	}

	for id := range s.lit {
		lights.SetLighting(id, 0)
		delete(s.lit, id)
	}
	return nil
}

func runShow(ctx context.Context, wg *sync.WaitGroup, path string, bpm int, lights LightingSetter) {
	defer wg.Done()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Info(fmt.Sprintf("cannot read show: %s", err), zap.String("show", path), logger.Error)
		return
	}

	log.Info("show started", zap.String("show", path), logger.Info)
	show := NewShow(data)
	err = show.Play(ctx, lights, bpm)
	if err != nil {
		log.Info(fmt.Sprintf("show failed: %s", err), zap.String("show", path), logger.Error)
		return
	}
	log.Info("show finished", zap.String("show", path), logger.Info)
}
