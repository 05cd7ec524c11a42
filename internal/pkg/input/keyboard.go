package input

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/holoplot/go-evdev"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
)

// KeyEvent translates keyboard key event into MIDI event of the control bound to the key.
// Press emulates pushing the controller button, release emulates letting it go, repeats are ignored.
func KeyEvent(code evdev.EvCode, value int32, keys map[evdev.EvCode]midi.Control) (midi.Event, bool) {
	control, ok := keys[code]
	if !ok {
		return nil, false
	}

	var v uint8
	switch value {
	case keyPress:
		v = midi.ButtonDown
	case keyRelease:
		v = 0
	default:
		return nil, false
	}

	switch control.EventType() {
	case midi.NOTE:
		return midi.NoteEvent(midi.NoteOn, 0, control.Component(), v), true
	case midi.CC:
		return midi.ControlChangeEvent(0, control.Component(), v), true
	default:
		return nil, false
	}
}

// ProcessKeyboard reads key events of given event device and emits emulated controller events
// until ctx is done. Key bindings are fetched on every key, so preset reloads apply immediately.
func ProcessKeyboard(ctx context.Context, wg *sync.WaitGroup, path string, grab bool,
	keys func() map[evdev.EvCode]midi.Control, events chan<- midi.Event,
) error {
	dev, err := evdev.Open(path)
	if err != nil {
		return fmt.Errorf("opening keyboard failed: %w", err)
	}

	name, _ := dev.Name()
	name = strings.Trim(name, "\x00")
	fields := []zap.Field{zap.String("handler_path", path), zap.String("handler_name", name)}

	go func() {
		<-ctx.Done()
		err := dev.Close()
		if err != nil {
			log.Info(fmt.Sprintf("keyboard close failed: %v", err), append(fields, logger.Warning)...)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		if grab {
			_ = dev.Grab()
			log.Info("Grabbing keyboard for exclusive usage", append(fields, logger.Debug)...)
		}
		log.Info("Reading keyboard events", append(fields, logger.Info)...)

		err := dev.NonBlock()
		if err != nil {
			log.Info(fmt.Sprintf("enabling non-blocking event reading mode failed: %v", err), append(fields, logger.Warning)...)
		}

		for {
			event, err := dev.ReadOne()
			if err != nil {
				break
			}
			if event.Type != evdev.EV_KEY || event.Value == keyRepeat {
				continue
			}

			ev, ok := KeyEvent(event.Code, event.Value, keys())
			if !ok {
				log.Info(fmt.Sprintf("key %d not bound", event.Code), append(fields, logger.ControlsNotAssigned)...)
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}

		if grab {
			_ = dev.Ungrab()
		}
		log.Info("Reading keyboard events finished", append(fields, logger.Debug)...)
	}()

	return nil
}
