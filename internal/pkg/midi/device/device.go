package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device/config"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/grid"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/sysex"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Handler is invoked with the event that triggered it.
type Handler func(ev midi.Event)

type State struct {
	Events      uint64 // all inbound events
	Dispatched  uint64 // events that invoked a handler
	Misses      uint64 // events without registered handler
	Frames      uint64 // LED frames sent
	Masked      uint64 // lighting writes that exceeded 3 bits
	LastControl midi.Control
	LastEvent   midi.Event
	Preset      string
}

// Device owns callback and lighting tables of one OhmRGB controller.
type Device struct {
	noLogs bool // skips producing most of the log entries for maximum performance
	frames chan<- midi.Event

	callbackMutex sync.RWMutex
	callbacks     map[midi.Control]Handler

	lighting *LightingTable

	drawMutex    sync.Mutex
	drawnVersion uint64
	drawnOnce    bool

	stateMutex sync.Mutex
	state      State

	preset           config.Preset
	presetGeneration uint64 // bumped on every apply / reload
}

func NewDevice(frames chan<- midi.Event, noLogs bool) *Device {
	return &Device{
		noLogs:    noLogs,
		frames:    frames,
		callbacks: make(map[midi.Control]Handler, grid.Buttons+3),
		lighting:  NewLightingTable(),
	}
}

// RegisterCallback stores handler for given control, previously registered handler is replaced.
// Nil handler removes the registration.
func (d *Device) RegisterCallback(id midi.Control, h Handler) {
	d.callbackMutex.Lock()
	_, replaced := d.callbacks[id]
	if h == nil {
		delete(d.callbacks, id)
		d.callbackMutex.Unlock()
		if replaced && !d.noLogs {
			log.Info(fmt.Sprintf("handler for %s removed", id), zap.String("control", id.String()), logger.Debug)
		}
		return
	}
	d.callbacks[id] = h
	d.callbackMutex.Unlock()

	if replaced && !d.noLogs {
		log.Info(fmt.Sprintf("handler for %s replaced", id), zap.String("control", id.String()), logger.Debug)
	}
}

func (d *Device) resetCallbacks() {
	d.callbackMutex.Lock()
	defer d.callbackMutex.Unlock()
	d.callbacks = make(map[midi.Control]Handler, grid.Buttons+3)
}

func (d *Device) handler(id midi.Control) (Handler, bool) {
	d.callbackMutex.RLock()
	defer d.callbackMutex.RUnlock()
	h, ok := d.callbacks[id]
	return h, ok && h != nil
}

// Dispatch invokes handler registered for event control. Control changes are dispatched on every value,
// notes only on button press. Returns true when a handler was invoked.
func (d *Device) Dispatch(ev midi.Event) bool {
	d.stateMutex.Lock()
	d.state.Events++
	d.stateMutex.Unlock()

	if len(ev) < 3 {
		log.Info(fmt.Sprintf("malformed event ignored: %s", ev), logger.Warning)
		return false
	}

	switch ev.Type() {
	case midi.CC:
	case midi.NOTE:
		if ev.Value() != midi.ButtonDown {
			return false
		}
	default:
		if !d.noLogs {
			log.Info(fmt.Sprintf("unsupported event ignored: %s", ev), logger.Debug)
		}
		return false
	}

	id := midi.ControlFromEvent(ev)

	d.stateMutex.Lock()
	d.state.LastControl = id
	d.state.LastEvent = ev
	d.stateMutex.Unlock()

	if !d.noLogs {
		log.Info(ev.String(), zap.String("control", id.String()), logger.Controls)
	}

	h, ok := d.handler(id)
	if !ok {
		d.stateMutex.Lock()
		d.state.Misses++
		d.stateMutex.Unlock()
		if !d.noLogs {
			log.Info(fmt.Sprintf("no handler for %s", id), zap.String("control", id.String()), logger.ControlsNotAssigned)
		}
		return false
	}

	h(ev)

	d.stateMutex.Lock()
	d.state.Dispatched++
	d.stateMutex.Unlock()
	if !d.noLogs {
		log.Info(fmt.Sprintf("handler for %s invoked", id), zap.String("control", id.String()), logger.Action)
	}
	return true
}

// SetLighting stores value of given control. Values exceeding 3 bits are masked and reported.
func (d *Device) SetLighting(id midi.Control, value uint8) {
	stored, masked := d.lighting.Set(id, value)
	if masked {
		d.stateMutex.Lock()
		d.state.Masked++
		d.stateMutex.Unlock()
		log.Info(fmt.Sprintf("lighting value %d of %s exceeds 3 bits, stored as %d", value, id, stored),
			zap.String("control", id.String()), logger.Warning,
		)
	}
	if !d.noLogs {
		log.Info(fmt.Sprintf("lighting %s: %d", id, stored), zap.String("control", id.String()), logger.Lighting)
	}
}

func (d *Device) Lighting(id midi.Control) uint8 {
	return d.lighting.Lighting(id)
}

func (d *Device) Snapshot() Snapshot {
	s, _ := d.lighting.Snapshot()
	return s
}

// Frame encodes consistent snapshot of the lighting table.
func (d *Device) Frame() sysex.Frame {
	s, _ := d.lighting.Snapshot()
	return sysex.Build(s)
}

// Clear turns off all grid buttons, non-grid controls stay intact.
func (d *Device) Clear() {
	for id := uint8(0); id < grid.Buttons; id++ {
		d.SetLighting(midi.ControlID(id, midi.NOTE), 0)
	}
}

// Draw sends LED frame when lighting changed since the last successful draw.
func (d *Device) Draw() bool {
	return d.draw(false)
}

// Redraw sends LED frame unconditionally.
func (d *Device) Redraw() bool {
	return d.draw(true)
}

func (d *Device) draw(force bool) bool {
	d.drawMutex.Lock()
	defer d.drawMutex.Unlock()

	s, version := d.lighting.Snapshot()
	if !force && d.drawnOnce && version == d.drawnVersion {
		return false
	}

	frame := sysex.Build(s)
	select {
	case d.frames <- frame.Bytes():
	default:
		// next draw retries, version is not recorded
		log.Info("output queue full, LED frame postponed", logger.Warning)
		return false
	}

	d.drawnVersion = version
	d.drawnOnce = true

	d.stateMutex.Lock()
	d.state.Frames++
	d.stateMutex.Unlock()
	return true
}

func (d *Device) State() State {
	d.stateMutex.Lock()
	defer d.stateMutex.Unlock()
	return d.state
}

// ProcessEvents dispatches inbound events until ctx is done or the channel is closed.
func (d *Device) ProcessEvents(ctx context.Context, wg *sync.WaitGroup, in <-chan midi.Event) {
	defer wg.Done()

root:
	for {
		select {
		case <-ctx.Done():
			break root
		case ev, ok := <-in:
			if !ok {
				break root
			}
			d.Dispatch(ev)
		}
	}

	log.Info("event dispatching stopped", logger.Debug)
}

// HandleRedraw sends LED frames with given maximum rate whenever the lighting changes.
func (d *Device) HandleRedraw(ctx context.Context, wg *sync.WaitGroup, rate time.Duration) {
	defer wg.Done()

	d.Redraw()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

root:
	for {
		select {
		case <-ctx.Done():
			break root
		case <-ticker.C:
			d.Draw()
		}
	}

	log.Info("LED redraw stopped", logger.Debug)
}
