package device

import (
	"sync"

	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/grid"
)

// MaxLighting is the highest value fitting into 3 bits of the LED bitmap.
const MaxLighting uint8 = 0b111

// LightingTable keeps last known lighting value per control, it lives for the whole process lifetime.
type LightingTable struct {
	mutex   sync.RWMutex
	values  map[midi.Control]uint8
	version uint64 // bumped on every effective change
}

func NewLightingTable() *LightingTable {
	return &LightingTable{
		values: make(map[midi.Control]uint8, grid.Buttons+3),
	}
}

// Set stores value masked to 3 bits. Returns stored value and whether the original value had to be masked.
func (t *LightingTable) Set(id midi.Control, value uint8) (stored uint8, masked bool) {
	stored = value & MaxLighting
	masked = stored != value

	t.mutex.Lock()
	defer t.mutex.Unlock()

	previous, ok := t.values[id]
	t.values[id] = stored
	if !ok || previous != stored {
		t.version++
	}
	return stored, masked
}

// Lighting returns last set value, 0 when never set.
func (t *LightingTable) Lighting(id midi.Control) uint8 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.values[id]
}

func (t *LightingTable) Version() uint64 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.version
}

// Snapshot returns consistent copy of the table together with its version.
func (t *LightingTable) Snapshot() (Snapshot, uint64) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	s := make(Snapshot, len(t.values))
	for id, v := range t.values {
		s[id] = v
	}
	return s, t.version
}

type Snapshot map[midi.Control]uint8

func (s Snapshot) Lighting(id midi.Control) uint8 {
	return s[id]
}

// Grid returns lighting of grid buttons indexed by MIDI button id.
func (s Snapshot) Grid() [grid.Buttons]uint8 {
	var values [grid.Buttons]uint8
	for id := uint8(0); id < grid.Buttons; id++ {
		values[id] = s[midi.ControlID(id, midi.NOTE)]
	}
	return values
}
