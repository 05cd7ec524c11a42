package midi

import (
	"fmt"
	"strconv"
	"strings"
)

// OhmRGB component IDs outside of the 8x8 grid.
const (
	Crossfader uint8 = 24 // CC
	LeftPlay   uint8 = 64 // NOTE
	RightPlay  uint8 = 72 // NOTE
)

// Control is a composite identifier: message type in the high byte, component id in the low byte.
// The same key addresses both the callback and the lighting tables.
type Control uint16

var (
	CrossfaderControl = ControlID(Crossfader, CC)
	LeftPlayControl   = ControlID(LeftPlay, NOTE)
	RightPlayControl  = ControlID(RightPlay, NOTE)
)

var controlNames = map[string]Control{
	"crossfader": CrossfaderControl,
	"left_play":  LeftPlayControl,
	"right_play": RightPlayControl,
}

func ControlID(component, eventType uint8) Control {
	return Control(eventType)<<8 | Control(component)
}

// ControlFromEvent builds Control from event status and component bytes, channel bits are ignored.
func ControlFromEvent(e Event) Control {
	return ControlID(e.Component(), e.Type())
}

func (c Control) EventType() uint8 {
	return uint8(c >> 8)
}

func (c Control) Component() uint8 {
	return uint8(c)
}

func (c Control) String() string {
	for name, control := range controlNames {
		if control == c {
			return name
		}
	}
	switch c.EventType() {
	case NOTE:
		return fmt.Sprintf("note:%d", c.Component())
	case CC:
		return fmt.Sprintf("cc:%d", c.Component())
	default:
		return fmt.Sprintf("0x%04x", uint16(c))
	}
}

// ParseControl accepts "note:N", "cc:N" and named controls ("crossfader", "left_play", "right_play").
func ParseControl(s string) (Control, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := controlNames[s]; ok {
		return c, nil
	}

	kind, number, found := strings.Cut(s, ":")
	if !found {
		return 0, fmt.Errorf("unsupported control format: \"%s\"", s)
	}

	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return 0, fmt.Errorf("parsing control number failed: %w", err)
	}
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("control number outside of 0-127 range: %d", n)
	}

	switch kind {
	case "note":
		return ControlID(uint8(n), NOTE), nil
	case "cc":
		return ControlID(uint8(n), CC), nil
	default:
		return 0, fmt.Errorf("unsupported control type: \"%s\"", kind)
	}
}
