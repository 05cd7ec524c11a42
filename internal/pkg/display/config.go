package display

import (
	"fmt"

	"github.com/d2r2/go-hd44780"
)

type ScreenConfig struct {
	Enabled     bool
	LcdType     hd44780.LcdType
	Bus         int
	Address     uint8
	UpdateRate  int
	ExitMessage [4]string
}

var lcdTypes = map[string]hd44780.LcdType{
	"16x2": hd44780.LCD_16x2,
	"20x4": hd44780.LCD_20x4,
}

// ParseLcdType converts "COLSxROWS" notation into supported LCD type.
func ParseLcdType(s string) (hd44780.LcdType, error) {
	t, ok := lcdTypes[s]
	if !ok {
		return 0, fmt.Errorf("unsupported lcd type: \"%s\"", s)
	}
	return t, nil
}

func (s *ScreenConfig) HaveExitMessage() bool {
	for _, v := range s.ExitMessage {
		if len(v) > 0 {
			return true
		}
	}
	return false
}
