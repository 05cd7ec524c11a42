package device

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/realbucksavage/openrgb-go"
)

// Palette maps 3-bit lighting values to colors.
type Palette [MaxLighting + 1]colorful.Color

var black = colorful.Color{}

// DefaultPalette follows OhmRGB LED wiring: bit 0 drives red, bit 1 green and bit 2 blue.
func DefaultPalette() Palette {
	var p Palette
	for v := uint8(0); v <= MaxLighting; v++ {
		p[v] = colorful.Color{
			R: float64(v & 1),
			G: float64(v >> 1 & 1),
			B: float64(v >> 2 & 1),
		}
	}
	return p
}

// WithOverrides returns palette with colors replaced by preset-defined ones.
func (p Palette) WithOverrides(overrides map[uint8]openrgb.Color) Palette {
	for v, c := range overrides {
		if v > MaxLighting {
			continue
		}
		p[v] = colorful.Color{
			R: float64(c.Red) / 255,
			G: float64(c.Green) / 255,
			B: float64(c.Blue) / 255,
		}
	}
	return p
}

// Color returns color of given value dimmed with brightness (0.0 - 1.0).
func (p Palette) Color(value uint8, brightness float64) colorful.Color {
	c := p[value&MaxLighting]
	if brightness >= 1 {
		return c
	}
	if brightness <= 0 {
		return black
	}
	return black.BlendRgb(c, brightness).Clamped()
}

func ToOpenRGB(c colorful.Color) openrgb.Color {
	r, g, b := c.Clamped().RGB255()
	return openrgb.Color{Red: r, Green: g, Blue: b}
}

// Xterm256 returns closest color index from the 6x6x6 cube of 256-color terminals.
func Xterm256(c colorful.Color) uint8 {
	c = c.Clamped()
	level := func(f float64) uint8 {
		return uint8(f*5 + 0.5)
	}
	return 16 + 36*level(c.R) + 6*level(c.G) + level(c.B)
}
