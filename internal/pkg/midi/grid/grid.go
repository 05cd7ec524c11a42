// Package grid converts between the three addressing schemes of the OhmRGB 8x8 button grid:
// MIDI button id (column-major note number), physical (row, column) position and the index
// of the button inside the "set all LEDs" sysex bitmap.
//
// Both lookup directions are built from the device matrices below, they are not derived from a formula.
package grid

import "fmt"

const (
	Size    = 8
	Buttons = Size * Size
)

// midiMatrix holds MIDI button ids as printed on the physical grid (row by row, top to bottom).
var midiMatrix = [Size][Size]uint8{
	{0, 8, 16, 24, 32, 40, 48, 56},
	{1, 9, 17, 25, 33, 41, 49, 57},
	{2, 10, 18, 26, 34, 42, 50, 58},
	{3, 11, 19, 27, 35, 43, 51, 59},
	{4, 12, 20, 28, 36, 44, 52, 60},
	{5, 13, 21, 29, 37, 45, 53, 61},
	{6, 14, 22, 30, 38, 46, 54, 62},
	{7, 15, 23, 31, 39, 47, 55, 63},
}

// sysexMatrix holds sysex bitmap indexes for the same physical positions.
var sysexMatrix = [Size][Size]uint8{
	{56, 48, 40, 32, 24, 16, 8, 0},
	{60, 52, 44, 36, 28, 20, 12, 4},
	{57, 49, 41, 33, 25, 17, 9, 1},
	{61, 53, 45, 37, 29, 21, 13, 5},
	{58, 50, 42, 34, 26, 18, 10, 2},
	{62, 54, 46, 38, 30, 22, 14, 6},
	{59, 51, 43, 35, 27, 19, 11, 3},
	{63, 55, 47, 39, 31, 23, 15, 7},
}

var (
	midiToPosition  [Buttons]Position // filled up with init()
	midiToSysex     [Buttons]uint8
	sysexToMidi     [Buttons]uint8
	positionToSysex [Size][Size]uint8
)

func init() {
	var seenMidi, seenSysex [Buttons]bool

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			id, index := midiMatrix[row][col], sysexMatrix[row][col]
			if id >= Buttons || index >= Buttons || seenMidi[id] || seenSysex[index] {
				panic(fmt.Sprintf("grid: broken lookup table at row %d, column %d", row, col))
			}
			seenMidi[id], seenSysex[index] = true, true

			midiToPosition[id] = Position{Row: row, Column: col}
			midiToSysex[id] = index
			sysexToMidi[index] = id
			positionToSysex[row][col] = index
		}
	}
}

type Position struct {
	Row, Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.Row, p.Column)
}

func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < Size && p.Column >= 0 && p.Column < Size
}

// IsGridButton reports whether given note number belongs to the 8x8 grid.
func IsGridButton(id uint8) bool {
	return id < Buttons
}

func mustButton(id uint8) {
	if id >= Buttons {
		panic(fmt.Sprintf("grid: MIDI button %d is not a grid button", id))
	}
}

// PositionOf returns physical position of a grid button. Panics for ids outside 0-63.
func PositionOf(id uint8) Position {
	mustButton(id)
	return midiToPosition[id]
}

// ButtonAt returns MIDI button id for given physical position. Panics for positions outside the grid.
func ButtonAt(p Position) uint8 {
	if !p.Valid() {
		panic(fmt.Sprintf("grid: position %s is outside of the grid", p))
	}
	return midiMatrix[p.Row][p.Column]
}

// SysexIndex returns bitmap index of a grid button. Panics for ids outside 0-63.
func SysexIndex(id uint8) uint8 {
	mustButton(id)
	return midiToSysex[id]
}

// ButtonFromSysex returns MIDI button id stored at given bitmap index. Panics for indexes outside 0-63.
func ButtonFromSysex(index uint8) uint8 {
	if index >= Buttons {
		panic(fmt.Sprintf("grid: sysex index %d is outside of the bitmap", index))
	}
	return sysexToMidi[index]
}

// SysexIndexAt is a shortcut for SysexIndex(ButtonAt(p)).
func SysexIndexAt(p Position) uint8 {
	if !p.Valid() {
		panic(fmt.Sprintf("grid: position %s is outside of the grid", p))
	}
	return positionToSysex[p.Row][p.Column]
}
