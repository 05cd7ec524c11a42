package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/ohmrgb/internal/pkg/display"
	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/grid"
	"github.com/logrusorgru/aurora"
)

// eventHistory keeps most recent inbound events for the grid view.
type eventHistory struct {
	mutex  sync.Mutex
	size   int
	events []string
}

func newEventHistory(size int) *eventHistory {
	return &eventHistory{size: size}
}

func (h *eventHistory) Add(ev midi.Event) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.events = append(h.events, fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), ev))
	if len(h.events) > h.size {
		h.events = h.events[len(h.events)-h.size:]
	}
}

// Last returns recorded events, newest first.
func (h *eventHistory) Last() []string {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	var out = make([]string, 0, len(h.events))
	for i := len(h.events) - 1; i >= 0; i-- {
		out = append(out, h.events[i])
	}
	return out
}

func recordEvents(events <-chan midi.Event, h *eventHistory) {
	for ev := range events {
		h.Add(ev)
	}
}

func lightingCell(au aurora.Aurora, palette device.Palette, value uint8) string {
	if value == 0 {
		return au.Gray(6, "··").String()
	}
	return au.Index(device.Xterm256(palette.Color(value, 1)), "██").String()
}

// renderGrid draws lighting of the 8x8 grid, row 0 on top.
func renderGrid(au aurora.Aurora, palette device.Palette, s device.Snapshot) []string {
	var lines = make([]string, 0, grid.Size)
	for row := 0; row < grid.Size; row++ {
		var cells = make([]string, 0, grid.Size)
		for col := 0; col < grid.Size; col++ {
			id := midi.ControlID(grid.ButtonAt(grid.Position{Row: row, Column: col}), midi.NOTE)
			cells = append(cells, lightingCell(au, palette, s.Lighting(id)))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return lines
}

func describeState(au aurora.Aurora, palette device.Palette, dev *device.Device) []string {
	state := dev.State()
	s := dev.Snapshot()

	last := "-"
	if state.LastEvent != nil {
		last = state.LastControl.String()
	}

	return []string{
		fmt.Sprintf("preset: %s", colorForString(au, state.Preset).String()),
		fmt.Sprintf("events: %d, dispatched: %d, misses: %d", state.Events, state.Dispatched, state.Misses),
		fmt.Sprintf("frames: %d, masked writes: %d", state.Frames, state.Masked),
		fmt.Sprintf("last control: %s", last),
		fmt.Sprintf("play: %s %s",
			lightingCell(au, palette, s.Lighting(midi.LeftPlayControl)),
			lightingCell(au, palette, s.Lighting(midi.RightPlayControl)),
		),
		fmt.Sprintf("log entries dropped: %d", logger.DroppedCount()),
	}
}

// padRight pads s with spaces up to width visible characters.
func padRight(s string, width int) string {
	l := rawStringLen(s)
	if l >= width {
		return s
	}
	return s + strings.Repeat(" ", width-l)
}

func gridView(g *gocui.Gui, colors bool, dev *device.Device, history *eventHistory) {
	view, err := g.View(ViewGrid)
	if err != nil {
		panic(err)
	}

	au := aurora.NewAurora(colors)

	for {
		palette := device.DefaultPalette().WithOverrides(dev.Preset().Palette)
		gridLines := renderGrid(au, palette, dev.Snapshot())
		stateLines := describeState(au, palette, dev)
		events := history.Last()

		x, y := view.Size()

		var viewData []string
		for i := 0; i < y; i++ {
			var line string
			if i < len(gridLines) {
				line = gridLines[i]
			} else {
				line = strings.Repeat(" ", grid.Size*3-1)
			}
			line += "   "
			if i < len(stateLines) {
				line += padRight(stateLines[i], 50)
			}
			if i < len(events) {
				line += "  " + au.Gray(14, events[i]).String()
			}

			freeSpace := x - rawStringLen(line)
			if freeSpace < 0 {
				freeSpace = 0
			}
			viewData = append(viewData, line+strings.Repeat(" ", freeSpace))
		}

		g.Update(func(*gocui.Gui) error {
			view.Rewind()
			for _, line := range viewData {
				view.Write([]byte(line))
				view.Write([]byte{'\n'})
			}
			return nil
		})
		time.Sleep(time.Millisecond * 100)
	}
}

func logView(g *gocui.Gui, color bool, logLevel, bufSize int) {
	feeder, err := NewFeeder(g, ViewLogs, logLevel, aurora.NewAurora(color))
	if err != nil {
		panic(err)
	}

	buf := newLogBuffer(bufSize)

	var newMessage = make(chan bool, 1)

	go func() {
		for msg := range logger.Messages {
			buf.WriteMessage(msg)
			select {
			case newMessage <- true:
			default:
			}
		}
		close(newMessage)
	}()

	var lastX, lastY int
	ticker := time.NewTicker(time.Millisecond * 100)
	defer ticker.Stop()

	for {
		select {
		case _, ok := <-newMessage:
			if !ok {
				return
			}
		case <-ticker.C:
			x, y := feeder.view.Size()
			if x == lastX && y == lastY {
				continue
			}
			lastX, lastY = x, y
		}

		g.Update(func(*gocui.Gui) error {
			feeder.view.Rewind()
			_, y := feeder.view.Size()
			for _, msg := range buf.ReadLastMessages(y) {
				feeder.Write(msg)
			}
			return nil
		})
	}
}

func lcdView(g *gocui.Gui, dd <-chan display.DisplayData) {
	view, err := g.View(ViewLCD)
	if err != nil {
		panic(err)
	}

	for data := range dd {
		lines := data.Lines
		g.Update(func(*gocui.Gui) error {
			view.Rewind()
			for _, s := range lines {
				view.Write([]byte(s))
				view.Write([]byte{'\n'})
			}
			return nil
		})
	}
}
