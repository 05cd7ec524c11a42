package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gethiox/ohmrgb/internal/pkg/display"
	"github.com/gethiox/ohmrgb/internal/pkg/midi"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/device"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/grid"
)

var heart, randomChar = '❤', '░'

// columnBars renders amount of lit buttons of every grid column as a bar.
func columnBars(values [grid.Buttons]uint8) string {
	var bars = make([]rune, 0, grid.Size)
	for col := 0; col < grid.Size; col++ {
		var lit int
		for row := 0; row < grid.Size; row++ {
			if values[grid.ButtonAt(grid.Position{Row: row, Column: col})] > 0 {
				lit++
			}
		}
		bars = append(bars, display.Bar(lit))
	}
	return string(bars)
}

// eventGraph renders events per second history, oldest on the left.
func eventGraph(graph [20]uint64, pointer int) string {
	var maxGraph uint64
	for _, v := range graph {
		if v > maxGraph {
			maxGraph = v
		}
	}
	if maxGraph < 8 {
		maxGraph = 8
	}

	var out = make([]rune, 0, len(graph))
	for i := 0; i < len(graph); i++ {
		v := graph[(pointer+i)%len(graph)]
		if v == 0 {
			out = append(out, ' ')
			continue
		}
		out = append(out, display.Bar(int(float64(v)/float64(maxGraph)*7)+1))
	}
	return string(out)
}

func fit(s string) string {
	r := []rune(fmt.Sprintf("%-20s", s))
	return string(r[:20])
}

func exitMessage(cfg display.ScreenConfig, frames uint64) [4]string {
	var buffer [4]string
	if cfg.HaveExitMessage() {
		for i, msg := range cfg.ExitMessage {
			buffer[i] = fit(msg)
		}
		return buffer
	}

	buffer[0] = fit("")
	buffer[1] = " thanks for playing "
	buffer[2] = fit(fmt.Sprintf("  %s with OhmRGB %s", string(randomChar), string(heart)))
	msg := fmt.Sprintf("(frames: %d)", frames)
	buffer[3] = fit(fmt.Sprintf("%*s", (20+len(msg))/2, msg))
	return buffer
}

func GenerateDisplayData(
	ctx context.Context, wg *sync.WaitGroup, cfg display.ScreenConfig,
	dev *device.Device, portName string, traffic *midi.Traffic,
) <-chan display.DisplayData {
	data := make(chan display.DisplayData)

	rate := time.Duration(cfg.UpdateRate) * time.Second
	if rate <= 0 {
		rate = time.Second
	}

	go func() {
		defer wg.Done()
		defer close(data)

		var graph [20]uint64
		var graphPointer int
		var buffer [4]string

		lastReceived := traffic.Load().Received

	root:
		for {
			received := traffic.Load().Received
			graph[graphPointer] = received - lastReceived
			lastReceived = received
			graphPointer = (graphPointer + 1) % len(graph)

			state := dev.State()

			buffer[0] = fit(portName)
			buffer[1] = fit(fmt.Sprintf("preset: %s", state.Preset))
			buffer[2] = fit(fmt.Sprintf("%s %11d", columnBars(dev.Snapshot().Grid()), state.Frames))
			buffer[3] = eventGraph(graph, graphPointer)

			select {
			case data <- display.DisplayData{Lines: buffer}:
			case <-ctx.Done():
				break root
			}

			select {
			case <-ctx.Done():
				break root
			case <-time.After(rate):
			}
		}

		data <- display.DisplayData{
			Lines:   exitMessage(cfg, dev.State().Frames),
			LastMsg: true,
		}
	}()

	return data
}
