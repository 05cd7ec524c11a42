package main

import (
	"testing"
	"unicode/utf8"

	"github.com/gethiox/ohmrgb/internal/pkg/display"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/grid"
	"github.com/stretchr/testify/assert"
)

func TestColumnBars(t *testing.T) {
	var values [grid.Buttons]uint8
	assert.Equal(t, "        ", columnBars(values))

	// column 0 holds MIDI 0-7, column 7 holds MIDI 56-63
	for id := 0; id < 8; id++ {
		values[id] = 1
	}
	values[56] = 3
	values[60] = 3
	assert.Equal(t, "█      ▂", columnBars(values))
}

func TestEventGraph(t *testing.T) {
	var graph [20]uint64
	assert.Equal(t, "                    ", eventGraph(graph, 0))

	graph[0] = 16
	graph[1] = 8
	s := []rune(eventGraph(graph, 0))
	assert.Equal(t, 20, len(s))
	assert.Equal(t, '█', s[0])
	assert.Equal(t, '▄', s[1])

	// pointer marks the oldest sample
	s = []rune(eventGraph(graph, 1))
	assert.Equal(t, '▄', s[0])
	assert.Equal(t, '█', s[19])
}

func TestExitMessage(t *testing.T) {
	buffer := exitMessage(display.ScreenConfig{}, 42)
	for _, line := range buffer {
		assert.Equal(t, 20, utf8.RuneCountInString(line), line)
	}
	assert.Contains(t, buffer[3], "(frames: 42)")

	buffer = exitMessage(display.ScreenConfig{ExitMessage: [4]string{"bye", "", "", "a very long line exceeding lcd"}}, 0)
	assert.Equal(t, "bye                 ", buffer[0])
	assert.Equal(t, "a very long line exc", buffer[3])
}
