package driver

import (
	"fmt"
	"strings"
)

type MIDIPort interface {
	Name() string
	Open() error
	Close() error
}

type MIDIIn interface {
	MIDIPort
	ReceiveChannel() <-chan []byte
}

type MIDIOut interface {
	MIDIPort
	SendChannel() chan<- []byte
}

type Port struct {
	// specific port may be nil if unavailable
	Input  MIDIIn
	Output MIDIOut
}

// Name returns common part of input and output port names.
func (p *Port) Name() string {
	switch {
	case p.Input == nil && p.Output == nil:
		return ""
	case p.Input == nil:
		return p.Output.Name()
	case p.Output == nil:
		return p.Input.Name()
	}

	inName, outName := p.Input.Name(), p.Output.Name()

	var common int
	for common < len(inName) && common < len(outName) && inName[common] == outName[common] {
		common++
	}
	return strings.TrimSpace(inName[:common])
}

// Duplex reports whether port can be used both for receiving events and sending LED frames.
func (p *Port) Duplex() bool {
	return p.Input != nil && p.Output != nil
}

// Matches reports whether port name contains given substring, case-insensitive.
func (p *Port) Matches(substr string) bool {
	return strings.Contains(strings.ToLower(p.Name()), strings.ToLower(substr))
}

func (p *Port) String() string {
	switch {
	case p.Input == nil:
		return fmt.Sprintf("%s (Output only)", p.Name())
	case p.Output == nil:
		return fmt.Sprintf("%s (Input only)", p.Name())
	default:
		return fmt.Sprintf("%s (Input/Output)", p.Name())
	}
}
