package alsa

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gethiox/ohmrgb/internal/pkg/midi/driver"
	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2/drivers"
)

type dummyPort struct {
	name string
}

func (d *dummyPort) Name() string                  { return d.name }
func (d *dummyPort) Open() error                   { return nil }
func (d *dummyPort) Close() error                  { return nil }
func (d *dummyPort) ReceiveChannel() <-chan []byte { return nil }
func (d *dummyPort) SendChannel() chan<- []byte    { return nil }

func TestFindPort(t *testing.T) {
	ports := []driver.Port{
		{Input: &dummyPort{name: "Midi Through 14:0"}, Output: &dummyPort{name: "Midi Through 14:0"}},
		{Input: &dummyPort{name: "OhmRGB 24:0"}}, // input only, skipped
		{Input: &dummyPort{name: "Livid OhmRGB 28:0"}, Output: &dummyPort{name: "Livid OhmRGB 28:0"}},
	}

	p, err := findPort(ports, "ohmrgb")
	assert.Equal(t, nil, err)
	assert.Equal(t, "Livid OhmRGB 28:0", p.Name())

	_, err = findPort(ports, "launchpad")
	assert.True(t, errors.Is(err, ErrPortNotFound))

	_, err = findPort(nil, "ohmrgb")
	assert.True(t, errors.Is(err, ErrPortNotFound))
}

type listeningPort struct {
	onMsg func(msg []byte, milliseconds int32)
}

func (p *listeningPort) Open() error             { return nil }
func (p *listeningPort) Close() error            { return nil }
func (p *listeningPort) IsOpen() bool            { return true }
func (p *listeningPort) Number() int             { return 0 }
func (p *listeningPort) String() string          { return "OhmRGB 24:0" }
func (p *listeningPort) Underlying() interface{} { return nil }
func (p *listeningPort) Listen(onMsg func(msg []byte, milliseconds int32), config drivers.ListenConfig) (func(), error) {
	p.onMsg = onMsg
	return func() {}, nil
}

func TestInputCloseWithBlockedListener(t *testing.T) {
	port := &listeningPort{}
	in := NewMIDIInPortFromDriver(port)
	assert.Equal(t, nil, in.Open())

	msg := []byte{0x90, 5, 127}
	for i := 0; i < cap(in.(*MIDIInPortFromDriver).c); i++ {
		port.onMsg(msg, 0)
	}

	wg := sync.WaitGroup{}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			port.onMsg(msg, 0) // channel is full, blocks until Close
		}()
	}
	time.Sleep(time.Millisecond * 20)

	assert.NotPanics(t, func() {
		assert.Equal(t, nil, in.Close())
	})
	wg.Wait()

	assert.NotPanics(t, func() {
		port.onMsg(msg, 0)
		assert.Equal(t, nil, in.Close())
	})

	var received int
	for range in.ReceiveChannel() {
		received++
	}
	assert.Equal(t, 16, received)
}
