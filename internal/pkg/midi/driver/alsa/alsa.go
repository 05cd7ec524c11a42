package alsa

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gethiox/ohmrgb/internal/pkg/midi/driver"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

var ErrPortNotFound = errors.New("midi port not found")

type MIDIInPortFromDriver struct {
	c        chan []byte
	port     drivers.In
	stopFunc func()

	// listener callbacks hold read lock while sending, Close takes write lock before closing c
	mutex     sync.RWMutex
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
}

func (in *MIDIInPortFromDriver) Name() string {
	return in.port.String()
}

func (in *MIDIInPortFromDriver) Open() error {
	err := in.port.Open()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}

	stopFn, err := in.port.Listen(in.receive, drivers.ListenConfig{
		SysEx:           true,
		SysExBufferSize: 0,
		OnErr:           func(err error) {},
	})

	if err != nil {
		return fmt.Errorf("failed to listen on device: %w", err)
	}
	in.stopFunc = stopFn
	return nil
}

func (in *MIDIInPortFromDriver) receive(msg []byte, milliseconds int32) {
	in.mutex.RLock()
	defer in.mutex.RUnlock()
	if in.closed {
		return
	}

	// driver may reuse the buffer
	ev := make([]byte, len(msg))
	copy(ev, msg)

	select {
	case in.c <- ev:
	case <-in.done:
	}
}

// Close stops the listener and closes receive channel, events arriving afterwards are discarded.
func (in *MIDIInPortFromDriver) Close() error {
	var err error
	in.closeOnce.Do(func() {
		close(in.done) // releases callbacks blocked on a full channel
		if in.stopFunc != nil {
			in.stopFunc()
		}

		in.mutex.Lock()
		in.closed = true
		close(in.c)
		in.mutex.Unlock()

		err = in.port.Close()
	})
	return err
}

func (in *MIDIInPortFromDriver) ReceiveChannel() <-chan []byte {
	return in.c
}

func NewMIDIInPortFromDriver(in drivers.In) driver.MIDIIn {
	return &MIDIInPortFromDriver{
		c:    make(chan []byte, 16),
		port: in,
		done: make(chan struct{}),
	}
}

type MIDIOutPortFromDriver struct {
	c    chan []byte
	port drivers.Out
	done chan struct{}
}

func (out *MIDIOutPortFromDriver) Name() string {
	return out.port.String()
}

func (out *MIDIOutPortFromDriver) Open() error {
	err := out.port.Open()
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	go func() {
		defer close(out.done)
		for event := range out.c {
			_ = out.port.Send(event)
		}
	}()
	return nil
}

// Close waits until all queued events are sent.
func (out *MIDIOutPortFromDriver) Close() error {
	close(out.c)
	<-out.done
	return out.port.Close()
}

func (out *MIDIOutPortFromDriver) SendChannel() chan<- []byte {
	return out.c
}

func NewMIDIOutPortFromDriver(out drivers.Out) driver.MIDIOut {
	return &MIDIOutPortFromDriver{
		c:    make(chan []byte, 16),
		port: out,
		done: make(chan struct{}),
	}
}

// CreatePort creates virtual input/output pair, useful when the controller is not connected
// and the host application talks to this process directly.
func CreatePort(name string) (driver.Port, error) {
	d := drivers.Get()
	if d == nil {
		return driver.Port{}, fmt.Errorf("failed to get driver")
	}

	rtmidid, ok := d.(*rtmididrv.Driver)
	if !ok {
		return driver.Port{}, fmt.Errorf("failed to convert driver")
	}

	in, err := rtmidid.OpenVirtualIn(name)
	if err != nil {
		return driver.Port{}, fmt.Errorf("failed to open virtual input: %w", err)
	}
	out, err := rtmidid.OpenVirtualOut(name)
	if err != nil {
		return driver.Port{}, fmt.Errorf("failed to open virtual output: %w", err)
	}

	return driver.Port{
		Input:  NewMIDIInPortFromDriver(in),
		Output: NewMIDIOutPortFromDriver(out),
	}, nil
}

// GetPorts pairs inputs and outputs sharing the same port number.
func GetPorts() []driver.Port {
	inPorts := gomidi.GetInPorts()
	outPorts := gomidi.GetOutPorts()

	var uniquePortNumbers = make(map[int]struct{})
	var inPortMap = make(map[int]int)
	var outPortMap = make(map[int]int)

	for i, p := range inPorts {
		inPortMap[p.Number()] = i
		uniquePortNumbers[p.Number()] = struct{}{}
	}

	for i, p := range outPorts {
		outPortMap[p.Number()] = i
		uniquePortNumbers[p.Number()] = struct{}{}
	}

	var sortedPortNumbers = make([]int, 0, len(uniquePortNumbers))
	for pNumber := range uniquePortNumbers {
		sortedPortNumbers = append(sortedPortNumbers, pNumber)
	}
	sort.Ints(sortedPortNumbers)

	var ports = make([]driver.Port, 0, len(sortedPortNumbers))
	for _, pNumber := range sortedPortNumbers {
		var port driver.Port

		if idx, ok := inPortMap[pNumber]; ok {
			port.Input = NewMIDIInPortFromDriver(inPorts[idx])
		}
		if idx, ok := outPortMap[pNumber]; ok {
			port.Output = NewMIDIOutPortFromDriver(outPorts[idx])
		}

		ports = append(ports, port)
	}

	return ports
}

// FindPort returns first duplex port containing given name.
func FindPort(name string) (driver.Port, error) {
	return findPort(GetPorts(), name)
}

func findPort(ports []driver.Port, name string) (driver.Port, error) {
	for _, p := range ports {
		if p.Duplex() && p.Matches(name) {
			return p, nil
		}
	}
	return driver.Port{}, fmt.Errorf("%w: \"%s\" (%d ports available)", ErrPortNotFound, name, len(ports))
}

// ListPorts returns descriptions of all available ports.
func ListPorts() []string {
	var names []string
	for _, p := range GetPorts() {
		names = append(names, p.String())
	}
	return names
}
