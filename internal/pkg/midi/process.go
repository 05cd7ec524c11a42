package midi

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gethiox/ohmrgb/internal/pkg/logger"
	"github.com/gethiox/ohmrgb/internal/pkg/midi/driver"
	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Traffic counts events passing through the controller port.
type Traffic struct {
	Received uint64
	Sent     uint64
}

func (t *Traffic) Load() Traffic {
	return Traffic{
		Received: atomic.LoadUint64(&t.Received),
		Sent:     atomic.LoadUint64(&t.Sent),
	}
}

// ProcessMidiEvents opens both sides of the port, forwards inbound events into midiEventsIn
// and writes midiEventsOut into the port until ctx is done.
// Outbound events still queued when ctx is done are flushed before the port is closed.
func ProcessMidiEvents(ctx context.Context, wg *sync.WaitGroup, port driver.Port,
	midiEventsOut <-chan Event, midiEventsIn chan<- Event,
	traffic *Traffic,
) error {
	err := port.Output.Open()
	if err != nil {
		return fmt.Errorf("opening output failed: %w", err)
	}
	err = port.Input.Open()
	if err != nil {
		_ = port.Output.Close()
		return fmt.Errorf("opening input failed: %w", err)
	}

	portName := zap.String("port_name", port.Name())

	wg.Add(1)
	go func() {
		defer wg.Done()
		portOut := port.Output.SendChannel()

	root:
		for {
			select {
			case <-ctx.Done():
				break root
			case ev := <-midiEventsOut:
				portOut <- ev
				atomic.AddUint64(&traffic.Sent, 1)
			}
		}

		for {
			select {
			case ev := <-midiEventsOut:
				portOut <- ev
				atomic.AddUint64(&traffic.Sent, 1)
				continue
			default:
			}
			break
		}

		err := port.Output.Close()
		if err != nil {
			log.Info(fmt.Sprintf("closing output failed: %v", err), portName, logger.Warning)
		}
		log.Info("Processing output midi events stopped", portName, logger.Debug)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		portIn := port.Input.ReceiveChannel()

	root:
		for {
			select {
			case <-ctx.Done():
				break root
			case ev, ok := <-portIn:
				if !ok {
					break root
				}
				atomic.AddUint64(&traffic.Received, 1)

				msg := gomidi.Message(ev)
				log.Info(fmt.Sprintf("input event: %s (%#v)", msg.String(), ev), portName, logger.Debug)

				select {
				case midiEventsIn <- ev:
				case <-ctx.Done():
					break root
				}
			}
		}

		// Close releases a listener blocked on a full channel
		err := port.Input.Close()
		if err != nil {
			log.Info(fmt.Sprintf("closing input failed: %v", err), portName, logger.Warning)
		}
		log.Info("Processing input midi events stopped", portName, logger.Debug)
	}()

	return nil
}
