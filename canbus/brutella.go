package canbus

import (
	"fmt"

	"vcu-service/ecu"

	"github.com/brutella/can"
)

// BrutellaChannel is a SocketCAN channel backed by github.com/brutella/can.
type BrutellaChannel struct {
	name   string
	bus    *can.Bus
	rx     *frameQueue
	logger ecu.Logger
	done   chan struct{}
}

// OpenBrutella opens the named interface (e.g. can0) and starts publishing
// received frames into the receive queue.
func OpenBrutella(iface string, logger ecu.Logger) (*BrutellaChannel, error) {
	bus, err := can.NewBusForInterfaceWithName(iface)
	if err != nil {
		return nil, fmt.Errorf("failed to open CAN interface %s: %w", iface, err)
	}
	return newBrutellaChannel(iface, bus, logger), nil
}

func newBrutellaChannel(name string, bus *can.Bus, logger ecu.Logger) *BrutellaChannel {
	ch := &BrutellaChannel{
		name:   name,
		bus:    bus,
		rx:     newFrameQueue(RxQueueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	bus.SubscribeFunc(func(frame can.Frame) {
		if !ch.rx.push(frame) {
			ch.logger.Debug("%s: receive queue full, dropped frame 0x%03X", ch.name, frame.ID)
		}
	})

	go func() {
		defer close(ch.done)
		if err := bus.ConnectAndPublish(); err != nil {
			ch.logger.Error("%s: CAN bus publish error: %v", ch.name, err)
		}
	}()
	return ch
}

func (c *BrutellaChannel) Send(frame can.Frame) error {
	return c.bus.Publish(frame)
}

func (c *BrutellaChannel) TryReceive() (can.Frame, bool) {
	return c.rx.pop()
}

func (c *BrutellaChannel) Dropped() uint64 {
	return c.rx.Dropped()
}

func (c *BrutellaChannel) Close() error {
	err := c.bus.Disconnect()
	<-c.done
	return err
}
