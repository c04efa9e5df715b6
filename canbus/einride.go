package canbus

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"vcu-service/ecu"

	"github.com/brutella/can"
	einride "go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

const (
	sendTimeout = 10 * time.Millisecond

	effFlag = 0x80000000
	rtrFlag = 0x40000000
	effMask = 0x1FFFFFFF
	sffMask = 0x7FF
)

type frameSource interface {
	Receive() bool
	Frame() einride.Frame
	Err() error
}

type frameTransmitter interface {
	TransmitFrame(ctx context.Context, frame einride.Frame) error
}

// EinrideChannel is a SocketCAN channel backed by go.einride.tech/can.
type EinrideChannel struct {
	name   string
	conn   io.Closer
	tx     frameTransmitter
	rx     *frameQueue
	logger ecu.Logger
	closed atomic.Bool
	done   chan struct{}
}

func DialEinride(ctx context.Context, iface string, logger ecu.Logger) (*EinrideChannel, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return newEinrideChannel(iface, conn, socketcan.NewTransmitter(conn), socketcan.NewReceiver(conn), logger), nil
}

func newEinrideChannel(name string, conn io.Closer, tx frameTransmitter, src frameSource, logger ecu.Logger) *EinrideChannel {
	ch := &EinrideChannel{
		name:   name,
		conn:   conn,
		tx:     tx,
		rx:     newFrameQueue(RxQueueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	go ch.pump(src)
	return ch
}

// pump runs until the receiver fails, which happens when the socket is closed.
func (c *EinrideChannel) pump(src frameSource) {
	defer close(c.done)
	for src.Receive() {
		frame := fromEinride(src.Frame())
		if !c.rx.push(frame) {
			c.logger.Debug("%s: receive queue full, dropped frame 0x%03X", c.name, frame.ID)
		}
	}
	if err := src.Err(); err != nil && !c.closed.Load() {
		c.logger.Error("%s: receive error: %v", c.name, err)
	}
}

func (c *EinrideChannel) Send(frame can.Frame) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return c.tx.TransmitFrame(ctx, toEinride(frame))
}

func (c *EinrideChannel) TryReceive() (can.Frame, bool) {
	return c.rx.pop()
}

func (c *EinrideChannel) Dropped() uint64 {
	return c.rx.Dropped()
}

func (c *EinrideChannel) Close() error {
	c.closed.Store(true)
	err := c.conn.Close()
	<-c.done
	return err
}

// ParseFrame parses a frame in candump notation, e.g. "103#01" or
// "18FF50E5#0102".
func ParseFrame(s string) (can.Frame, error) {
	var frame einride.Frame
	if err := frame.UnmarshalString(s); err != nil {
		return can.Frame{}, fmt.Errorf("parse frame %q: %w", s, err)
	}
	return fromEinride(frame), nil
}

func toEinride(f can.Frame) einride.Frame {
	out := einride.Frame{
		Length:     f.Length,
		IsRemote:   f.ID&rtrFlag != 0,
		IsExtended: f.ID&effFlag != 0 || f.ID&effMask > sffMask,
	}
	if out.IsExtended {
		out.ID = f.ID & effMask
	} else {
		out.ID = f.ID & sffMask
	}
	copy(out.Data[:], f.Data[:])
	return out
}

func fromEinride(f einride.Frame) can.Frame {
	out := can.Frame{
		ID:     f.ID,
		Length: f.Length,
	}
	if f.IsExtended {
		out.ID |= effFlag
	}
	if f.IsRemote {
		out.ID |= rtrFlag
	}
	copy(out.Data[:], f.Data[:])
	return out
}
