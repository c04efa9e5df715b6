// Package canbus adapts SocketCAN buses to the control loop's non-blocking
// Send / TryReceive channel contract.
package canbus

import (
	"errors"
	"sync/atomic"

	"github.com/brutella/can"
)

// RxQueueSize is the number of received frames buffered per channel.
const RxQueueSize = 256

var ErrQueueFull = errors.New("frame queue full")

// frameQueue hands frames from a bus goroutine to the control loop. When full
// new frames are dropped and counted.
type frameQueue struct {
	ch      chan can.Frame
	dropped atomic.Uint64
}

func newFrameQueue(size int) *frameQueue {
	return &frameQueue{ch: make(chan can.Frame, size)}
}

func (q *frameQueue) push(frame can.Frame) bool {
	select {
	case q.ch <- frame:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

func (q *frameQueue) pop() (can.Frame, bool) {
	select {
	case frame := <-q.ch:
		return frame, true
	default:
		return can.Frame{}, false
	}
}

func (q *frameQueue) Dropped() uint64 {
	return q.dropped.Load()
}
