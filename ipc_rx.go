package main

import (
	"context"
	"errors"
	"sync"

	"vcu-service/canbus"

	"github.com/brutella/can"
	"github.com/go-redis/redis/v8"
)

const (
	ipcInjectMotorChannel = "vcu:inject:motor"
	ipcInjectDataChannel  = "vcu:inject:data"
)

// frameInjector accepts frames from outside the bus, e.g. canbus.Loopback.
type frameInjector interface {
	Inject(frame can.Frame) bool
}

// IPCRx feeds frames published on Redis into loopback buses so a bench
// simulator can drive the controller without hardware. Payloads use the
// candump "ID#DATA" notation, e.g. "103#01".
type IPCRx struct {
	log    *LeveledLogger
	redis  *redis.Client
	buses  map[string]frameInjector
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	subscription *redis.PubSub
}

func NewIPCRx(logger *LeveledLogger, redis *redis.Client, motor, data frameInjector) *IPCRx {
	ctx, cancel := context.WithCancel(context.Background())

	rx := &IPCRx{
		log:   logger,
		redis: redis,
		buses: map[string]frameInjector{
			ipcInjectMotorChannel: motor,
			ipcInjectDataChannel:  data,
		},
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	rx.subscription = rx.redis.Subscribe(rx.ctx, ipcInjectMotorChannel, ipcInjectDataChannel)
	go rx.handleSubscription()

	return rx
}

func (rx *IPCRx) handleSubscription() {
	defer close(rx.done)
	rx.log.Info("Starting frame injection handler")

	for {
		msg, err := rx.subscription.Receive(rx.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			rx.log.Error("Injection subscription error: %v", err)
			continue
		}

		switch m := msg.(type) {
		case *redis.Message:
			rx.handleMessage(m.Channel, m.Payload)
		case *redis.Subscription:
			rx.log.Debug("Injection subscription event: %s %s", m.Channel, m.Kind)
		}
	}
}

func (rx *IPCRx) handleMessage(channel, payload string) {
	bus, ok := rx.buses[channel]
	if !ok || bus == nil {
		return
	}

	frame, err := canbus.ParseFrame(payload)
	if err != nil {
		rx.log.Warn("Dropping injected frame %q: %v", payload, err)
		return
	}
	if !bus.Inject(frame) {
		rx.log.Warn("Dropping injected frame 0x%03X: bus queue full", frame.ID)
		return
	}
	rx.log.DebugCAN("INJ", frame.ID, frame.Data[:], frame.Length)
}

func (rx *IPCRx) Destroy() {
	rx.mu.Lock()
	defer rx.mu.Unlock()

	if rx.cancel != nil {
		rx.cancel()
	}
	if rx.subscription != nil {
		rx.subscription.Close()
	}
	<-rx.done
}
