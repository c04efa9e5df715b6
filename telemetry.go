package main

import (
	"sync"
	"sync/atomic"

	"vcu-service/ecu"
)

const TelemetryQueueSize = 64

// telemetrySink is the blocking side of telemetry, normally Redis.
type telemetrySink interface {
	SendDriveState(on bool) error
	SendDriveMode(mode ecu.DriveMode) error
	SendHealth(health ecu.Health) error
	SendInverter(status ecu.InverterStatus) error
	SendOutput(pin ecu.Pin, high bool) error
	ReportFault(fault ecu.FaultCode) error
	ClearFaults() error
}

type redisSink struct {
	*IPCTx
	*Diag
}

type telemetryEvent struct {
	name string
	send func() error
}

// Telemetry implements ecu.Reporter and ecu.Outputs on top of a sink. Calls
// from the control loop only enqueue; a worker goroutine does the I/O. When
// the queue is full events are dropped.
type Telemetry struct {
	log     *LeveledLogger
	sink    telemetrySink
	events  chan telemetryEvent
	dropped atomic.Uint64
	wg      sync.WaitGroup
	once    sync.Once
}

func NewTelemetry(logger *LeveledLogger, sink telemetrySink, size int) *Telemetry {
	t := &Telemetry{
		log:    logger,
		sink:   sink,
		events: make(chan telemetryEvent, size),
	}
	t.wg.Add(1)
	go t.run()
	return t
}

func (t *Telemetry) run() {
	defer t.wg.Done()
	for ev := range t.events {
		if err := ev.send(); err != nil {
			t.log.Warn("Telemetry %s: %v", ev.name, err)
		}
	}
}

func (t *Telemetry) enqueue(name string, send func() error) {
	select {
	case t.events <- telemetryEvent{name: name, send: send}:
	default:
		if t.dropped.Add(1)%TelemetryQueueSize == 1 {
			t.log.Warn("Telemetry queue full, dropped %d events", t.dropped.Load())
		}
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (t *Telemetry) Dropped() uint64 {
	return t.dropped.Load()
}

// Close flushes queued events and stops the worker. The Telemetry must not be
// used afterwards.
func (t *Telemetry) Close() {
	t.once.Do(func() {
		close(t.events)
		t.wg.Wait()
	})
}

func (t *Telemetry) DriveState(on bool) {
	t.enqueue("drive-state", func() error {
		if err := t.sink.SendDriveState(on); err != nil {
			return err
		}
		if on {
			return t.sink.ClearFaults()
		}
		return nil
	})
}

func (t *Telemetry) DriveMode(mode ecu.DriveMode) {
	t.enqueue("drive-mode", func() error { return t.sink.SendDriveMode(mode) })
}

func (t *Telemetry) Health(health ecu.Health) {
	t.enqueue("health", func() error { return t.sink.SendHealth(health) })
}

func (t *Telemetry) Inverter(status ecu.InverterStatus) {
	t.enqueue("inverter", func() error { return t.sink.SendInverter(status) })
}

func (t *Telemetry) Fault(code ecu.FaultCode) {
	t.enqueue("fault", func() error { return t.sink.ReportFault(code) })
}

// SetOutput mirrors a digital output into the state hash for the board's
// GPIO service.
func (t *Telemetry) SetOutput(pin ecu.Pin, high bool) error {
	t.enqueue(pin.String(), func() error { return t.sink.SendOutput(pin, high) })
	return nil
}

var (
	_ ecu.Reporter = (*Telemetry)(nil)
	_ ecu.Outputs  = (*Telemetry)(nil)
)
