package ecu

import (
	"time"

	"github.com/brutella/can"
)

// Channel is one logical CAN bus as seen by the control loop.
type Channel interface {
	// Send is best effort; a failed write is not retried.
	Send(frame can.Frame) error

	// TryReceive returns the next pending frame without blocking.
	TryReceive() (can.Frame, bool)
}

// Clock provides monotonic time since start and a blocking delay.
type Clock interface {
	Now() time.Duration
	Sleep(d time.Duration)
}

// Outputs drives the controller's digital outputs (horn, brake light).
type Outputs interface {
	SetOutput(pin Pin, high bool) error
}

// Reporter receives state changes for telemetry. Implementations must not block.
type Reporter interface {
	DriveState(on bool)
	DriveMode(mode DriveMode)
	Health(health Health)
	Inverter(status InverterStatus)
	Fault(code FaultCode)
}

// Config contains configuration for the Controller
type Config struct {
	// RequireBrakeForStart makes a pressed brake a start precondition. Disable
	// only for bench bring-up.
	RequireBrakeForStart bool

	// ShutdownOnCriticalHealth shuts the car down (and blocks startup) when the
	// aggregate health is Critical or Unknown.
	ShutdownOnCriticalHealth bool

	HealthCheckInterval time.Duration
	HealthCheckWindow   time.Duration
	HornDuration        time.Duration
	BootDelay           time.Duration
	UnlockInterval      time.Duration
}

// DefaultConfig returns the race configuration.
func DefaultConfig() Config {
	return Config{
		RequireBrakeForStart:     true,
		ShutdownOnCriticalHealth: false,
		HealthCheckInterval:      3 * time.Second,
		HealthCheckWindow:        150 * time.Millisecond,
		HornDuration:             2 * time.Second,
		BootDelay:                150 * time.Millisecond,
		UnlockInterval:           100 * time.Millisecond,
	}
}

type systemClock struct {
	start time.Time
}

// NewSystemClock returns a Clock backed by the process monotonic clock.
func NewSystemClock() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Now() time.Duration {
	return time.Since(c.start)
}

func (c *systemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

type noOutputs struct{}

func (noOutputs) SetOutput(Pin, bool) error { return nil }

type noReporter struct{}

func (noReporter) DriveState(bool)         {}
func (noReporter) DriveMode(DriveMode)     {}
func (noReporter) Health(Health)           {}
func (noReporter) Inverter(InverterStatus) {}
func (noReporter) Fault(FaultCode)         {}
