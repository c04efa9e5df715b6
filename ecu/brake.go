package ecu

import "time"

const (
	// BrakeActiveThreshold is the pressure at which the brake counts as pressed.
	BrakeActiveThreshold = 200
	// BrakeDisconnectedThreshold is the pull-down band a floating sensor reads.
	BrakeDisconnectedThreshold = 50
	// BrakeDebounce is how long the pressure must stay in the pull-down band
	// before the sensor is declared disconnected.
	BrakeDebounce = 100 * time.Millisecond
)

type BrakeErrorState int

const (
	BrakeNormal BrakeErrorState = iota
	BrakeDebouncing
	BrakeCritical
)

func (s BrakeErrorState) String() string {
	switch s {
	case BrakeDebouncing:
		return "debouncing"
	case BrakeCritical:
		return "critical"
	default:
		return "normal"
	}
}

// BrakeMonitor classifies brake pressure and detects a disconnected sensor.
type BrakeMonitor struct {
	clock      Clock
	value      int32
	active     bool
	errorState BrakeErrorState
	errorStart time.Duration
}

func NewBrakeMonitor(clock Clock) *BrakeMonitor {
	return &BrakeMonitor{clock: clock}
}

func (b *BrakeMonitor) UpdateValue(raw int32) {
	b.value = raw
	b.active = raw >= BrakeActiveThreshold

	if raw > BrakeDisconnectedThreshold {
		b.errorState = BrakeNormal
		b.errorStart = 0
		return
	}

	now := b.clock.Now()
	switch b.errorState {
	case BrakeNormal:
		b.errorState = BrakeDebouncing
		b.errorStart = now
	case BrakeDebouncing:
		if now-b.errorStart >= BrakeDebounce {
			b.errorState = BrakeCritical
		}
	}
}

func (b *BrakeMonitor) Active() bool {
	return b.active
}

func (b *BrakeMonitor) Value() int32 {
	return b.value
}

func (b *BrakeMonitor) ErrorState() BrakeErrorState {
	return b.errorState
}
