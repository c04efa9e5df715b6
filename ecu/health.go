package ecu

import (
	"time"

	"github.com/brutella/can"
)

const healthPollInterval = time.Millisecond

// HealthMonitor polls the data collectors and keeps the worst reported health.
type HealthMonitor struct {
	bus    Channel
	clock  Clock
	logger Logger
	window time.Duration

	health Health

	// Other receives frames that arrive during the window but are not health
	// responses, so they are not lost.
	Other HandlerFunc
}

func NewHealthMonitor(bus Channel, clock Clock, logger Logger, window time.Duration) *HealthMonitor {
	return &HealthMonitor{
		bus:    bus,
		clock:  clock,
		logger: logger,
		window: window,
		health: HealthHealthy,
	}
}

// RequestAndWait broadcasts a health-check request and collects responses until
// the window closes or every collector has answered. Without any response the
// previous health is kept.
func (m *HealthMonitor) RequestAndWait() Health {
	request := HealthCheckRequestFrame()
	DebugCANFrame(m.logger, "TX", request)
	if err := m.bus.Send(request); err != nil {
		m.logger.Warn("Failed to send health check request: %v", err)
	}

	start := m.clock.Now()

	worst := HealthHealthy
	responded := make(map[uint32]bool, HealthResponders)

	for m.clock.Now()-start <= m.window && len(responded) < HealthResponders {
		frame, ok := m.bus.TryReceive()
		if !ok {
			m.clock.Sleep(healthPollInterval)
			continue
		}
		if !IsHealthResponse(frame.ID) {
			if m.Other != nil {
				m.Other(frame)
			}
			continue
		}
		DebugCANFrame(m.logger, "RX", frame)
		responded[frame.ID] = true
		if h := worstHealth(frame); h < worst {
			worst = h
		}
	}

	if len(responded) == 0 {
		m.logger.Warn("No health check responses within %v, keeping %s", m.window, m.health)
		return m.health
	}
	if worst != m.health {
		m.logger.Info("Health changed: %s -> %s (%d responders)", m.health, worst, len(responded))
	}
	m.health = worst
	return m.health
}

// worstHealth reduces one response, an array of per-sensor health codes.
func worstHealth(frame can.Frame) Health {
	worst := HealthHealthy
	for i := uint8(0); i < frame.Length && i < 8; i++ {
		if h := healthFromCode(frame.Data[i]); h < worst {
			worst = h
		}
	}
	return worst
}

func (m *HealthMonitor) Health() Health {
	return m.health
}
