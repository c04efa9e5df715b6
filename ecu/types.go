package ecu

import "fmt"

const (
	// Data bus frame IDs
	HealthCheckRequestFrameID    = 0x010
	HealthFrontResponseFrameID   = 0x011
	HealthRearResponseFrameID    = 0x012
	HealthThermalResponseFrameID = 0x013
	DriveStateFrameID            = 0x020
	FaultFrameID                 = 0x021
	Throttle1PositionFrameID     = 0x100
	Throttle2PositionFrameID     = 0x101
	BrakePressureFrameID         = 0x102
	StartSwitchFrameID           = 0x103
	ThrottleMinFrameID           = 0x104
	ThrottleMaxFrameID           = 0x105
	DriveModeFrameID             = 0x106

	// Motor bus frame IDs (inverter)
	InternalStatesFrameID   = 0x0AA
	ControlCommandFrameID   = 0x0C0
	ParameterCommandFrameID = 0x0C1
)

// Health is ordered from worst to best so that aggregation is a minimum.
type Health uint8

const (
	HealthUnknown Health = iota
	HealthCritical
	HealthUnresponsive
	HealthDegraded
	HealthHealthy
)

// healthFromCode fails closed: anything unrecognised is Unknown.
func healthFromCode(code byte) Health {
	if code > byte(HealthHealthy) {
		return HealthUnknown
	}
	return Health(code)
}

func (h Health) String() string {
	switch h {
	case HealthCritical:
		return "critical"
	case HealthUnresponsive:
		return "unresponsive"
	case HealthDegraded:
		return "degraded"
	case HealthHealthy:
		return "healthy"
	default:
		return "unknown"
	}
}

type DriveMode uint8

const (
	DriveModeFullBeans DriveMode = iota
	DriveModeEndurance
	DriveModeSkidPad
)

const (
	FullBeansMaxTorque = 3100
	EnduranceMaxTorque = 1500
	SkidPadMaxTorque   = 1500
)

func driveModeFromByte(b byte) (DriveMode, error) {
	if b > byte(DriveModeSkidPad) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownDriveMode, b)
	}
	return DriveMode(b), nil
}

// MaxTorque returns the torque ceiling applied to the throttle in this mode.
func (m DriveMode) MaxTorque() int {
	switch m {
	case DriveModeEndurance:
		return EnduranceMaxTorque
	case DriveModeSkidPad:
		return SkidPadMaxTorque
	default:
		return FullBeansMaxTorque
	}
}

func (m DriveMode) String() string {
	switch m {
	case DriveModeFullBeans:
		return "full-beans"
	case DriveModeEndurance:
		return "endurance"
	case DriveModeSkidPad:
		return "skid-pad"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

type Direction uint8

const (
	DirectionReverse Direction = iota
	DirectionForward
)

// Pin identifies a digital output on the controller board.
type Pin uint8

const (
	HornPin       Pin = 15
	BrakeLightPin Pin = 16
)

func (p Pin) String() string {
	switch p {
	case HornPin:
		return "horn"
	case BrakeLightPin:
		return "brake-light"
	default:
		return fmt.Sprintf("pin%d", uint8(p))
	}
}

// Helper function to convert bool to byte
func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
