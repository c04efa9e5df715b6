package ecu

import "errors"

var (
	ErrShortFrame       = errors.New("frame payload too short")
	ErrUnknownDriveMode = errors.New("unknown drive mode")
	ErrUnknownVSMState  = errors.New("unknown VSM state")
)

// FaultCode is the single byte carried by a Fault frame. Values are decoded by
// the dashboard and must not be renumbered.
type FaultCode uint8

const (
	FaultNone                 FaultCode = 0
	FaultThrottleMismatch     FaultCode = 1
	FaultThrottleDisconnected FaultCode = 2
	FaultBrakeDisconnected    FaultCode = 3
	FaultStartFault           FaultCode = 4
)

type FaultSeverity int

const (
	SeverityWarning FaultSeverity = iota
	SeverityCritical
)

func (s FaultSeverity) String() string {
	if s == SeverityCritical {
		return "critical"
	}
	return "warning"
}

type FaultConfig struct {
	Code        FaultCode
	Description string
	Severity    FaultSeverity
}

var faultConfigs = map[FaultCode]FaultConfig{
	FaultThrottleMismatch:     {FaultThrottleMismatch, "Throttle sensors disagree", SeverityCritical},
	FaultThrottleDisconnected: {FaultThrottleDisconnected, "Throttle sensor disconnected", SeverityCritical},
	FaultBrakeDisconnected:    {FaultBrakeDisconnected, "Brake pressure sensor disconnected", SeverityCritical},
	FaultStartFault:           {FaultStartFault, "Start conditions not met", SeverityWarning},
}

func GetFaultConfig(fault FaultCode) (FaultConfig, bool) {
	config, ok := faultConfigs[fault]
	return config, ok
}

// GetFaultDescription returns a human-readable description of a fault code
func GetFaultDescription(code FaultCode) string {
	if config, ok := faultConfigs[code]; ok {
		return config.Description
	}
	if code == FaultNone {
		return "No fault"
	}
	return "Unknown fault"
}

// throttleFault maps a ThrottleValidator error code onto the Fault frame code.
func throttleFault(code int) FaultCode {
	switch code {
	case ThrottleErrorMismatch:
		return FaultThrottleMismatch
	case ThrottleErrorDisconnected:
		return FaultThrottleDisconnected
	default:
		return FaultNone
	}
}
