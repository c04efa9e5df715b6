package ecu

import (
	"fmt"

	"github.com/brutella/can"
)

// VSMState is the inverter's vehicle state machine state.
type VSMState uint8

const (
	VSMStart             VSMState = 0
	VSMPrechargeInit     VSMState = 1
	VSMPrechargeActive   VSMState = 2
	VSMPrechargeComplete VSMState = 3
	VSMWait              VSMState = 4
	VSMReady             VSMState = 5
	VSMMotorRunning      VSMState = 6
	VSMFault             VSMState = 7
	VSMShutdownInProcess VSMState = 14
	VSMRecyclePower      VSMState = 15

	// VSMUnknown is never sent by the inverter; it stands in for any code we
	// do not recognise.
	VSMUnknown VSMState = 0xFF
)

func vsmStateFromByte(b byte) (VSMState, error) {
	switch s := VSMState(b); s {
	case VSMStart, VSMPrechargeInit, VSMPrechargeActive, VSMPrechargeComplete,
		VSMWait, VSMReady, VSMMotorRunning, VSMFault, VSMShutdownInProcess, VSMRecyclePower:
		return s, nil
	}
	return VSMUnknown, fmt.Errorf("%w: %d", ErrUnknownVSMState, b)
}

func (s VSMState) String() string {
	switch s {
	case VSMStart:
		return "start"
	case VSMPrechargeInit:
		return "precharge-init"
	case VSMPrechargeActive:
		return "precharge-active"
	case VSMPrechargeComplete:
		return "precharge-complete"
	case VSMWait:
		return "wait"
	case VSMReady:
		return "ready"
	case VSMMotorRunning:
		return "motor-running"
	case VSMFault:
		return "fault"
	case VSMShutdownInProcess:
		return "shutdown-in-process"
	case VSMRecyclePower:
		return "recycle-power"
	default:
		return "unknown"
	}
}

// operational reports whether torque may be commanded in this state.
func (s VSMState) operational() bool {
	return s == VSMWait || s == VSMReady || s == VSMMotorRunning
}

// InternalStates layout
const (
	vsmStateOffset    = 0
	relayStateOffset  = 3
	enableOffset      = 6
	internalStatesLen = 7

	prechargeRelayMask  = 0b01
	mainRelayMask       = 0b10
	inverterEnabledMask = 0b01
	inverterLockoutMask = 0b10
)

type InverterStatus struct {
	VSM            VSMState
	PrechargeRelay bool
	MainRelay      bool
	Enabled        bool
	Locked         bool
}

// lockedInverterStatus is the conservative status assumed before the first
// valid frame and after an undecodable one.
var lockedInverterStatus = InverterStatus{VSM: VSMUnknown, Locked: true}

// TractiveActive is true only when the motor is electrically safe to command.
func (s InverterStatus) TractiveActive() bool {
	return s.VSM.operational() && s.PrechargeRelay && s.MainRelay && !s.Locked
}

// DecodeInverterStatus parses an InternalStates frame. On error the returned
// status is locked and not tractive.
func DecodeInverterStatus(frame can.Frame) (InverterStatus, error) {
	if frame.Length < internalStatesLen {
		return lockedInverterStatus, fmt.Errorf("frame 0x%03X: %w (len=%d, want %d)",
			frame.ID, ErrShortFrame, frame.Length, internalStatesLen)
	}

	vsm, err := vsmStateFromByte(frame.Data[vsmStateOffset])
	relays := frame.Data[relayStateOffset]
	enable := frame.Data[enableOffset]

	status := InverterStatus{
		VSM:            vsm,
		PrechargeRelay: relays&prechargeRelayMask != 0,
		MainRelay:      relays&mainRelayMask != 0,
		Enabled:        enable&inverterEnabledMask != 0,
		Locked:         enable&inverterLockoutMask != 0,
	}
	if err != nil {
		status.Locked = true
	}
	return status, err
}

// InternalStatesFrame encodes a status the way the inverter reports it.
func InternalStatesFrame(s InverterStatus) can.Frame {
	data := make([]byte, 8)
	data[vsmStateOffset] = byte(s.VSM)
	if s.PrechargeRelay {
		data[relayStateOffset] |= prechargeRelayMask
	}
	if s.MainRelay {
		data[relayStateOffset] |= mainRelayMask
	}
	if s.Enabled {
		data[enableOffset] |= inverterEnabledMask
	}
	if s.Locked {
		data[enableOffset] |= inverterLockoutMask
	}
	return packFrame(InternalStatesFrameID, data)
}
