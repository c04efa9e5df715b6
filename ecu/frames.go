package ecu

import (
	"encoding/binary"
	"fmt"

	"github.com/brutella/can"
)

const (
	maxSpeedParameterAddress = 128
	maxSpeedParameterValue   = 0xFFFF
	parameterWrite           = 1
)

// packFrame creates a CAN frame with the given ID and data
func packFrame(id uint32, data []byte) can.Frame {
	var frameData [8]byte
	copy(frameData[:], data)
	return can.Frame{
		ID:     id,
		Length: uint8(len(data)),
		Flags:  0,
		Data:   frameData,
	}
}

// HealthCheckRequestFrame asks every data collector to report its sensor health.
func HealthCheckRequestFrame() can.Frame {
	return packFrame(HealthCheckRequestFrameID, nil)
}

func DriveStateFrame(on bool) can.Frame {
	return packFrame(DriveStateFrameID, []byte{boolToByte(on)})
}

func FaultFrame(code FaultCode) can.Frame {
	return packFrame(FaultFrameID, []byte{byte(code)})
}

// ControlCommandFrame builds the inverter command. Speed and torque limit are
// left zero, which the inverter treats as "use default".
func ControlCommandFrame(torque int, dir Direction, enable bool) can.Frame {
	if torque < 0 {
		torque = 0
	}
	if torque > 0xFFFF {
		torque = 0xFFFF
	}
	data := make([]byte, 8)
	binary.LittleEndian.PutUint16(data[0:2], uint16(torque))
	data[4] = byte(dir)
	data[5] = boolToByte(enable)
	return packFrame(ControlCommandFrameID, data)
}

// EnableInverterFrame is a zero-torque forward command with the enable bit set.
func EnableInverterFrame() can.Frame {
	return ControlCommandFrame(0, DirectionForward, true)
}

func DisableInverterFrame() can.Frame {
	return ControlCommandFrame(0, DirectionForward, false)
}

func ParameterWriteFrame(address uint8, value uint16) can.Frame {
	data := make([]byte, 8)
	data[0] = address
	data[2] = parameterWrite
	binary.LittleEndian.PutUint16(data[4:6], value)
	return packFrame(ParameterCommandFrameID, data)
}

// MaxSpeedFrame writes the fixed motor RPM ceiling.
func MaxSpeedFrame() can.Frame {
	return ParameterWriteFrame(maxSpeedParameterAddress, maxSpeedParameterValue)
}

// Int32Frame builds a 4 byte little-endian signed payload, the encoding used by
// sensor positions, brake pressure and calibration values.
func Int32Frame(id uint32, v int32) can.Frame {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(v))
	return packFrame(id, data)
}

func decodeInt32(frame can.Frame) (int32, error) {
	if frame.Length < 4 {
		return 0, fmt.Errorf("frame 0x%03X: %w (len=%d, want 4)", frame.ID, ErrShortFrame, frame.Length)
	}
	return int32(binary.LittleEndian.Uint32(frame.Data[0:4])), nil
}

// decodeCalibration returns one value per throttle channel. A 4 byte payload
// applies the same value to both.
func decodeCalibration(frame can.Frame) (int32, int32, error) {
	v1, err := decodeInt32(frame)
	if err != nil {
		return 0, 0, err
	}
	if frame.Length < 8 {
		return v1, v1, nil
	}
	return v1, int32(binary.LittleEndian.Uint32(frame.Data[4:8])), nil
}

func decodeFlag(frame can.Frame) (bool, error) {
	if frame.Length < 1 {
		return false, fmt.Errorf("frame 0x%03X: %w (len=0, want 1)", frame.ID, ErrShortFrame)
	}
	return frame.Data[0] == 1, nil
}
