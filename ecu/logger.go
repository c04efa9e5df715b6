package ecu

import "github.com/brutella/can"

// Logger interface for ECU logging
type Logger interface {
	Printf(format string, v ...interface{})
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	DebugCAN(direction string, id uint32, data []byte, length uint8)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{})          {}
func (nopLogger) Debug(string, ...interface{})           {}
func (nopLogger) Info(string, ...interface{})            {}
func (nopLogger) Warn(string, ...interface{})            {}
func (nopLogger) Error(string, ...interface{})           {}
func (nopLogger) DebugCAN(string, uint32, []byte, uint8) {}

// DebugCANFrame formats and logs a CAN frame
func DebugCANFrame(logger Logger, direction string, frame can.Frame) {
	if logger != nil {
		logger.DebugCAN(direction, frame.ID, frame.Data[:], frame.Length)
	}
}
