package main

import (
	"fmt"
	"strings"

	"vcu-service/ecu"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LeveledLogger wraps a zap sugared logger with log level filtering
type LeveledLogger struct {
	logger   *zap.SugaredLogger
	logLevel LogLevel
}

// NewLeveledLogger creates a new leveled logger writing console-encoded
// lines to stderr
func NewLeveledLogger(name string, level LogLevel) (*LeveledLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.Sampling = nil
	cfg.DisableStacktrace = true

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return newLeveledLogger(z.Named(name), level), nil
}

func newLeveledLogger(z *zap.Logger, level LogLevel) *LeveledLogger {
	return &LeveledLogger{
		logger:   z.Sugar(),
		logLevel: level,
	}
}

// Debug logs a message at DEBUG level
func (l *LeveledLogger) Debug(format string, v ...interface{}) {
	if l.logLevel >= LogLevelDebug {
		l.logger.Debugf(format, v...)
	}
}

// Info logs a message at INFO level
func (l *LeveledLogger) Info(format string, v ...interface{}) {
	if l.logLevel >= LogLevelInfo {
		l.logger.Infof(format, v...)
	}
}

// Warn logs a message at WARN level
func (l *LeveledLogger) Warn(format string, v ...interface{}) {
	if l.logLevel >= LogLevelWarn {
		l.logger.Warnf(format, v...)
	}
}

// Error logs a message at ERROR level
func (l *LeveledLogger) Error(format string, v ...interface{}) {
	if l.logLevel >= LogLevelError {
		l.logger.Errorf(format, v...)
	}
}

// Printf provides compatibility with standard logger - logs at INFO level
func (l *LeveledLogger) Printf(format string, v ...interface{}) {
	l.Info(format, v...)
}

// SetLevel changes the log level
func (l *LeveledLogger) SetLevel(level LogLevel) {
	l.logLevel = level
}

// GetLevel returns the current log level
func (l *LeveledLogger) GetLevel() LogLevel {
	return l.logLevel
}

// DebugCAN logs CAN frame details at DEBUG level with formatting
func (l *LeveledLogger) DebugCAN(direction string, id uint32, data []byte, length uint8) {
	if l.logLevel >= LogLevelDebug {
		l.logger.Debugf("CAN %s: ID=0x%03X Len=%d Data=[%s]", direction, id, length, formatCANData(data, length))
	}
}

// Sync flushes buffered log entries
func (l *LeveledLogger) Sync() {
	_ = l.logger.Sync()
}

func formatCANData(data []byte, length uint8) string {
	var sb strings.Builder
	for i := uint8(0); i < length && int(i) < len(data) && i < 8; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", data[i])
	}
	return sb.String()
}

var _ ecu.Logger = (*LeveledLogger)(nil)
