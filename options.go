package main

import (
	"fmt"
	"time"

	"vcu-service/ecu"
)

type LogLevel int

const (
	LogLevelNone  LogLevel = 0
	LogLevelError LogLevel = 1
	LogLevelWarn  LogLevel = 2
	LogLevelInfo  LogLevel = 3
	LogLevelDebug LogLevel = 4
)

type CANDriver string

const (
	CANDriverBrutella CANDriver = "brutella"
	CANDriverEinride  CANDriver = "einride"
	CANDriverLoopback CANDriver = "loopback"
)

func parseCANDriver(s string) (CANDriver, error) {
	switch d := CANDriver(s); d {
	case CANDriverBrutella, CANDriverEinride, CANDriverLoopback:
		return d, nil
	}
	return "", fmt.Errorf("invalid CAN driver %q (must be brutella, einride or loopback)", s)
}

// Options are the validated runtime settings of the service.
type Options struct {
	LogLevel        LogLevel
	RedisEnabled    bool
	RedisServerAddr string
	RedisServerPort uint16
	CANDriver       CANDriver
	MotorDevice     string
	DataDevice      string
	CyclePeriod     time.Duration
	Control         ecu.Config
}
