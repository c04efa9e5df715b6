package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"vcu-service/ecu"

	"gopkg.in/yaml.v3"
)

// Config mirrors the YAML configuration file.
type Config struct {
	LogLevel int           `yaml:"log_level"`
	CAN      CANConfig     `yaml:"can"`
	Redis    RedisConfig   `yaml:"redis"`
	Control  ControlConfig `yaml:"control"`
}

type CANConfig struct {
	Driver string `yaml:"driver"`
	Motor  string `yaml:"motor"`
	Data   string `yaml:"data"`
}

type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Port    int    `yaml:"port"`
}

type ControlConfig struct {
	RequireBrakeForStart     bool          `yaml:"require_brake_for_start"`
	ShutdownOnCriticalHealth bool          `yaml:"shutdown_on_critical_health"`
	HealthCheckInterval      time.Duration `yaml:"health_check_interval"`
	HealthCheckWindow        time.Duration `yaml:"health_check_window"`
	HornDuration             time.Duration `yaml:"horn_duration"`
	BootDelay                time.Duration `yaml:"boot_delay"`
	UnlockInterval           time.Duration `yaml:"unlock_interval"`
	CyclePeriod              time.Duration `yaml:"cycle_period"`
}

func DefaultConfig() Config {
	ctl := ecu.DefaultConfig()
	return Config{
		LogLevel: int(LogLevelInfo),
		CAN: CANConfig{
			Driver: string(CANDriverBrutella),
			Motor:  "can0",
			Data:   "can1",
		},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    "127.0.0.1",
			Port:    6379,
		},
		Control: ControlConfig{
			RequireBrakeForStart:     ctl.RequireBrakeForStart,
			ShutdownOnCriticalHealth: ctl.ShutdownOnCriticalHealth,
			HealthCheckInterval:      ctl.HealthCheckInterval,
			HealthCheckWindow:        ctl.HealthCheckWindow,
			HornDuration:             ctl.HornDuration,
			BootDelay:                ctl.BootDelay,
			UnlockInterval:           ctl.UnlockInterval,
			CyclePeriod:              time.Millisecond,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Options validates the configuration and converts it into runtime options.
func (c Config) Options() (*Options, error) {
	if c.LogLevel < int(LogLevelNone) || c.LogLevel > int(LogLevelDebug) {
		return nil, fmt.Errorf("invalid log level %d", c.LogLevel)
	}
	driver, err := parseCANDriver(c.CAN.Driver)
	if err != nil {
		return nil, err
	}
	if driver != CANDriverLoopback && (c.CAN.Motor == "" || c.CAN.Data == "") {
		return nil, errors.New("both can.motor and can.data must be set")
	}
	if c.Redis.Enabled && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		return nil, fmt.Errorf("invalid redis port %d", c.Redis.Port)
	}

	ctl := c.Control
	for name, d := range map[string]time.Duration{
		"health_check_interval": ctl.HealthCheckInterval,
		"health_check_window":   ctl.HealthCheckWindow,
		"horn_duration":         ctl.HornDuration,
		"unlock_interval":       ctl.UnlockInterval,
		"cycle_period":          ctl.CyclePeriod,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("control.%s must be positive, got %s", name, d)
		}
	}
	if ctl.BootDelay < 0 {
		return nil, fmt.Errorf("control.boot_delay must not be negative, got %s", ctl.BootDelay)
	}

	return &Options{
		LogLevel:        LogLevel(c.LogLevel),
		RedisEnabled:    c.Redis.Enabled,
		RedisServerAddr: c.Redis.Addr,
		RedisServerPort: uint16(c.Redis.Port),
		CANDriver:       driver,
		MotorDevice:     c.CAN.Motor,
		DataDevice:      c.CAN.Data,
		CyclePeriod:     ctl.CyclePeriod,
		Control: ecu.Config{
			RequireBrakeForStart:     ctl.RequireBrakeForStart,
			ShutdownOnCriticalHealth: ctl.ShutdownOnCriticalHealth,
			HealthCheckInterval:      ctl.HealthCheckInterval,
			HealthCheckWindow:        ctl.HealthCheckWindow,
			HornDuration:             ctl.HornDuration,
			BootDelay:                ctl.BootDelay,
			UnlockInterval:           ctl.UnlockInterval,
		},
	}, nil
}
