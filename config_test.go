package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"vcu-service/ecu"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vcu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	opts, err := cfg.Options()
	require.NoError(t, err)
	require.Equal(t, ecu.DefaultConfig(), opts.Control)
	require.Equal(t, CANDriverBrutella, opts.CANDriver)
	require.Equal(t, time.Millisecond, opts.CyclePeriod)
}

func TestLoadConfig_OverridesOnlyGivenFields(t *testing.T) {
	path := writeConfig(t, `
log_level: 4
can:
  driver: einride
  data: vcan1
redis:
  enabled: false
control:
  require_brake_for_start: false
  health_check_interval: 5s
  horn_duration: 1500ms
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	want := DefaultConfig()
	want.LogLevel = 4
	want.CAN.Driver = "einride"
	want.CAN.Data = "vcan1"
	want.Redis.Enabled = false
	want.Control.RequireBrakeForStart = false
	want.Control.HealthCheckInterval = 5 * time.Second
	want.Control.HornDuration = 1500 * time.Millisecond
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "control: [not, a, map]"))
	require.Error(t, err)
}

func TestConfigOptions_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = 7 }},
		{"driver", func(c *Config) { c.CAN.Driver = "slcan" }},
		{"missing device", func(c *Config) { c.CAN.Motor = "" }},
		{"redis port", func(c *Config) { c.Redis.Port = 70000 }},
		{"zero window", func(c *Config) { c.Control.HealthCheckWindow = 0 }},
		{"negative boot delay", func(c *Config) { c.Control.BootDelay = -time.Millisecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := cfg.Options()
			require.Error(t, err)
		})
	}
}

func TestConfigOptions_LoopbackNeedsNoDevices(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CAN = CANConfig{Driver: "loopback"}
	opts, err := cfg.Options()
	require.NoError(t, err)
	require.Equal(t, CANDriverLoopback, opts.CANDriver)
}
