package main

import (
	"context"
	"fmt"
	"sync"

	"vcu-service/ecu"

	"github.com/go-redis/redis/v8"
)

const ipcStateKey = "vcu"

type IPCTx struct {
	log   *LeveledLogger
	redis *redis.Client
	mu    sync.Mutex
	ctx   context.Context
}

func NewIPCTx(logger *LeveledLogger, redis *redis.Client) *IPCTx {
	return &IPCTx{
		log:   logger,
		redis: redis,
		ctx:   context.Background(),
	}
}

func (tx *IPCTx) Destroy() {}

func onOff(b bool) string {
	return map[bool]string{true: "on", false: "off"}[b]
}

// set writes fields into the state hash and notifies subscribers of topic.
func (tx *IPCTx) set(topic string, values map[string]interface{}) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	pipe := tx.redis.Pipeline()
	pipe.HSet(tx.ctx, ipcStateKey, values)
	pipe.Publish(tx.ctx, ipcStateKey, topic)

	if _, err := pipe.Exec(tx.ctx); err != nil {
		return fmt.Errorf("failed to send %s: %w", topic, err)
	}
	return nil
}

func (tx *IPCTx) SendDriveState(on bool) error {
	return tx.set("drive-state", map[string]interface{}{
		"drive-state": onOff(on),
	})
}

func (tx *IPCTx) SendDriveMode(mode ecu.DriveMode) error {
	return tx.set("drive-mode", map[string]interface{}{
		"drive-mode": mode.String(),
		"max-torque": mode.MaxTorque(),
	})
}

func (tx *IPCTx) SendHealth(health ecu.Health) error {
	return tx.set("health", map[string]interface{}{
		"health": health.String(),
	})
}

func (tx *IPCTx) SendInverter(status ecu.InverterStatus) error {
	return tx.set("inverter", map[string]interface{}{
		"inverter:vsm":       status.VSM.String(),
		"inverter:precharge": onOff(status.PrechargeRelay),
		"inverter:main":      onOff(status.MainRelay),
		"inverter:enabled":   onOff(status.Enabled),
		"inverter:lockout":   onOff(status.Locked),
		"tractive":           onOff(status.TractiveActive()),
	})
}

func (tx *IPCTx) SendOutput(pin ecu.Pin, high bool) error {
	return tx.set(pin.String(), map[string]interface{}{
		pin.String(): onOff(high),
	})
}

// SendDefaults writes the power-on state so readers never see stale values
// from a previous run.
func (tx *IPCTx) SendDefaults() error {
	return tx.set("reset", map[string]interface{}{
		"drive-state":        onOff(false),
		"drive-mode":         ecu.DriveModeFullBeans.String(),
		"max-torque":         ecu.DriveModeFullBeans.MaxTorque(),
		"health":             ecu.HealthHealthy.String(),
		"inverter:vsm":       ecu.VSMUnknown.String(),
		"inverter:precharge": onOff(false),
		"inverter:main":      onOff(false),
		"inverter:enabled":   onOff(false),
		"inverter:lockout":   onOff(true),
		"tractive":           onOff(false),
		"horn":               onOff(false),
		"brake-light":        onOff(false),
	})
}
