package main

import (
	"context"
	"fmt"
	"sync"

	"vcu-service/ecu"

	"github.com/go-redis/redis/v8"
)

const (
	diagGroupName           = "vcu"
	diagFaultSetKey         = "vcu:fault"
	diagEventStream         = "events:faults"
	diagEventStreamMaxLen   = 1000
	diagNotificationChannel = "vcu"
)

// Diag mirrors faults into Redis. Fault frames are edge events, so a fault
// stays in the set until the next successful startup clears it.
type Diag struct {
	log         *LeveledLogger
	redis       *redis.Client
	mu          sync.Mutex
	faultStates map[ecu.FaultCode]bool
	ctx         context.Context
}

func NewDiag(logger *LeveledLogger, redis *redis.Client) *Diag {
	return &Diag{
		log:         logger,
		redis:       redis,
		faultStates: make(map[ecu.FaultCode]bool),
		ctx:         context.Background(),
	}
}

func (d *Diag) Destroy() {}

// ReportFault records a fault event. Repeated reports of a present fault only
// append to the event stream.
func (d *Diag) ReportFault(fault ecu.FaultCode) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	config, ok := ecu.GetFaultConfig(fault)
	if !ok {
		return fmt.Errorf("unknown fault code: %d", fault)
	}

	if !d.faultStates[fault] {
		d.log.Warn("Fault set: code=%d, description=%s", fault, config.Description)
	}
	d.faultStates[fault] = true

	pipe := d.redis.Pipeline()
	pipe.SAdd(d.ctx, diagFaultSetKey, uint32(fault))
	pipe.XAdd(d.ctx, &redis.XAddArgs{
		Stream: diagEventStream,
		MaxLen: diagEventStreamMaxLen,
		Values: map[string]interface{}{
			"group":       diagGroupName,
			"code":        uint32(fault),
			"description": config.Description,
			"severity":    config.Severity.String(),
		},
	})
	pipe.Publish(d.ctx, diagNotificationChannel, "fault")

	if _, err := pipe.Exec(d.ctx); err != nil {
		return fmt.Errorf("failed to report fault present: %w", err)
	}
	return nil
}

// ClearFaults removes every present fault from the set, logging a negative
// code event for each.
func (d *Diag) ClearFaults() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.faultStates) == 0 {
		return nil
	}

	pipe := d.redis.Pipeline()
	for fault := range d.faultStates {
		d.log.Info("Fault cleared: code=%d, description=%s", fault, ecu.GetFaultDescription(fault))
		pipe.SRem(d.ctx, diagFaultSetKey, uint32(fault))
		pipe.XAdd(d.ctx, &redis.XAddArgs{
			Stream: diagEventStream,
			MaxLen: diagEventStreamMaxLen,
			Values: map[string]interface{}{
				"group": diagGroupName,
				"code":  -int32(fault),
			},
		})
	}
	pipe.Publish(d.ctx, diagNotificationChannel, "fault")
	d.faultStates = make(map[ecu.FaultCode]bool)

	if _, err := pipe.Exec(d.ctx); err != nil {
		return fmt.Errorf("failed to report faults cleared: %w", err)
	}
	return nil
}

// ResetFaults drops any fault set left by a previous run.
func (d *Diag) ResetFaults() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.faultStates = make(map[ecu.FaultCode]bool)
	if err := d.redis.Del(d.ctx, diagFaultSetKey).Err(); err != nil {
		return fmt.Errorf("failed to reset fault set: %w", err)
	}
	return nil
}
