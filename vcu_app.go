package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vcu-service/canbus"
	"vcu-service/ecu"

	"github.com/go-redis/redis/v8"
)

const (
	VCUAppRedisConnectTimeout = 5 * time.Second
	VCUAppRedisHealthInterval = 30 * time.Second
	VCUAppDropReportInterval  = 10 * time.Second
)

// busChannel is a CAN channel the application owns and must close.
type busChannel interface {
	ecu.Channel
	Dropped() uint64
	Close() error
}

type VCUApp struct {
	log        *LeveledLogger
	opts       *Options
	redis      *redis.Client
	ipcTx      *IPCTx
	ipcRx      *IPCRx
	diag       *Diag
	telemetry  *Telemetry
	motor      busChannel
	data       busChannel
	controller *ecu.Controller
	drops      dropCounts
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewVCUApp(opts *Options, logger *LeveledLogger) (*VCUApp, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &VCUApp{
		log:    logger,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.init(); err != nil {
		app.Destroy()
		return nil, err
	}
	return app, nil
}

func (app *VCUApp) init() error {
	deps := ecu.ControllerDeps{
		Clock:   ecu.NewSystemClock(),
		Outputs: &loggingOutputs{log: app.log},
		Logger:  app.log,
	}

	if app.opts.RedisEnabled {
		if err := app.connectRedis(); err != nil {
			return err
		}

		app.ipcTx = NewIPCTx(app.log, app.redis)
		app.diag = NewDiag(app.log, app.redis)
		app.writeDefaultRedisState()

		app.telemetry = NewTelemetry(app.log, redisSink{IPCTx: app.ipcTx, Diag: app.diag}, TelemetryQueueSize)
		deps.Reporter = app.telemetry
		deps.Outputs = app.telemetry
		app.log.Info("Telemetry component initialized")

		go app.redisHealthCheck()
	}

	var err error
	if app.motor, err = app.openBus(app.opts.MotorDevice); err != nil {
		return fmt.Errorf("failed to open motor bus: %w", err)
	}
	if app.data, err = app.openBus(app.opts.DataDevice); err != nil {
		return fmt.Errorf("failed to open data bus: %w", err)
	}
	deps.Motor = app.motor
	deps.Data = app.data
	app.log.Info("CAN buses initialized: driver=%s motor=%s data=%s", app.opts.CANDriver, app.opts.MotorDevice, app.opts.DataDevice)

	if app.opts.CANDriver == CANDriverLoopback && app.redis != nil {
		motor, _ := app.motor.(frameInjector)
		data, _ := app.data.(frameInjector)
		app.ipcRx = NewIPCRx(app.log, app.redis, motor, data)
		app.log.Info("Frame injection enabled on %s and %s", ipcInjectMotorChannel, ipcInjectDataChannel)
	}

	app.controller = ecu.NewController(app.opts.Control, deps)
	return nil
}

func (app *VCUApp) connectRedis() error {
	addr := fmt.Sprintf("%s:%d", app.opts.RedisServerAddr, app.opts.RedisServerPort)
	app.redis = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	connectCtx, connectCancel := context.WithTimeout(app.ctx, VCUAppRedisConnectTimeout)
	defer connectCancel()

	app.log.Info("Connecting to Redis at %s...", addr)
	if err := app.redis.Ping(connectCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.log.Info("Successfully connected to Redis")
	return nil
}

func (app *VCUApp) openBus(device string) (busChannel, error) {
	switch app.opts.CANDriver {
	case CANDriverBrutella:
		ch, err := canbus.OpenBrutella(device, app.log)
		if err != nil {
			return nil, err
		}
		return ch, nil
	case CANDriverEinride:
		ch, err := canbus.DialEinride(app.ctx, device, app.log)
		if err != nil {
			return nil, err
		}
		return ch, nil
	case CANDriverLoopback:
		return canbus.NewLoopback(canbus.RxQueueSize), nil
	default:
		return nil, fmt.Errorf("unsupported CAN driver %q", app.opts.CANDriver)
	}
}

// writeDefaultRedisState writes power-on values and drops faults from a
// previous run
func (app *VCUApp) writeDefaultRedisState() {
	if err := app.ipcTx.SendDefaults(); err != nil {
		app.log.Warn("Failed to send default state: %v", err)
	}
	if err := app.diag.ResetFaults(); err != nil {
		app.log.Warn("Failed to reset faults: %v", err)
	}
	app.log.Info("Default Redis state written")
}

// Run boots the controller and executes control cycles until ctx is done.
func (app *VCUApp) Run(ctx context.Context) error {
	app.controller.Boot()

	ticker := time.NewTicker(app.opts.CyclePeriod)
	defer ticker.Stop()
	dropTicker := time.NewTicker(VCUAppDropReportInterval)
	defer dropTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			app.controller.Stop()
			app.reportDrops()
			return nil
		case <-dropTicker.C:
			app.reportDrops()
		case <-ticker.C:
			app.controller.Run()
		}
	}
}

type dropCounts struct {
	motor     uint64
	data      uint64
	telemetry uint64
}

// reportDrops logs frames and telemetry events lost since the last report.
func (app *VCUApp) reportDrops() {
	now := dropCounts{
		motor: app.motor.Dropped(),
		data:  app.data.Dropped(),
	}
	if app.telemetry != nil {
		now.telemetry = app.telemetry.Dropped()
	}

	if d := now.motor - app.drops.motor; d > 0 {
		app.log.Warn("Motor bus receive queue dropped %d frames", d)
	}
	if d := now.data - app.drops.data; d > 0 {
		app.log.Warn("Data bus receive queue dropped %d frames", d)
	}
	if d := now.telemetry - app.drops.telemetry; d > 0 {
		app.log.Warn("Telemetry dropped %d events", d)
	}
	app.drops = now
}

func (app *VCUApp) redisHealthCheck() {
	ticker := time.NewTicker(VCUAppRedisHealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(app.ctx, 2*time.Second)
			if err := app.redis.Ping(ctx).Err(); err != nil {
				app.log.Warn("Redis health check failed: %v", err)
			}
			cancel()
		}
	}
}

func (app *VCUApp) Destroy() {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.log.Info("Shutting down VCU application...")

	if app.cancel != nil {
		app.cancel()
	}

	if app.ipcRx != nil {
		app.ipcRx.Destroy()
		app.log.Info("IPC RX shutdown complete")
	}

	for name, bus := range map[string]busChannel{"motor": app.motor, "data": app.data} {
		if bus == nil {
			continue
		}
		if err := bus.Close(); err != nil {
			app.log.Warn("Error closing %s bus: %v", name, err)
		}
	}

	if app.telemetry != nil {
		app.telemetry.Close()
		app.log.Info("Telemetry flushed")
	}

	if app.diag != nil {
		app.diag.Destroy()
	}

	if app.ipcTx != nil {
		app.ipcTx.Destroy()
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Warn("Error closing Redis connection: %v", err)
		} else {
			app.log.Info("Redis connection closed")
		}
	}

	app.log.Info("VCU application shutdown complete")
}

// loggingOutputs stands in for the GPIO service when telemetry is disabled.
type loggingOutputs struct {
	log *LeveledLogger
}

func (o *loggingOutputs) SetOutput(pin ecu.Pin, high bool) error {
	o.log.Debug("Output %s -> %s", pin, onOff(high))
	return nil
}
