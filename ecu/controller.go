package ecu

import (
	"github.com/brutella/can"
)

const (
	// Brake-torque override hysteresis
	BTOOnThreshold  = 300
	BTOOffThreshold = 120
)

// Controller is the vehicle control unit. It owns all drive state and is
// driven by calling Run once per control cycle from a single goroutine.
type Controller struct {
	cfg      Config
	logger   Logger
	motor    Channel
	data     Channel
	clock    Clock
	outputs  Outputs
	reporter Reporter

	router   *Router
	throttle *ThrottleValidator
	brake    *BrakeMonitor
	health   *HealthMonitor

	healthCheck *Interval
	unlock      *Interval

	driving         bool
	startFault      bool
	startSwitch     bool
	prevStartSwitch bool
	driveMode       DriveMode
	btOverride      bool
	brakeLight      bool
	lastThrottleErr int

	inverter InverterStatus
}

// ControllerDeps are the collaborators a Controller drives. Outputs, Reporter
// and Logger may be nil.
type ControllerDeps struct {
	Motor    Channel
	Data     Channel
	Clock    Clock
	Outputs  Outputs
	Reporter Reporter
	Logger   Logger
}

func NewController(cfg Config, deps ControllerDeps) *Controller {
	c := &Controller{
		cfg:         cfg,
		logger:      deps.Logger,
		motor:       deps.Motor,
		data:        deps.Data,
		clock:       deps.Clock,
		outputs:     deps.Outputs,
		reporter:    deps.Reporter,
		throttle:    NewThrottleValidator(),
		healthCheck: NewInterval(cfg.HealthCheckInterval),
		unlock:      NewInterval(cfg.UnlockInterval),
		driveMode:   DriveModeFullBeans,
		inverter:    lockedInverterStatus,
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	if c.clock == nil {
		c.clock = NewSystemClock()
	}
	if c.outputs == nil {
		c.outputs = noOutputs{}
	}
	if c.reporter == nil {
		c.reporter = noReporter{}
	}

	c.brake = NewBrakeMonitor(c.clock)
	c.health = NewHealthMonitor(c.data, c.clock, c.logger, cfg.HealthCheckWindow)
	c.health.Other = c.route
	c.throttle.SetMaxTorque(c.driveMode.MaxTorque())

	c.router = NewRouter(Handlers{
		Throttle1:      func(f can.Frame) { c.updateThrottle(1, f) },
		Throttle2:      func(f can.Frame) { c.updateThrottle(2, f) },
		BrakePressure:  c.updateBrake,
		StartSwitch:    c.updateStartSwitch,
		ThrottleMin:    c.calibrateThrottleMin,
		ThrottleMax:    c.calibrateThrottleMax,
		DriveMode:      c.updateDriveMode,
		InverterStatus: c.updateInverter,
	})
	return c
}

// Boot waits for the data collectors to come online and runs the first
// health check.
func (c *Controller) Boot() {
	c.setOutput(HornPin, false)
	c.setOutput(BrakeLightPin, false)
	c.clock.Sleep(c.cfg.BootDelay)
	c.updateHealth()
	c.logger.Info("Controller booted: health=%s, mode=%s", c.health.Health(), c.driveMode)
}

// Run executes one control cycle.
func (c *Controller) Run() {
	if !c.driving {
		c.attemptStartup()
	}

	// Each bus is polled on its own so a frame on one never starves the other.
	if frame, ok := c.motor.TryReceive(); ok {
		c.route(frame)
	}
	if frame, ok := c.data.TryReceive(); ok {
		c.route(frame)
	}

	if c.healthCheck.Due(c.clock.Now()) {
		c.updateHealth()
	}
	if c.driving && c.healthUnrecoverable() {
		c.logger.Warn("Health %s is unrecoverable, shutting down", c.health.Health())
		c.shutdown()
	}
}

// Stop leaves the car safe when the service exits: drive state off and the
// inverter disabled.
func (c *Controller) Stop() {
	if c.driving {
		c.shutdown()
		return
	}
	c.disableInverter()
}

func (c *Controller) route(frame can.Frame) {
	DebugCANFrame(c.logger, "RX", frame)
	c.router.Route(frame)
}

func (c *Controller) updateHealth() {
	c.healthCheck.Mark(c.clock.Now())
	before := c.health.Health()
	if after := c.health.RequestAndWait(); after != before {
		c.reporter.Health(after)
	}
}

func (c *Controller) healthUnrecoverable() bool {
	if !c.cfg.ShutdownOnCriticalHealth {
		return false
	}
	h := c.health.Health()
	return h == HealthCritical || h == HealthUnknown
}

// startConditionsMet excludes the start switch and the latched start fault.
func (c *Controller) startConditionsMet() bool {
	if c.cfg.RequireBrakeForStart && !c.brake.Active() {
		return false
	}
	if c.inverter.Locked || c.inverter.VSM == VSMFault {
		return false
	}
	return !c.healthUnrecoverable()
}

func (c *Controller) attemptStartup() {
	if c.inverter.Locked {
		now := c.clock.Now()
		if c.unlock.Due(now) {
			c.unlock.Mark(now)
			c.logger.Debug("Inverter locked out, sending disable to unlock")
			c.disableInverter()
		}
		return
	}
	if c.startSwitch && !c.startFault && c.startConditionsMet() {
		c.startup()
	}
}

func (c *Controller) startup() {
	c.logger.Info("Start conditions met, sounding horn")
	c.setOutput(HornPin, true)
	c.clock.Sleep(c.cfg.HornDuration)
	c.setOutput(HornPin, false)

	c.driving = true
	c.btOverride = false
	c.send(c.data, DriveStateFrame(true))
	c.reporter.DriveState(true)
	c.enableInverter()
	c.logger.Info("Drive state ON")
}

func (c *Controller) shutdown() {
	c.driving = false
	c.send(c.data, DriveStateFrame(false))
	c.reporter.DriveState(false)
	c.disableInverter()
	c.logger.Info("Drive state OFF")
}

func (c *Controller) enableInverter() {
	c.send(c.motor, EnableInverterFrame())
}

func (c *Controller) disableInverter() {
	c.send(c.motor, DisableInverterFrame())
}

func (c *Controller) throwError(code FaultCode) {
	c.logger.Warn("Fault %d: %s", code, GetFaultDescription(code))
	c.send(c.data, FaultFrame(code))
	c.reporter.Fault(code)
}

func (c *Controller) send(bus Channel, frame can.Frame) {
	DebugCANFrame(c.logger, "TX", frame)
	if err := bus.Send(frame); err != nil {
		c.logger.Warn("Failed to send frame 0x%03X: %v", frame.ID, err)
	}
}

func (c *Controller) setOutput(pin Pin, high bool) {
	if err := c.outputs.SetOutput(pin, high); err != nil {
		c.logger.Warn("Failed to set output %d: %v", pin, err)
	}
}

func (c *Controller) updateThrottle(channel int, frame can.Frame) {
	raw, err := decodeInt32(frame)
	if err != nil {
		c.logger.Warn("Dropping throttle frame: %v", err)
		return
	}
	c.throttle.SetChannel(channel, raw)
	if !c.throttle.Ready() {
		return
	}

	code := c.throttle.CheckError()
	if code != ThrottleErrorNone {
		// Pending flags stay set, so the next frame re-evaluates.
		if code != c.lastThrottleErr {
			c.throwError(throttleFault(code))
		}
		c.lastThrottleErr = code
		c.commandZeroTorque()
		return
	}
	c.lastThrottleErr = ThrottleErrorNone
	c.motorCommand(c.throttle.CalculateTorque())
}

func (c *Controller) commandZeroTorque() {
	if c.inverter.TractiveActive() {
		c.send(c.motor, EnableInverterFrame())
	}
}

func (c *Controller) motorCommand(torque int) {
	tractive := c.inverter.TractiveActive()
	if tractive && !c.inverter.Enabled {
		c.enableInverter()
	}
	if c.driving {
		c.updateBTOverride(torque)
	}

	switch {
	case tractive && c.driving && !c.btOverride:
		c.logger.Debug("Commanding torque %d", torque)
		c.send(c.motor, ControlCommandFrame(torque, DirectionForward, true))
	case tractive:
		// Zero torque with the enable bit keeps the motor quiescent.
		c.send(c.motor, EnableInverterFrame())
	}
}

func (c *Controller) updateBTOverride(torque int) {
	brakeActive := c.brake.Active()
	if c.btOverride && brakeActive && torque <= BTOOffThreshold {
		c.btOverride = false
		c.logger.Info("Brake-torque override released (torque=%d)", torque)
	}
	if !c.btOverride && !brakeActive && torque >= BTOOnThreshold {
		c.btOverride = true
		c.logger.Warn("Brake-torque override engaged (torque=%d)", torque)
	}
}

func (c *Controller) updateBrake(frame can.Frame) {
	raw, err := decodeInt32(frame)
	if err != nil {
		c.logger.Warn("Dropping brake frame: %v", err)
		return
	}
	before := c.brake.ErrorState()
	c.brake.UpdateValue(raw)

	if active := c.brake.Active(); active != c.brakeLight {
		c.brakeLight = active
		c.setOutput(BrakeLightPin, active)
	}

	if c.brake.ErrorState() == BrakeCritical && before != BrakeCritical {
		c.throwError(FaultBrakeDisconnected)
		if c.driving {
			c.btOverride = true
		}
	}
}

func (c *Controller) updateStartSwitch(frame can.Frame) {
	on, err := decodeFlag(frame)
	if err != nil {
		c.logger.Warn("Dropping start switch frame: %v", err)
		return
	}
	c.prevStartSwitch = c.startSwitch
	c.startSwitch = on

	switch {
	case !on && c.driving:
		c.logger.Info("Start switch released while driving")
		c.shutdown()
	case !on && c.prevStartSwitch && c.startFault:
		c.startFault = false
		c.logger.Info("Start fault cleared")
	case on && !c.prevStartSwitch && !c.driving && !c.startFault && !c.startConditionsMet():
		c.startFault = true
		c.throwError(FaultStartFault)
	}
}

func (c *Controller) calibrateThrottleMin(frame can.Frame) {
	v1, v2, err := decodeCalibration(frame)
	if err != nil {
		c.logger.Warn("Dropping throttle min calibration: %v", err)
		return
	}
	c.throttle.SetCalibrationMin(v1, v2)
	c.logger.Info("Throttle min calibration set: %d, %d", v1, v2)
}

func (c *Controller) calibrateThrottleMax(frame can.Frame) {
	v1, v2, err := decodeCalibration(frame)
	if err != nil {
		c.logger.Warn("Dropping throttle max calibration: %v", err)
		return
	}
	c.throttle.SetCalibrationMax(v1, v2)
	c.logger.Info("Throttle max calibration set: %d, %d", v1, v2)
}

func (c *Controller) updateDriveMode(frame can.Frame) {
	if frame.Length < 1 {
		c.logger.Warn("Dropping drive mode frame: %v", ErrShortFrame)
		return
	}
	mode, err := driveModeFromByte(frame.Data[0])
	if err != nil {
		c.logger.Warn("Dropping drive mode frame: %v", err)
		return
	}
	if mode == c.driveMode {
		return
	}

	c.send(c.motor, MaxSpeedFrame())
	c.driveMode = mode
	c.throttle.SetMaxTorque(mode.MaxTorque())
	c.reporter.DriveMode(mode)
	c.logger.Info("Drive mode %s, max torque %d", mode, mode.MaxTorque())
}

func (c *Controller) updateInverter(frame can.Frame) {
	status, err := DecodeInverterStatus(frame)
	if err != nil {
		c.logger.Warn("Inverter status decode failed, assuming locked: %v", err)
	}
	prev := c.inverter
	c.inverter = status
	if status != prev {
		c.logger.Debug("Inverter: vsm=%s precharge=%v main=%v enabled=%v locked=%v tractive=%v",
			status.VSM, status.PrechargeRelay, status.MainRelay, status.Enabled, status.Locked, status.TractiveActive())
		c.reporter.Inverter(status)
	}
	if status.Locked && !prev.Locked {
		c.unlock.Reset()
	}

	if c.driving && status.VSM == VSMFault && prev.VSM != VSMFault {
		c.logger.Error("Inverter reported fault while driving")
		c.shutdown()
		// Restart only after the driver cycles the start switch.
		c.startFault = true
	}
}

func (c *Controller) Driving() bool { return c.driving }

func (c *Controller) StartFault() bool { return c.startFault }

func (c *Controller) DriveMode() DriveMode { return c.driveMode }

func (c *Controller) BrakeTorqueOverride() bool { return c.btOverride }

func (c *Controller) Health() Health { return c.health.Health() }

func (c *Controller) Inverter() InverterStatus { return c.inverter }

func (c *Controller) TractiveActive() bool { return c.inverter.TractiveActive() }

func (c *Controller) Throttle() *ThrottleValidator { return c.throttle }

func (c *Controller) Brake() *BrakeMonitor { return c.brake }
