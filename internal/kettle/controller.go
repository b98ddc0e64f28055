package kettle

import (
	"time"

	"codeberg.org/mutker/kettlectl/internal/config"
	"codeberg.org/mutker/kettlectl/internal/hal"
	"codeberg.org/mutker/kettlectl/internal/logger"
	"codeberg.org/mutker/kettlectl/internal/profile"
	"codeberg.org/mutker/kettlectl/internal/sched"
	"codeberg.org/mutker/kettlectl/internal/store"
)

// ControllerConfig carries everything the controller needs. All hardware
// arrives as interfaces so tests can run against fakes.
type ControllerConfig struct {
	Cfg       *config.Config
	Scheduler sched.Scheduler
	Reporter  profile.Reporter
	Store     store.Store

	Button     hal.OutputLine
	Sense      hal.InputLine
	Pair       hal.InputLine
	Led        hal.OutputLine
	TargetADC  hal.AnalogChannel
	CurrentADC hal.AnalogChannel

	// Rejoin is invoked on a long press of the pairing button.
	Rejoin func()
}

// Controller owns the periodic work: analog sampling, digital polling,
// the status LED, and inbound commands. Everything runs on the scheduler
// loop; there is exactly one goroutine touching this state.
type Controller struct {
	cfg       *config.Config
	scheduler sched.Scheduler
	reporter  profile.Reporter
	publisher *Publisher
	machine   *Machine
	store     store.Store

	sense      hal.InputLine
	pair       hal.InputLine
	led        hal.OutputLine
	targetADC  hal.AnalogChannel
	currentADC hal.AnalogChannel
	rejoin     func()

	currentCond *SignalConditioner
	targetCond  *SignalConditioner

	setpoint    int16
	lastDial    int16
	dialSeen    bool
	currentTemp int16

	ledOn          bool
	pairHeldPolls  int
	longPressFired bool
}

var _ profile.CommandSink = (*Controller)(nil)

// NewController builds the controller and seeds the heating state from
// the live sense line.
func NewController(cc ControllerConfig) *Controller {
	c := &Controller{
		cfg:         cc.Cfg,
		scheduler:   cc.Scheduler,
		reporter:    cc.Reporter,
		publisher:   NewPublisher(cc.Reporter, cc.Cfg.TempDelta, cc.Cfg.SetpointDelta),
		store:       cc.Store,
		sense:       cc.Sense,
		pair:        cc.Pair,
		led:         cc.Led,
		targetADC:   cc.TargetADC,
		currentADC:  cc.CurrentADC,
		rejoin:      cc.Rejoin,
		currentCond: NewSignalConditioner(cc.Cfg.FilterCoeff),
		targetCond:  NewSignalConditioner(cc.Cfg.FilterCoeff),
		currentTemp: profile.TempInvalid,
	}

	level, err := cc.Sense.Level()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read sense line at boot, assuming off")
		level = false
	}
	c.machine = NewMachine(cc.Scheduler, cc.Button, cc.Sense,
		millis(cc.Cfg.PulseDuration), millis(cc.Cfg.TransitionTimeout),
		level, c.publishHeating)

	return c
}

// Start restores persisted state, publishes the boot snapshot and arms
// the periodic work. Must run on the scheduler loop.
func (c *Controller) Start() {
	c.restoreSetpoint()
	c.publishHeating(c.machine.State().Heating())

	c.scheduler.Every(millis(c.cfg.SampleInterval), c.sampleTick)
	c.scheduler.Every(millis(c.cfg.PollInterval), c.pollTick)
	c.scheduler.Every(millis(c.cfg.LedBlinkInterval), c.ledTick)

	logger.Info().
		Str("state", c.machine.State().String()).
		Int("setpoint", int(c.setpoint)).
		Msg("Controller started")
}

// Machine exposes the heating state machine, mainly for tests.
func (c *Controller) Machine() *Machine {
	return c.machine
}

// Setpoint returns the active heating setpoint.
func (c *Controller) Setpoint() int16 {
	return c.setpoint
}

func (c *Controller) restoreSetpoint() {
	value, ok, err := c.store.LoadSetpoint()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load persisted setpoint")
		ok = false
	}
	if !ok {
		value = profile.DefaultSetpoint
	}

	c.setpoint = clampTemp(value)
	c.publisher.Publish(profile.HeatingSetpoint, c.setpoint)
}

// publishHeating is the state machine's publish callback. On/off and
// system mode always travel as a pair so remote views never see them
// disagree.
func (c *Controller) publishHeating(on bool) {
	var onOff, mode int16
	if on {
		onOff = 1
		mode = profile.SystemModeHeat
	} else {
		onOff = 0
		mode = profile.SystemModeOff
	}

	c.publisher.Publish(profile.OnOff, onOff)
	c.publisher.Publish(profile.SystemMode, mode)
}

// sampleTick reads both analog channels, conditions the signals and
// pushes any significant temperature or dial movement outward.
func (c *Controller) sampleTick() {
	c.sampleCurrent()
	c.sampleTarget()

	if c.cfg.Telemetry {
		err := c.store.RecordSample(time.Now(), c.currentTemp, c.setpoint, c.machine.State().Heating())
		if err != nil {
			logger.Debug().Err(err).Msg("Failed to record telemetry sample")
		}
	}
}

func (c *Controller) sampleCurrent() {
	raw, err := c.currentADC.Sample()
	if err != nil {
		logger.Error().Err(err).Msg("Thermistor read failed")
		c.invalidateCurrent()

		return
	}

	// Off-base detection runs on the raw sample. By the time the filter
	// caught up with the voltage collapse we would have reported several
	// garbage temperatures.
	if OffBase(raw) {
		c.invalidateCurrent()
		return
	}

	filtered := c.currentCond.Sample(raw)
	c.currentTemp = CurrentFromRaw(filtered)
	c.publisher.Publish(profile.MeasuredValue, c.currentTemp)
	c.publisher.Publish(profile.LocalTemperature, c.currentTemp)
}

func (c *Controller) invalidateCurrent() {
	c.currentCond.Reset()
	c.currentTemp = profile.TempInvalid
	c.publisher.Publish(profile.MeasuredValue, profile.TempInvalid)
	c.publisher.Publish(profile.LocalTemperature, profile.TempInvalid)
}

// sampleTarget tracks the physical dial. The dial only claims the
// setpoint when it actually moves, so a remote setpoint is not stomped
// every second by a stationary dial.
func (c *Controller) sampleTarget() {
	raw, err := c.targetADC.Sample()
	if err != nil {
		logger.Error().Err(err).Msg("Dial read failed")
		c.targetCond.Reset()

		return
	}

	dial := TargetFromRaw(c.targetCond.Sample(raw))
	if !c.dialSeen {
		c.dialSeen = true
		c.lastDial = dial

		return
	}

	moved := int(dial) - int(c.lastDial)
	if moved < 0 {
		moved = -moved
	}
	if moved <= c.cfg.SetpointDelta {
		return
	}

	c.lastDial = dial
	logger.Info().Int("setpoint", int(dial)).Msg("Dial moved, adopting setpoint")
	c.adoptSetpoint(dial)
}

func (c *Controller) adoptSetpoint(value int16) {
	c.setpoint = clampTemp(value)
	c.publisher.Publish(profile.HeatingSetpoint, c.setpoint)

	if err := c.store.SaveSetpoint(c.setpoint); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist setpoint")
	}
}

// pollTick watches the sense line and the pairing button.
func (c *Controller) pollTick() {
	level, err := c.sense.Level()
	if err != nil {
		logger.Error().Err(err).Msg("Sense line read failed")
	} else {
		c.machine.Observe(level)
	}

	c.pollPairButton()
}

func (c *Controller) pollPairButton() {
	pressed, err := c.pair.Level()
	if err != nil {
		logger.Debug().Err(err).Msg("Pairing button read failed")
		return
	}

	if pressed {
		c.pairHeldPolls++
		held := c.pairHeldPolls * c.cfg.PollInterval
		if held >= c.cfg.LongPress && !c.longPressFired {
			c.longPressFired = true
			logger.Info().Msg("Pairing button long press, leaving and rejoining network")
			if c.rejoin != nil {
				c.rejoin()
			}
		}

		return
	}

	if c.pairHeldPolls > 0 && !c.longPressFired {
		logger.Info().Msg("Pairing button pressed, reporting full state")
		c.reportSnapshot()
	}
	c.pairHeldPolls = 0
	c.longPressFired = false
}

// reportSnapshot pushes every attribute out immediately, ignoring the
// significance filter. Used after a short button press and handy right
// after joining.
func (c *Controller) reportSnapshot() {
	heating := c.machine.State().Heating()
	onOff, mode := int16(0), int16(profile.SystemModeOff)
	if heating {
		onOff, mode = 1, profile.SystemModeHeat
	}

	for _, report := range []struct {
		attr  profile.Attr
		value int16
	}{
		{profile.OnOff, onOff},
		{profile.SystemMode, mode},
		{profile.HeatingSetpoint, c.setpoint},
		{profile.MeasuredValue, c.currentTemp},
		{profile.LocalTemperature, c.currentTemp},
	} {
		c.reporter.SetAttribute(report.attr, report.value)
		if err := c.reporter.SendReport(report.attr, report.value); err != nil {
			logger.Debug().Err(err).Msg("Snapshot report not sent")
		}
	}
}

// ledTick drives the status LED: blinking while not joined, otherwise
// mirroring the heating state.
func (c *Controller) ledTick() {
	if !c.reporter.Joined() {
		c.ledOn = !c.ledOn
	} else {
		c.ledOn = c.machine.State().Heating()
	}

	if err := c.led.Set(c.ledOn); err != nil {
		logger.Debug().Err(err).Msg("Failed to drive status LED")
	}
}

// OnSetOnOff handles a remote on/off command.
func (c *Controller) OnSetOnOff(requested bool) {
	if requested {
		c.machine.RequestOn()
	} else {
		c.machine.RequestOff()
	}
}

// OnSetHeatingSetpoint handles a remote setpoint write. Out-of-range
// values clamp rather than fail; the kettle has no way to report a
// write error back through an attribute write.
func (c *Controller) OnSetHeatingSetpoint(value int16) {
	logger.Info().Int("setpoint", int(value)).Msg("Remote setpoint received")
	c.adoptSetpoint(value)
}

func clampTemp(v int16) int16 {
	if v < profile.TempMin {
		return profile.TempMin
	}
	if v > profile.TempMax {
		return profile.TempMax
	}

	return v
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
