package kettle

import (
	"time"

	"codeberg.org/mutker/kettlectl/internal/hal"
	"codeberg.org/mutker/kettlectl/internal/logger"
	"codeberg.org/mutker/kettlectl/internal/sched"
)

// HeatingState tracks the kettle's true heating status. The kettle owns
// its element; we only observe the sense line and nudge it with a
// simulated button press, so commanded transitions stay pending until
// the kettle visibly reacts or the watchdog gives up.
type HeatingState int

const (
	StateOff HeatingState = iota
	StateTurningOn
	StateOn
	StateTurningOff
)

func (s HeatingState) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateTurningOn:
		return "turning_on"
	case StateOn:
		return "on"
	case StateTurningOff:
		return "turning_off"
	default:
		return "unknown"
	}
}

// Heating reports the externally visible on/off value for the state.
func (s HeatingState) Heating() bool {
	return s == StateOn
}

// Machine is the heating state machine plus the command dispatcher that
// feeds it. All methods must run on the scheduler loop.
type Machine struct {
	scheduler sched.Scheduler
	button    hal.OutputLine
	sense     hal.InputLine
	publish   func(on bool)

	pulse   time.Duration
	timeout time.Duration

	state     HeatingState
	lastLevel bool
	watchdog  sched.Handle
	release   sched.Handle
}

// NewMachine creates the state machine seeded from the current sense
// level. publish is invoked on every confirmed heating change; the
// caller decides what publishing means.
func NewMachine(s sched.Scheduler, button hal.OutputLine, sense hal.InputLine,
	pulse, timeout time.Duration, initialLevel bool, publish func(on bool),
) *Machine {
	state := StateOff
	if initialLevel {
		state = StateOn
	}

	return &Machine{
		scheduler: s,
		button:    button,
		sense:     sense,
		publish:   publish,
		pulse:     pulse,
		timeout:   timeout,
		state:     state,
		lastLevel: initialLevel,
	}
}

// State returns the current heating state.
func (m *Machine) State() HeatingState {
	return m.state
}

// Observe delivers a digital sense-line observation, from either an edge
// notification or a poll. Both sources may be active at once; repeats of
// the last known level are dropped so nothing is handled twice.
func (m *Machine) Observe(level bool) {
	if level == m.lastLevel {
		return
	}
	m.lastLevel = level

	prev := m.state

	switch m.state {
	case StateOff:
		if level {
			// Physical button or external start
			m.state = StateOn
			m.publish(true)
		}
	case StateTurningOn:
		if level {
			m.cancelWatchdog()
			m.state = StateOn
			m.publish(true)
			logger.Info().Msg("Heating started (command accepted)")
		}
	case StateOn:
		if !level {
			// Reached temperature, manual off, or lifted off base
			m.state = StateOff
			m.publish(false)
		}
	case StateTurningOff:
		if !level {
			m.cancelWatchdog()
			m.state = StateOff
			m.publish(false)
			logger.Info().Msg("Heating stopped (command accepted)")
		}
	}

	if prev != m.state {
		logger.Debug().
			Str("from", prev.String()).
			Str("to", m.state.String()).
			Msg("Heating state changed")
	}
}

// RequestOn asks the kettle to start heating. A no-op when already on or
// turning on.
func (m *Machine) RequestOn() {
	if m.state == StateOn || m.state == StateTurningOn {
		logger.Info().Str("state", m.state.String()).Msg("Already on or turning on, ignoring request")
		return
	}

	logger.Info().Msg("Requesting heating on")
	m.state = StateTurningOn
	m.pressButton()
	m.armWatchdog()
}

// RequestOff asks the kettle to stop heating. A no-op when already off
// or turning off.
func (m *Machine) RequestOff() {
	if m.state == StateOff || m.state == StateTurningOff {
		logger.Info().Str("state", m.state.String()).Msg("Already off or turning off, ignoring request")
		return
	}

	logger.Info().Msg("Requesting heating off")
	m.state = StateTurningOff
	m.pressButton()
	m.armWatchdog()
}

// pressButton emits the simulated button press: drive the output active
// and schedule its release after the pulse duration.
func (m *Machine) pressButton() {
	if err := m.button.Set(true); err != nil {
		logger.Error().Err(err).Msg("Failed to press kettle button")
		return
	}

	if m.release != 0 {
		m.scheduler.Cancel(m.release)
	}
	m.release = m.scheduler.After(m.pulse, func() {
		m.release = 0
		if err := m.button.Set(false); err != nil {
			logger.Error().Err(err).Msg("Failed to release kettle button")
		}
	})
}

func (m *Machine) armWatchdog() {
	if m.watchdog != 0 {
		m.scheduler.Cancel(m.watchdog)
	}
	m.watchdog = m.scheduler.After(m.timeout, m.watchdogExpired)
}

func (m *Machine) cancelWatchdog() {
	if m.watchdog != 0 {
		m.scheduler.Cancel(m.watchdog)
		m.watchdog = 0
	}
}

// watchdogExpired handles a commanded transition the kettle never
// confirmed. A declined turn-on is a normal outcome (no water, lid
// open); a turn-off timeout is unusual, so the actual level decides.
func (m *Machine) watchdogExpired() {
	m.watchdog = 0

	switch m.state {
	case StateTurningOn:
		logger.Warn().Msg("Kettle declined to heat (timeout), no water?")
		m.state = StateOff
		m.publish(false)
	case StateTurningOff:
		logger.Warn().Msg("Turn-off not confirmed within timeout")
		level, err := m.sense.Level()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to re-read sense line after timeout")
			level = false
		}
		m.lastLevel = level
		if level {
			m.state = StateOn
		} else {
			m.state = StateOff
		}
		m.publish(level)
	default:
		// Confirmed observation won the race; nothing pending.
	}
}
