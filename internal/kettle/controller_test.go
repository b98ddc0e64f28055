package kettle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"codeberg.org/mutker/kettlectl/internal/bridge"
	"codeberg.org/mutker/kettlectl/internal/config"
	"codeberg.org/mutker/kettlectl/internal/hal"
	"codeberg.org/mutker/kettlectl/internal/profile"
	"codeberg.org/mutker/kettlectl/internal/sched"
	"codeberg.org/mutker/kettlectl/internal/store"
)

// Raw ADC codes chosen so the conditioned voltage lands on known
// calibration points (with filter_coeff 1 the filter passes samples
// through once seeded).
const (
	rawThermistor70C = 1252 // ~2200mV at the junction
	rawDialHottest   = 0    // dial at 100 degrees
	rawDial50C       = 2844 // ~5000mV, dial at 50 degrees
	rawOffBase       = 400  // ~702mV, kettle lifted
)

type harness struct {
	fake     *sched.Fake
	reporter *bridge.FakeReporter
	st       *store.Fake
	button   *hal.FakeOutput
	sense    *hal.FakeInput
	pair     *hal.FakeInput
	led      *hal.FakeOutput
	dial     *hal.FakeAnalog
	therm    *hal.FakeAnalog
	rejoined int
	ctrl     *Controller
}

func newHarness(t *testing.T, heating bool) *harness {
	t.Helper()

	cfg := &config.Config{
		SampleInterval:    1000,
		PollInterval:      50,
		PulseDuration:     200,
		TransitionTimeout: 5000,
		LedBlinkInterval:  500,
		LongPress:         3000,
		TempDelta:         50,
		SetpointDelta:     100,
		FilterCoeff:       1,
	}

	h := &harness{
		fake:     sched.NewFake(),
		reporter: bridge.NewFakeReporter(),
		st:       &store.Fake{},
		button:   &hal.FakeOutput{},
		sense:    &hal.FakeInput{Lvl: heating},
		pair:     &hal.FakeInput{},
		led:      &hal.FakeOutput{},
		dial:     &hal.FakeAnalog{Samples: []int{rawDial50C}},
		therm:    &hal.FakeAnalog{Samples: []int{rawThermistor70C}},
	}
	h.ctrl = NewController(ControllerConfig{
		Cfg:        cfg,
		Scheduler:  h.fake,
		Reporter:   h.reporter,
		Store:      h.st,
		Button:     h.button,
		Sense:      h.sense,
		Pair:       h.pair,
		Led:        h.led,
		TargetADC:  h.dial,
		CurrentADC: h.therm,
		Rejoin:     func() { h.rejoined++ },
	})

	return h
}

func TestBootPublishesRestoredState(t *testing.T) {
	h := newHarness(t, true)
	h.st.Setpoint = 9000
	h.st.HasSetpoint = true

	h.ctrl.Start()

	assert.Equal(t, int16(9000), h.ctrl.Setpoint())
	assert.Equal(t, int16(9000), h.reporter.Values[profile.HeatingSetpoint])
	assert.Equal(t, int16(1), h.reporter.Values[profile.OnOff])
	assert.Equal(t, int16(profile.SystemModeHeat), h.reporter.Values[profile.SystemMode])
}

func TestBootDefaultsSetpoint(t *testing.T) {
	h := newHarness(t, false)

	h.ctrl.Start()

	assert.Equal(t, profile.DefaultSetpoint, h.ctrl.Setpoint())
	assert.Equal(t, int16(0), h.reporter.Values[profile.OnOff])
	assert.Equal(t, int16(profile.SystemModeOff), h.reporter.Values[profile.SystemMode])
}

func TestSampleTickPublishesTemperature(t *testing.T) {
	h := newHarness(t, false)
	h.ctrl.Start()

	h.fake.Advance(time.Second)

	assert.Equal(t, int16(7000), h.reporter.Values[profile.MeasuredValue])
	assert.Equal(t, int16(7000), h.reporter.Values[profile.LocalTemperature],
		"thermostat view mirrors the measurement")
}

func TestOffBasePublishesInvalid(t *testing.T) {
	h := newHarness(t, false)
	h.therm.Samples = []int{rawThermistor70C, rawOffBase}
	h.ctrl.Start()

	h.fake.Advance(2 * time.Second)

	assert.Equal(t, profile.TempInvalid, h.reporter.Values[profile.MeasuredValue])
	assert.Equal(t, profile.TempInvalid, h.reporter.Values[profile.LocalTemperature])
}

func TestDialMoveAdoptsAndPersistsSetpoint(t *testing.T) {
	h := newHarness(t, false)
	h.dial.Samples = []int{rawDial50C, rawDialHottest}
	h.ctrl.Start()

	h.fake.Advance(time.Second)
	assert.Equal(t, profile.DefaultSetpoint, h.ctrl.Setpoint(),
		"first reading only establishes the dial position")

	h.fake.Advance(time.Second)
	assert.Equal(t, int16(10000), h.ctrl.Setpoint())
	assert.Equal(t, []int16{10000}, h.st.Saved)
	assert.Equal(t, int16(10000), h.reporter.Values[profile.HeatingSetpoint])
}

func TestStationaryDialDoesNotStompRemoteSetpoint(t *testing.T) {
	h := newHarness(t, false)
	h.ctrl.Start()
	h.fake.Advance(time.Second)

	h.ctrl.OnSetHeatingSetpoint(6500)
	assert.Equal(t, int16(6500), h.ctrl.Setpoint())

	h.fake.Advance(5 * time.Second)
	assert.Equal(t, int16(6500), h.ctrl.Setpoint(), "dial has not moved, setpoint stays")
}

func TestRemoteSetpointClamps(t *testing.T) {
	h := newHarness(t, false)
	h.ctrl.Start()

	h.ctrl.OnSetHeatingSetpoint(2000)
	assert.Equal(t, profile.TempMin, h.ctrl.Setpoint())

	h.ctrl.OnSetHeatingSetpoint(12000)
	assert.Equal(t, profile.TempMax, h.ctrl.Setpoint())
}

func TestRemoteOnCommandConfirmedByPoll(t *testing.T) {
	h := newHarness(t, false)
	h.ctrl.Start()

	h.ctrl.OnSetOnOff(true)
	assert.Equal(t, StateTurningOn, h.ctrl.Machine().State())
	assert.True(t, h.button.Active())

	h.sense.Lvl = true
	h.fake.Advance(50 * time.Millisecond)

	assert.Equal(t, StateOn, h.ctrl.Machine().State())
	assert.Equal(t, int16(1), h.reporter.Values[profile.OnOff])
	assert.Equal(t, int16(profile.SystemModeHeat), h.reporter.Values[profile.SystemMode])
}

func TestLedBlinksUntilJoined(t *testing.T) {
	h := newHarness(t, false)
	h.reporter.JoinedState = false
	h.ctrl.Start()

	h.fake.Advance(time.Second)
	assert.Equal(t, []bool{true, false}, h.led.Writes)

	// Once joined the LED mirrors the (off) heating state
	h.reporter.JoinedState = true
	h.fake.Advance(time.Second)
	assert.False(t, h.led.Active())
}

func TestLongPressRejoins(t *testing.T) {
	h := newHarness(t, false)
	h.ctrl.Start()

	h.pair.Lvl = true
	h.fake.Advance(4 * time.Second)

	assert.Equal(t, 1, h.rejoined, "long press fires once, not per poll")
}

func TestShortPressReportsSnapshot(t *testing.T) {
	h := newHarness(t, false)
	h.ctrl.Start()
	h.fake.Advance(time.Second)
	sentBefore := len(h.reporter.Sent)

	h.pair.Lvl = true
	h.fake.Advance(100 * time.Millisecond)
	h.pair.Lvl = false
	h.fake.Advance(50 * time.Millisecond)

	assert.Zero(t, h.rejoined)
	assert.Equal(t, sentBefore+5, len(h.reporter.Sent),
		"every attribute reported once on a short press")
}
