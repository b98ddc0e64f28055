package kettle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"codeberg.org/mutker/kettlectl/internal/hal"
	"codeberg.org/mutker/kettlectl/internal/sched"
)

const (
	testPulse   = 200 * time.Millisecond
	testTimeout = 5 * time.Second
)

type machineHarness struct {
	fake      *sched.Fake
	button    *hal.FakeOutput
	sense     *hal.FakeInput
	machine   *Machine
	published []bool
}

func newMachineHarness(t *testing.T, initialLevel bool) *machineHarness {
	t.Helper()

	h := &machineHarness{
		fake:   sched.NewFake(),
		button: &hal.FakeOutput{},
		sense:  &hal.FakeInput{Lvl: initialLevel},
	}
	h.machine = NewMachine(h.fake, h.button, h.sense, testPulse, testTimeout,
		initialLevel, func(on bool) { h.published = append(h.published, on) })

	return h
}

func TestBootSeedsFromLevel(t *testing.T) {
	assert.Equal(t, StateOff, newMachineHarness(t, false).machine.State())
	assert.Equal(t, StateOn, newMachineHarness(t, true).machine.State())
}

func TestRequestOnPulsesButton(t *testing.T) {
	h := newMachineHarness(t, false)

	h.machine.RequestOn()

	assert.Equal(t, StateTurningOn, h.machine.State())
	assert.True(t, h.button.Active(), "button held during pulse")
	assert.Equal(t, 2, h.fake.Pending(), "release timer and watchdog")

	h.fake.Advance(testPulse)
	assert.False(t, h.button.Active(), "button released after pulse")
}

func TestConfirmedTurnOnPublishesOnce(t *testing.T) {
	h := newMachineHarness(t, false)

	h.machine.RequestOn()
	h.machine.Observe(true)

	assert.Equal(t, StateOn, h.machine.State())
	assert.Equal(t, []bool{true}, h.published)

	// Repeated highs from the poll path change nothing
	h.machine.Observe(true)
	h.machine.Observe(true)
	assert.Equal(t, []bool{true}, h.published)

	// Watchdog gone, only the release timer may remain
	h.fake.Advance(testTimeout)
	assert.Equal(t, []bool{true}, h.published)
}

func TestDeclinedTurnOnTimesOut(t *testing.T) {
	h := newMachineHarness(t, false)

	h.machine.RequestOn()
	h.fake.Advance(testTimeout)

	assert.Equal(t, StateOff, h.machine.State())
	assert.Equal(t, []bool{false}, h.published, "declined start reported exactly once")
}

func TestDoubleRequestOnIsSinglePulse(t *testing.T) {
	h := newMachineHarness(t, false)

	h.machine.RequestOn()
	h.machine.RequestOn()

	assert.Equal(t, []bool{true}, h.button.Writes, "one press, not two")
	assert.Equal(t, 2, h.fake.Pending(), "watchdog not re-armed")
}

func TestSpontaneousStartAndStop(t *testing.T) {
	h := newMachineHarness(t, false)

	// Someone pushes the physical kettle button
	h.machine.Observe(true)
	assert.Equal(t, StateOn, h.machine.State())

	// Water boiled, kettle switches itself off
	h.machine.Observe(false)
	assert.Equal(t, StateOff, h.machine.State())

	assert.Equal(t, []bool{true, false}, h.published)
	assert.Empty(t, h.button.Writes, "no commanded transitions, no pulses")
}

func TestConfirmedTurnOff(t *testing.T) {
	h := newMachineHarness(t, true)

	h.machine.RequestOff()
	assert.Equal(t, StateTurningOff, h.machine.State())

	h.machine.Observe(false)
	assert.Equal(t, StateOff, h.machine.State())
	assert.Equal(t, []bool{false}, h.published)

	h.fake.Advance(testTimeout)
	assert.Equal(t, []bool{false}, h.published, "cancelled watchdog stays quiet")
}

func TestTurnOffTimeoutAdoptsActualLevel(t *testing.T) {
	h := newMachineHarness(t, true)
	h.sense.Lvl = true // kettle ignores the press entirely

	h.machine.RequestOff()
	h.fake.Advance(testTimeout)

	assert.Equal(t, StateOn, h.machine.State())
	assert.Equal(t, []bool{true}, h.published, "actual level wins after timeout")
}

func TestRequestOffWhileOffIsNoop(t *testing.T) {
	h := newMachineHarness(t, false)

	h.machine.RequestOff()

	assert.Equal(t, StateOff, h.machine.State())
	assert.Empty(t, h.button.Writes)
	assert.Zero(t, h.fake.Pending())
}
