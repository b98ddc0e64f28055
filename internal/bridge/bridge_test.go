package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codeberg.org/mutker/kettlectl/internal/config"
	"codeberg.org/mutker/kettlectl/internal/profile"
	"codeberg.org/mutker/kettlectl/internal/sched"
)

func TestAttrNames(t *testing.T) {
	assert.Equal(t, "on_off", attrName(profile.OnOff))
	assert.Equal(t, "system_mode", attrName(profile.SystemMode))
	assert.Equal(t, "local_temperature", attrName(profile.LocalTemperature))
	assert.Equal(t, "heating_setpoint", attrName(profile.HeatingSetpoint))
	assert.Equal(t, "measured_value", attrName(profile.MeasuredValue))
}

func TestMarkDirtyCoalesces(t *testing.T) {
	fake := sched.NewFake()
	b := New(&config.Config{
		Broker:            "tcp://127.0.0.1:1883",
		TopicPrefix:       "kettle",
		TempReportMin:     5,
		TempReportMax:     300,
		SetpointReportMin: 10,
		SetpointReportMax: 3600,
	}, fake)

	b.SetAttribute(profile.MeasuredValue, 2500)
	b.MarkDirty(profile.MeasuredValue)
	b.MarkDirty(profile.MeasuredValue)
	assert.Equal(t, 1, fake.Pending(), "re-marking while pending is coalesced")

	b.MarkDirty(profile.HeatingSetpoint)
	assert.Equal(t, 2, fake.Pending(), "attributes flush independently")
}
