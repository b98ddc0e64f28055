// Package bridge adapts the device profile to MQTT. It implements
// profile.Reporter on the outbound side (retained attribute topics,
// min/max batched reporting for measurements) and feeds inbound command
// topics into a profile.CommandSink on the controller's scheduler loop.
package bridge

import "codeberg.org/mutker/kettlectl/internal/profile"

// Attribute topics live under <prefix>/<name>, commands arrive on
// <prefix>/set/<name>.
func attrName(a profile.Attr) string {
	switch a {
	case profile.OnOff:
		return "on_off"
	case profile.SystemMode:
		return "system_mode"
	case profile.LocalTemperature:
		return "local_temperature"
	case profile.HeatingSetpoint:
		return "heating_setpoint"
	case profile.MeasuredValue:
		return "measured_value"
	default:
		return "unknown"
	}
}
