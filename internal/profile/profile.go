// Package profile defines the device profile the controller exposes to
// the mesh network: the endpoint, clusters and attributes of a
// thermostat-style kettle device, and the Reporter interface the control
// core publishes through. The wire encoding of reports is the transport
// adapter's concern, not the core's.
package profile

// The device presents a single endpoint with thermostat device type
// (closest standard match for a kettle).
const (
	Endpoint = 1

	DeviceID = 0x0301 // HVAC thermostat
)

// ClusterID identifies a server cluster on the endpoint.
type ClusterID uint16

const (
	ClusterOnOff           ClusterID = 0x0006
	ClusterThermostat      ClusterID = 0x0201
	ClusterTempMeasurement ClusterID = 0x0402
)

// AttributeID identifies an attribute within a cluster.
type AttributeID uint16

const (
	// On/Off cluster
	AttrOnOff AttributeID = 0x0000

	// Thermostat cluster
	AttrLocalTemperature AttributeID = 0x0000
	AttrHeatingSetpoint  AttributeID = 0x0012
	AttrSystemMode       AttributeID = 0x001C

	// Temperature measurement cluster
	AttrMeasuredValue AttributeID = 0x0000
)

// SystemMode values (thermostat cluster enum).
const (
	SystemModeOff  = 0x00
	SystemModeHeat = 0x04
)

// Temperatures are reported in hundredths of a degree Celsius as signed
// 16-bit values. TempInvalid is the standard invalid sentinel (0x8000
// reinterpreted as int16).
const (
	TempInvalid int16 = -0x8000

	TempMin int16 = 5000  // 50.00 degrees
	TempMax int16 = 10000 // 100.00 degrees

	DefaultSetpoint int16 = 8000 // 80.00 degrees
)

// Attr names an attribute instance on the device endpoint.
type Attr struct {
	Cluster   ClusterID
	Attribute AttributeID
}

// The reportable attributes of the device.
var (
	OnOff            = Attr{ClusterOnOff, AttrOnOff}
	SystemMode       = Attr{ClusterThermostat, AttrSystemMode}
	LocalTemperature = Attr{ClusterThermostat, AttrLocalTemperature}
	HeatingSetpoint  = Attr{ClusterThermostat, AttrHeatingSetpoint}
	MeasuredValue    = Attr{ClusterTempMeasurement, AttrMeasuredValue}
)

// Reporter is the surface the control core needs from the network stack.
// SetAttribute updates the local attribute store; MarkDirty queues the
// attribute for the stack's batched/periodic reporting; SendReport pushes
// an immediate report and fails soft when not joined.
type Reporter interface {
	SetAttribute(a Attr, value int16)
	MarkDirty(a Attr)
	SendReport(a Attr, value int16) error
	Joined() bool
}

// CommandSink receives inbound commands from the network stack. The
// transport adapter delivers these on the core's scheduler loop.
type CommandSink interface {
	OnSetOnOff(requested bool)
	OnSetHeatingSetpoint(value int16)
}
