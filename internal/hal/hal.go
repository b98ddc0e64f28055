// Package hal abstracts the hardware the controller touches: digital
// lines for the heating sense input, simulated button output, pairing
// button and status LED, and analog channels for the two temperature
// sensors. The real implementation uses the Linux GPIO character device
// and the IIO sysfs ADC interface; fakes allow testing without hardware.
package hal

// InputLine reads a digital input level.
type InputLine interface {
	// Level returns the logical line level (true = active).
	Level() (bool, error)
	Close() error
}

// OutputLine drives a digital output level.
type OutputLine interface {
	Set(active bool) error
	Close() error
}

// AnalogChannel reads raw digitized samples from one ADC channel.
type AnalogChannel interface {
	// Sample returns the raw ADC code (0..max code for the converter's
	// resolution).
	Sample() (int, error)
	Close() error
}
