// Package store persists the little state that must survive a power
// cycle (the heating setpoint) and, optionally, a sample log for
// calibration work.
package store

import "time"

type Store interface {
	// LoadSetpoint returns the persisted heating setpoint. The second
	// return is false when none has ever been saved.
	LoadSetpoint() (int16, bool, error)
	SaveSetpoint(value int16) error

	// RecordSample appends one telemetry row. Writes are batched; a row
	// may not hit disk until later or Close.
	RecordSample(at time.Time, current, target int16, heating bool) error

	Close() error
}
