package store

import "time"

// Fake is an in-memory Store for tests and for running without a
// database.
type Fake struct {
	Setpoint    int16
	HasSetpoint bool
	Saved       []int16
	Samples     int
	Closed      bool

	LoadErr error
	SaveErr error
}

var _ Store = (*Fake)(nil)

func (f *Fake) LoadSetpoint() (int16, bool, error) {
	if f.LoadErr != nil {
		return 0, false, f.LoadErr
	}

	return f.Setpoint, f.HasSetpoint, nil
}

func (f *Fake) SaveSetpoint(value int16) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.Setpoint = value
	f.HasSetpoint = true
	f.Saved = append(f.Saved, value)

	return nil
}

func (f *Fake) RecordSample(_ time.Time, _, _ int16, _ bool) error {
	f.Samples++
	return nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
