package hal

import "codeberg.org/mutker/kettlectl/internal/errors"

// FakeInput is a test double whose level is set directly by the test.
type FakeInput struct {
	Lvl    bool
	Err    error
	Closed bool
}

func (f *FakeInput) Level() (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}

	return f.Lvl, nil
}

func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}

// FakeOutput records every level written to it.
type FakeOutput struct {
	Writes []bool
	Err    error
	Closed bool
}

func (f *FakeOutput) Set(active bool) error {
	if f.Err != nil {
		return f.Err
	}
	f.Writes = append(f.Writes, active)

	return nil
}

// Active returns the last written level, or false if nothing was written.
func (f *FakeOutput) Active() bool {
	if len(f.Writes) == 0 {
		return false
	}

	return f.Writes[len(f.Writes)-1]
}

func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}

// FakeAnalog returns scripted raw samples. When the script is exhausted
// the last sample repeats; with no samples it errors.
type FakeAnalog struct {
	Samples []int
	Err     error
	Closed  bool

	index int
}

func (f *FakeAnalog) Sample() (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	if len(f.Samples) == 0 {
		return 0, errors.New().New(errors.ErrAnalogRead)
	}

	raw := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return raw, nil
}

func (f *FakeAnalog) Close() error {
	f.Closed = true
	return nil
}
