//go:build linux

package hal

import (
	"bytes"
	"os"
	"strconv"

	"github.com/warthog618/go-gpiocdev"

	"codeberg.org/mutker/kettlectl/internal/errors"
)

type gpioInput struct {
	line *gpiocdev.Line
}

// NewInputLine requests pin on chip as a digital input.
func NewInputLine(chip string, pin int) (InputLine, error) {
	errFactory := errors.New()

	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsInput)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrLineRequest, err).WithData(pin)
	}

	return &gpioInput{line: line}, nil
}

func (g *gpioInput) Level() (bool, error) {
	v, err := g.line.Value()
	if err != nil {
		return false, errors.New().Wrap(errors.ErrLineRead, err)
	}

	return v != 0, nil
}

func (g *gpioInput) Close() error {
	return g.line.Close()
}

type gpioOutput struct {
	line *gpiocdev.Line
}

// NewOutputLine requests pin on chip as a digital output, initially
// inactive.
func NewOutputLine(chip string, pin int) (OutputLine, error) {
	errFactory := errors.New()

	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrLineRequest, err).WithData(pin)
	}

	return &gpioOutput{line: line}, nil
}

func (g *gpioOutput) Set(active bool) error {
	v := 0
	if active {
		v = 1
	}
	if err := g.line.SetValue(v); err != nil {
		return errors.New().Wrap(errors.ErrLineWrite, err)
	}

	return nil
}

func (g *gpioOutput) Close() error {
	// Leave the line inactive so the kettle never sees a held button.
	_ = g.line.SetValue(0)
	return g.line.Close()
}

type iioChannel struct {
	path string
}

// NewAnalogChannel reads raw samples from an IIO sysfs attribute such as
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
func NewAnalogChannel(path string) (AnalogChannel, error) {
	errFactory := errors.New()

	if _, err := os.Stat(path); err != nil {
		return nil, errFactory.Wrap(errors.ErrDeviceNotReady, err).WithData(path)
	}

	return &iioChannel{path: path}, nil
}

func (c *iioChannel) Sample() (int, error) {
	errFactory := errors.New()

	buf, err := os.ReadFile(c.path)
	if err != nil {
		return 0, errFactory.Wrap(errors.ErrAnalogRead, err).WithData(c.path)
	}

	raw, err := strconv.Atoi(string(bytes.TrimSpace(buf)))
	if err != nil {
		return 0, errFactory.Wrap(errors.ErrAnalogRead, err).WithData(c.path)
	}

	return raw, nil
}

func (c *iioChannel) Close() error {
	return nil
}
