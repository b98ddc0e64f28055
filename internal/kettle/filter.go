// Package kettle implements the kettle control core: analog signal
// conditioning, temperature translation, the heating state machine,
// virtual button dispatch and change-significance report scheduling.
// Every entry point must run on the controller's scheduler loop; the
// package holds no locks of its own.
package kettle

// SignalConditioner smooths raw ADC samples with an integer exponential
// moving average. One instance per analog channel. The first sample
// after (re)initialization seeds the filter and passes through
// unchanged; later samples apply
//
//	filtered += (raw - filtered) / coeff
//
// with truncating integer division. The truncation is deliberate and
// must stay bit-reproducible: it determines settling time.
type SignalConditioner struct {
	coeff    int
	filtered int
	seeded   bool
}

// NewSignalConditioner returns a conditioner with the given smoothing
// coefficient. Higher values smooth more and respond slower; 8 is the
// production default.
func NewSignalConditioner(coeff int) *SignalConditioner {
	return &SignalConditioner{coeff: coeff}
}

// Sample feeds one raw sample through the filter and returns the
// filtered value.
func (c *SignalConditioner) Sample(raw int) int {
	if !c.seeded {
		c.filtered = raw
		c.seeded = true

		return raw
	}

	c.filtered += (raw - c.filtered) / c.coeff

	return c.filtered
}

// Reset returns the conditioner to its pre-first-sample state, so the
// next sample seeds it again. Used when a sensor goes invalid: a stale
// filtered value must not survive re-attachment.
func (c *SignalConditioner) Reset() {
	c.seeded = false
	c.filtered = 0
}
