package kettle

import (
	"codeberg.org/mutker/kettlectl/internal/logger"
	"codeberg.org/mutker/kettlectl/internal/profile"
)

// ReportPolicy decides when a new attribute value is worth reporting and
// how it travels. State-like attributes (zero delta) go out immediately;
// measurement-like attributes are marked dirty and ride the stack's
// min/max reporting intervals.
type ReportPolicy struct {
	// Delta is the significance threshold. A change is significant only
	// when it strictly exceeds Delta; zero means every change counts.
	Delta int
	// Immediate sends the report right away instead of queueing it for
	// batched reporting.
	Immediate bool
}

var defaultPolicies = map[profile.Attr]ReportPolicy{
	profile.OnOff:            {Delta: 0, Immediate: true},
	profile.SystemMode:       {Delta: 0, Immediate: true},
	profile.MeasuredValue:    {Delta: 50, Immediate: false},
	profile.LocalTemperature: {Delta: 50, Immediate: false},
	profile.HeatingSetpoint:  {Delta: 100, Immediate: false},
}

// Publisher pushes attribute values toward the network, suppressing
// changes too small to matter. Sensor noise would otherwise turn every
// sample tick into radio traffic.
type Publisher struct {
	reporter profile.Reporter
	policies map[profile.Attr]ReportPolicy
	last     map[profile.Attr]int16
	seen     map[profile.Attr]bool
}

// NewPublisher creates a publisher with the default per-attribute
// policies, overridden by tempDelta and setpointDelta for the
// measurement attributes.
func NewPublisher(reporter profile.Reporter, tempDelta, setpointDelta int) *Publisher {
	policies := make(map[profile.Attr]ReportPolicy, len(defaultPolicies))
	for attr, policy := range defaultPolicies {
		policies[attr] = policy
	}
	policies[profile.MeasuredValue] = ReportPolicy{Delta: tempDelta}
	policies[profile.LocalTemperature] = ReportPolicy{Delta: tempDelta}
	policies[profile.HeatingSetpoint] = ReportPolicy{Delta: setpointDelta}

	return &Publisher{
		reporter: reporter,
		policies: policies,
		last:     make(map[profile.Attr]int16),
		seen:     make(map[profile.Attr]bool),
	}
}

// Publish offers a new value for an attribute. The local attribute store
// always sees the value; a report goes out only when the change is
// significant under the attribute's policy. A failed immediate send is
// logged and dropped; the last published value is left unchanged so the
// next significant event retries with whatever is current then.
func (p *Publisher) Publish(attr profile.Attr, value int16) {
	p.reporter.SetAttribute(attr, value)

	if !p.significant(attr, value) {
		return
	}

	policy := p.policies[attr]
	if !policy.Immediate {
		p.record(attr, value)
		p.reporter.MarkDirty(attr)

		return
	}

	if err := p.reporter.SendReport(attr, value); err != nil {
		logger.Debug().Err(err).
			Uint16("cluster", uint16(attr.Cluster)).
			Uint16("attr", uint16(attr.Attribute)).
			Msg("Report not sent")

		return
	}
	p.record(attr, value)
}

func (p *Publisher) record(attr profile.Attr, value int16) {
	p.last[attr] = value
	p.seen[attr] = true
}

// significant applies the change filter. First values always count, as
// do transitions into or out of the invalid sentinel; the stale reading
// on the other side of a sentinel says nothing about the new one.
func (p *Publisher) significant(attr profile.Attr, value int16) bool {
	if !p.seen[attr] {
		return true
	}

	last := p.last[attr]
	if value == last {
		return false
	}
	if value == profile.TempInvalid || last == profile.TempInvalid {
		return true
	}

	delta := p.policies[attr].Delta
	diff := int(value) - int(last)
	if diff < 0 {
		diff = -diff
	}

	return diff > delta
}
