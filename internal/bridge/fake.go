package bridge

import "codeberg.org/mutker/kettlectl/internal/profile"

// SentReport records one SendReport call on the fake.
type SentReport struct {
	Attr  profile.Attr
	Value int16
}

// FakeReporter is an in-memory profile.Reporter for tests.
type FakeReporter struct {
	Values      map[profile.Attr]int16
	Dirty       []profile.Attr
	Sent        []SentReport
	JoinedState bool
	SendErr     error
}

var _ profile.Reporter = (*FakeReporter)(nil)

func NewFakeReporter() *FakeReporter {
	return &FakeReporter{
		Values:      make(map[profile.Attr]int16),
		JoinedState: true,
	}
}

func (f *FakeReporter) SetAttribute(a profile.Attr, value int16) {
	f.Values[a] = value
}

func (f *FakeReporter) MarkDirty(a profile.Attr) {
	f.Dirty = append(f.Dirty, a)
}

func (f *FakeReporter) SendReport(a profile.Attr, value int16) error {
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, SentReport{Attr: a, Value: value})

	return nil
}

func (f *FakeReporter) Joined() bool {
	return f.JoinedState
}

// SentTo returns the values sent for one attribute, in order.
func (f *FakeReporter) SentTo(a profile.Attr) []int16 {
	var values []int16
	for _, r := range f.Sent {
		if r.Attr == a {
			values = append(values, r.Value)
		}
	}

	return values
}
