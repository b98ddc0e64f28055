package sched

import (
	"sort"
	"time"
)

// Fake is a Scheduler driven by virtual time, for tests. Nothing fires
// until Advance is called; callbacks run synchronously on the caller's
// goroutine, preserving the production serialization guarantee.
type Fake struct {
	now    time.Time
	timers []*fakeTimer
	nextID Handle
}

type fakeTimer struct {
	handle Handle
	at     time.Time
	period time.Duration
	fn     func()
}

func NewFake() *Fake {
	return &Fake{now: time.Unix(0, 0)}
}

// Now returns the current virtual time.
func (f *Fake) Now() time.Time {
	return f.now
}

func (f *Fake) After(d time.Duration, fn func()) Handle {
	return f.add(d, 0, fn)
}

func (f *Fake) Every(d time.Duration, fn func()) Handle {
	return f.add(d, d, fn)
}

func (f *Fake) add(d, period time.Duration, fn func()) Handle {
	f.nextID++
	f.timers = append(f.timers, &fakeTimer{
		handle: f.nextID,
		at:     f.now.Add(d),
		period: period,
		fn:     fn,
	})

	return f.nextID
}

func (f *Fake) Cancel(h Handle) {
	for i, t := range f.timers {
		if t.handle == h {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

func (f *Fake) Submit(fn func()) {
	fn()
}

// Pending reports the number of armed timers.
func (f *Fake) Pending() int {
	return len(f.timers)
}

// Advance moves virtual time forward by d, firing due timers in deadline
// order. Callbacks may arm or cancel further timers; newly armed timers
// that fall due within the same window fire too.
func (f *Fake) Advance(d time.Duration) {
	deadline := f.now.Add(d)

	for {
		t := f.nextDue(deadline)
		if t == nil {
			break
		}
		f.now = t.at
		if t.period > 0 {
			t.at = t.at.Add(t.period)
		} else {
			f.Cancel(t.handle)
		}
		t.fn()
	}

	f.now = deadline
}

func (f *Fake) nextDue(deadline time.Time) *fakeTimer {
	sort.SliceStable(f.timers, func(i, j int) bool { return f.timers[i].at.Before(f.timers[j].at) })

	if len(f.timers) == 0 || f.timers[0].at.After(deadline) {
		return nil
	}

	return f.timers[0]
}
