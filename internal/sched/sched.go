// Package sched provides the single-threaded cooperative scheduler the
// control core runs on. All core entry points execute on one loop
// goroutine: periodic ticks, deferred one-shot callbacks and work
// submitted from other goroutines are strictly serialized, so the core
// needs no locking. Waiting is always expressed as "run this after N
// milliseconds", never as a blocking sleep.
package sched

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Handle identifies a scheduled callback for cancellation.
// The zero Handle is never issued.
type Handle uint64

// Scheduler schedules deferred and immediate work onto the loop.
type Scheduler interface {
	// After runs fn on the loop goroutine once d has elapsed.
	After(d time.Duration, fn func()) Handle

	// Every runs fn on the loop goroutine repeatedly at interval d,
	// starting after d.
	Every(d time.Duration, fn func()) Handle

	// Cancel drops a pending callback. Cancelling an already-fired or
	// unknown handle is a no-op.
	Cancel(h Handle)

	// Submit runs fn on the loop goroutine as soon as possible. Safe to
	// call from any goroutine; this is how inbound transport callbacks
	// enter the single-threaded core.
	Submit(fn func())
}

type timer struct {
	handle Handle
	at     time.Time
	period time.Duration // 0 for one-shot
	fn     func()
	index  int // heap index, -1 when popped or cancelled
}

type timerQueue []*timer

func (q timerQueue) Len() int            { return len(q) }
func (q timerQueue) Less(i, j int) bool  { return q[i].at.Before(q[j].at) }
func (q timerQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *timerQueue) Push(x interface{}) { t := x.(*timer); t.index = len(*q); *q = append(*q, t) }
func (q *timerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Loop is the production Scheduler. Create with New, then call Run on a
// dedicated goroutine; all callbacks execute there.
type Loop struct {
	mu      sync.Mutex
	queue   timerQueue
	pending map[Handle]*timer
	submits []func()
	nextID  Handle
	wake    chan struct{}
}

func New() *Loop {
	return &Loop{
		pending: make(map[Handle]*timer),
		wake:    make(chan struct{}, 1),
	}
}

func (l *Loop) After(d time.Duration, fn func()) Handle {
	return l.schedule(d, 0, fn)
}

func (l *Loop) Every(d time.Duration, fn func()) Handle {
	return l.schedule(d, d, fn)
}

func (l *Loop) schedule(d, period time.Duration, fn func()) Handle {
	l.mu.Lock()
	l.nextID++
	t := &timer{
		handle: l.nextID,
		at:     time.Now().Add(d),
		period: period,
		fn:     fn,
	}
	heap.Push(&l.queue, t)
	l.pending[t.handle] = t
	l.mu.Unlock()

	l.notify()

	return t.handle
}

func (l *Loop) Cancel(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.pending[h]
	if !ok {
		return
	}
	delete(l.pending, h)
	if t.index >= 0 {
		heap.Remove(&l.queue, t.index)
	}
}

func (l *Loop) Submit(fn func()) {
	l.mu.Lock()
	l.submits = append(l.submits, fn)
	l.mu.Unlock()

	l.notify()
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run dispatches callbacks until ctx is cancelled. It must only be
// called once.
func (l *Loop) Run(ctx context.Context) {
	idle := time.NewTimer(time.Hour)
	defer idle.Stop()

	for {
		for _, fn := range l.takeWork() {
			fn()
		}

		wait := l.nextWait()
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		case <-idle.C:
		}
	}
}

// takeWork collects submitted functions and all due timers, in deadline
// order, re-arming periodic timers.
func (l *Loop) takeWork() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	work := l.submits
	l.submits = nil

	now := time.Now()
	for l.queue.Len() > 0 && !l.queue[0].at.After(now) {
		t := heap.Pop(&l.queue).(*timer)
		work = append(work, t.fn)
		if t.period > 0 {
			t.at = now.Add(t.period)
			heap.Push(&l.queue, t)
		} else {
			delete(l.pending, t.handle)
		}
	}

	return work
}

func (l *Loop) nextWait() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.queue.Len() == 0 {
		return time.Hour
	}
	wait := time.Until(l.queue[0].at)
	if wait < 0 {
		wait = 0
	}

	return wait
}
