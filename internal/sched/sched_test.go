package sched_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/kettlectl/internal/sched"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	f := sched.NewFake()

	var order []string
	f.After(300*time.Millisecond, func() { order = append(order, "late") })
	f.After(100*time.Millisecond, func() { order = append(order, "early") })
	f.After(200*time.Millisecond, func() { order = append(order, "middle") })

	f.Advance(time.Second)

	assert.Equal(t, []string{"early", "middle", "late"}, order)
	assert.Zero(t, f.Pending())
}

func TestFakeCancelPreventsFiring(t *testing.T) {
	f := sched.NewFake()

	fired := false
	h := f.After(100*time.Millisecond, func() { fired = true })
	f.Cancel(h)

	f.Advance(time.Second)

	assert.False(t, fired, "cancelled timer must not fire")
}

func TestFakeCancelFiredHandleIsNoop(t *testing.T) {
	f := sched.NewFake()

	h := f.After(10*time.Millisecond, func() {})
	f.Advance(20 * time.Millisecond)
	f.Cancel(h)
}

func TestFakePeriodicRearms(t *testing.T) {
	f := sched.NewFake()

	count := 0
	f.Every(100*time.Millisecond, func() { count++ })

	f.Advance(350 * time.Millisecond)
	assert.Equal(t, 3, count)

	f.Advance(50 * time.Millisecond)
	assert.Equal(t, 4, count)
}

func TestFakeCallbackArmsWithinWindow(t *testing.T) {
	f := sched.NewFake()

	var order []string
	f.After(100*time.Millisecond, func() {
		order = append(order, "first")
		f.After(50*time.Millisecond, func() { order = append(order, "chained") })
	})

	f.Advance(time.Second)

	assert.Equal(t, []string{"first", "chained"}, order)
}

func TestLoopRunsSubmittedWork(t *testing.T) {
	l := sched.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go l.Run(ctx)

	done := make(chan struct{})
	l.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submitted work did not run")
	}
}

func TestLoopTimerFiresAndCancels(t *testing.T) {
	l := sched.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	fired := make(chan string, 2)
	h := l.After(500*time.Millisecond, func() { fired <- "cancelled" })
	l.After(20*time.Millisecond, func() { fired <- "kept" })
	l.Cancel(h)

	select {
	case got := <-fired:
		require.Equal(t, "kept", got)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	select {
	case got := <-fired:
		t.Fatalf("cancelled timer fired: %q", got)
	case <-time.After(600 * time.Millisecond):
	}
}

func TestLoopSerializesCallbacks(t *testing.T) {
	l := sched.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	// Unsynchronized counter: only safe if the loop serializes.
	count := 0
	for i := 0; i < 100; i++ {
		l.Submit(func() { count++ })
	}

	result := make(chan int, 1)
	l.Submit(func() { result <- count })

	select {
	case got := <-result:
		assert.Equal(t, 100, got)
	case <-time.After(2 * time.Second):
		t.Fatal("work did not complete")
	}
}
