package runner

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatchdog_StallsWhenCPUStops(t *testing.T) {
	// Sampler always returns the same CPU time: no progress
	sample := func(pid int) (time.Duration, error) {
		return 100 * time.Millisecond, nil
	}

	w := NewWatchdog(1234, 100*time.Millisecond, 10*time.Millisecond, sample)
	stalled := w.Start()
	defer w.Stop()

	select {
	case <-stalled:
		// expected
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog should have signaled a stall")
	}
}

func TestWatchdog_NoStallWhileAdvancing(t *testing.T) {
	// Sampler returns increasing CPU time: steady progress
	var ticks atomic.Int64
	sample := func(pid int) (time.Duration, error) {
		return time.Duration(ticks.Add(1)) * time.Millisecond, nil
	}

	w := NewWatchdog(1234, 100*time.Millisecond, 10*time.Millisecond, sample)
	stalled := w.Start()
	defer w.Stop()

	select {
	case <-stalled:
		t.Fatal("watchdog should not signal while cpu time advances")
	case <-time.After(400 * time.Millisecond):
		// expected
	}
}

func TestWatchdog_SampleErrorAssumesAlive(t *testing.T) {
	// Sampler always fails: the process is assumed alive
	sample := func(pid int) (time.Duration, error) {
		return 0, errors.New("stat read failed")
	}

	w := NewWatchdog(1234, 100*time.Millisecond, 10*time.Millisecond, sample)
	stalled := w.Start()
	defer w.Stop()

	select {
	case <-stalled:
		t.Fatal("sample failures must not count as a stall")
	case <-time.After(400 * time.Millisecond):
		// expected
	}
}

func TestWatchdog_StopEndsSampling(t *testing.T) {
	var samples atomic.Int64
	sample := func(pid int) (time.Duration, error) {
		samples.Add(1)
		return 0, nil
	}

	w := NewWatchdog(1234, time.Hour, 10*time.Millisecond, sample)
	stalled := w.Start()

	time.Sleep(50 * time.Millisecond)
	w.Stop()
	w.Stop() // repeat must be safe

	count := samples.Load()
	time.Sleep(100 * time.Millisecond)
	if samples.Load() > count+1 {
		t.Error("sampling should end after Stop")
	}

	select {
	case <-stalled:
		t.Error("stall channel must not close after Stop")
	default:
	}
}

func TestWatchdog_RecoversAfterTemporaryStall(t *testing.T) {
	// CPU pauses briefly, then resumes before the threshold
	var calls atomic.Int64
	sample := func(pid int) (time.Duration, error) {
		n := calls.Add(1)
		if n < 5 {
			return 50 * time.Millisecond, nil
		}
		return time.Duration(n) * 10 * time.Millisecond, nil
	}

	w := NewWatchdog(1234, 200*time.Millisecond, 10*time.Millisecond, sample)
	stalled := w.Start()
	defer w.Stop()

	select {
	case <-stalled:
		t.Fatal("a pause shorter than the threshold must not trigger a stall")
	case <-time.After(600 * time.Millisecond):
		// expected
	}
}
