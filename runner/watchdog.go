package runner

import (
	"sync"
	"time"

	"github.com/claudegram/claudegram/logger"
)

// Watchdog monitors a process's CPU time and signals when it stops
// making progress. A process that holds its session lock while burning
// no CPU is worse than a timeout: it blocks the chat until the full
// wall-clock limit, so the watchdog catches it early.
type Watchdog struct {
	pid       int
	threshold time.Duration
	interval  time.Duration
	sample    func(pid int) (time.Duration, error)

	stalled  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// NewWatchdog creates a watchdog for the given PID. sample reads the
// process's cumulative CPU time.
func NewWatchdog(pid int, threshold, interval time.Duration, sample func(pid int) (time.Duration, error)) *Watchdog {
	return &Watchdog{
		pid:       pid,
		threshold: threshold,
		interval:  interval,
		sample:    sample,
		stalled:   make(chan struct{}),
		stop:      make(chan struct{}),
	}
}

// Start begins sampling in a goroutine and returns a channel that is
// closed if the process stalls. The channel never closes after Stop.
func (w *Watchdog) Start() <-chan struct{} {
	go w.run()
	return w.stalled
}

// Stop ends sampling. Safe to call more than once.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
}

func (w *Watchdog) run() {
	log := logger.WithComponent("watchdog")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var lastCPU time.Duration
	lastAdvance := time.Now()

	for {
		select {
		case <-w.stop:
			return

		case <-ticker.C:
			cpu, err := w.sample(w.pid)
			if err != nil {
				// A failed read proves nothing about the process.
				// Assume it is alive and keep sampling.
				log.Debug("cpu sample failed, assuming alive", "pid", w.pid, "error", err)
				lastAdvance = time.Now()
				continue
			}

			if cpu > lastCPU {
				lastCPU = cpu
				lastAdvance = time.Now()
				continue
			}

			if time.Since(lastAdvance) >= w.threshold {
				log.Warn("process cpu time stopped advancing", "pid", w.pid, "cpu", cpu, "threshold", w.threshold)
				close(w.stalled)
				return
			}
		}
	}
}
