// Package scheduler runs the check-and-forward cycle on a fixed
// interval. Scheduled ticks and manual triggers both funnel into the
// same cycle function and race for the relay's execution lock; the lock,
// not the scheduler, is what prevents overlap.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tweetrelay/pkg/logger"
)

// CycleFunc is one full check-and-forward cycle. It returns the number
// of posts forwarded and never panics (the relay recovers at its own
// boundary).
type CycleFunc func() (int, error)

// Status is a snapshot of the worker for the status endpoint
type Status struct {
	Alive         bool      `json:"alive"`
	LastRun       time.Time `json:"last_run"`
	LastForwarded int       `json:"last_forwarded"`
	LastError     string    `json:"last_error,omitempty"`
	CoolingDown   bool      `json:"cooling_down"`
}

// Worker schedules periodic cycles. After a failed cycle it arms a
// recovery cooldown; ticks firing inside the cooldown are skipped so a
// persistent fault cannot turn into a tight crash loop.
type Worker struct {
	cycle         CycleFunc
	interval      time.Duration
	recoveryDelay time.Duration
	cron          *cron.Cron
	logger        logger.Logger

	mu            sync.Mutex
	started       bool
	lastRun       time.Time
	lastForwarded int
	lastErr       error
	cooldownUntil time.Time

	now func() time.Time
}

// NewWorker creates a worker invoking cycle every interval
func NewWorker(cycle CycleFunc, interval, recoveryDelay time.Duration, log logger.Logger) *Worker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Worker{
		cycle:         cycle,
		interval:      interval,
		recoveryDelay: recoveryDelay,
		cron:          cron.New(),
		logger:        log,
		now:           time.Now,
	}
}

// Start schedules the periodic job and runs an initial cycle in the
// background so a fresh deployment catches up immediately
func (w *Worker) Start() error {
	spec := fmt.Sprintf("@every %s", w.interval)
	if _, err := w.cron.AddFunc(spec, w.tick); err != nil {
		return fmt.Errorf("failed to schedule check job: %w", err)
	}

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	w.cron.Start()
	w.logger.InfoWithFields("worker started", map[string]interface{}{
		"interval": w.interval,
	})

	go w.tick()

	return nil
}

// Stop halts the schedule; a cycle already running completes
func (w *Worker) Stop() {
	w.mu.Lock()
	w.started = false
	w.mu.Unlock()

	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("worker stopped")
}

// Alive reports whether the schedule is running. It deliberately ignores
// the last cycle's outcome: transient upstream failures must not flip
// external health status.
func (w *Worker) Alive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// Status returns a snapshot for the status endpoint
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Status{
		Alive:         w.started,
		LastRun:       w.lastRun,
		LastForwarded: w.lastForwarded,
		CoolingDown:   w.now().Before(w.cooldownUntil),
	}
	if w.lastErr != nil {
		s.LastError = w.lastErr.Error()
	}
	return s
}

// TriggerNow runs one cycle on the caller's goroutine (the manual
// front-end path). It races for the execution lock like any tick.
func (w *Worker) TriggerNow() (int, error) {
	w.logger.Info("manual check triggered")
	return w.run()
}

// tick is the scheduled entry point
func (w *Worker) tick() {
	w.mu.Lock()
	cooling := w.now().Before(w.cooldownUntil)
	w.mu.Unlock()

	if cooling {
		w.logger.Debug("skipping tick, recovery cooldown active")
		return
	}

	w.run()
}

// run executes one cycle and records the outcome. A failed cycle arms
// the recovery cooldown.
func (w *Worker) run() (int, error) {
	start := w.now()
	count, err := w.cycle()

	w.mu.Lock()
	w.lastRun = start
	w.lastForwarded = count
	w.lastErr = err
	if err != nil {
		w.cooldownUntil = w.now().Add(w.recoveryDelay)
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.WithError(err).WarnWithFields("cycle failed, recovery cooldown armed", map[string]interface{}{
			"recovery_delay": w.recoveryDelay,
		})
	} else {
		w.logger.DebugWithFields("cycle finished", map[string]interface{}{
			"forwarded": count,
			"duration":  w.now().Sub(start),
		})
	}

	return count, err
}
