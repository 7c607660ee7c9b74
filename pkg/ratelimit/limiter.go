package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for pacing outbound calls
type Limiter interface {
	// Wait blocks until the next call is allowed to go out
	Wait()
	// Reset forgets the pacing state
	Reset()
}

// Pacer enforces a minimum spacing between consecutive calls across the
// whole process. It holds its mutex through the sleep deliberately: a
// second caller arriving mid-wait queues behind the first instead of both
// going out together.
type Pacer struct {
	minInterval time.Duration
	mu          sync.Mutex
	last        time.Time

	// Injectable for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewPacer creates a pacer with the given minimum spacing between calls
func NewPacer(minInterval time.Duration) *Pacer {
	return &Pacer{
		minInterval: minInterval,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// NewPacerWithClock creates a pacer with an injected clock and sleep,
// so tests can verify pacing without real delays
func NewPacerWithClock(minInterval time.Duration, now func() time.Time, sleep func(time.Duration)) *Pacer {
	return &Pacer{
		minInterval: minInterval,
		now:         now,
		sleep:       sleep,
	}
}

// Wait blocks until at least minInterval has elapsed since the previous
// call went out, then records the new call
func (p *Pacer) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		elapsed := p.now().Sub(p.last)
		if elapsed < p.minInterval {
			p.sleep(p.minInterval - elapsed)
		}
	}

	p.last = p.now()
}

// Reset forgets the last call time
func (p *Pacer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = time.Time{}
}
