// Package timing provides the time base for the protocol state machines.
//
// Protocol code never calls the time package directly.  Settle delays go
// through Clock.Delay, which busy-waits like the microsecond waits on a
// microcontroller, and cadence waits go through Clock.Sleep.  Tests inject a
// Virtual clock to make every phase of a read cycle deterministic.
package timing

import (
	"sync"
	"time"
)

type Clock interface {
	// Now returns the time elapsed since the clock's epoch.
	Now() time.Duration

	// Delay waits for d without yielding the processor.
	Delay(d time.Duration)

	// Sleep waits for at least d and may yield.
	Sleep(d time.Duration)
}

// System is the monotonic wall clock.
type System struct {
	epoch time.Time
}

func NewSystem() *System {
	return &System{epoch: time.Now()}
}

func (s *System) Now() time.Duration {
	return time.Since(s.epoch)
}

func (s *System) Delay(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		// spin
	}
}

func (s *System) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Virtual is a manually advanced clock.  Delay and Sleep return immediately
// after moving the time forward.
type Virtual struct {
	mu  sync.Mutex
	now time.Duration
}

func (v *Virtual) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) Delay(d time.Duration) { v.Advance(d) }

func (v *Virtual) Sleep(d time.Duration) { v.Advance(d) }

// Advance moves the clock forward by d.  Negative durations are ignored.
func (v *Virtual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	v.mu.Lock()
	v.now += d
	v.mu.Unlock()
}
