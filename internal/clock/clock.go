// Package clock provides an injectable monotonic time source so that
// tick-gated control paths can be tested without real elapsed time.
package clock

import (
	"sync"
	"time"
)

// Clock is a monotonic time source. Millis never goes backwards and is
// unaffected by wall-clock adjustments.
type Clock interface {
	// Millis returns monotonic milliseconds since an arbitrary epoch.
	Millis() int64

	// Now returns the current wall-clock time for record timestamps.
	Now() time.Time
}

type monotonicClock struct {
	start time.Time
}

// NewMonotonic returns a Clock backed by the runtime monotonic clock.
func NewMonotonic() Clock {
	return &monotonicClock{start: time.Now()}
}

func (c *monotonicClock) Millis() int64 {
	return time.Since(c.start).Milliseconds()
}

func (c *monotonicClock) Now() time.Time {
	return time.Now()
}

// Fake is a manually advanced Clock for tests.
type Fake struct {
	mu     sync.Mutex
	millis int64
	wall   time.Time
}

// NewFake returns a Fake clock starting at zero.
func NewFake() *Fake {
	return &Fake{wall: time.Unix(0, 0)}
}

func (f *Fake) Millis() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.millis
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wall
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.millis += d.Milliseconds()
	f.wall = f.wall.Add(d)
}

// Set moves the fake clock to an absolute millisecond value.
func (f *Fake) Set(millis int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wall = f.wall.Add(time.Duration(millis-f.millis) * time.Millisecond)
	f.millis = millis
}
