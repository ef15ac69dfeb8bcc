package hal

import "sync/atomic"

// PulseCounter accumulates flow-meter pulses delivered from an interrupt
// context. The handler side is restricted to a single atomic increment;
// the reader side drains the counter atomically so a read can never
// observe a torn or double-counted value.
type PulseCounter struct {
	pulses atomic.Uint32
}

// NewPulseCounter returns a zeroed counter.
func NewPulseCounter() *PulseCounter {
	return &PulseCounter{}
}

// Pulse records one pulse. Safe to call from the interrupt path.
func (c *PulseCounter) Pulse() {
	c.pulses.Add(1)
}

// ReadAndReset returns the pulses accumulated since the previous call
// and clears the counter in the same atomic operation. This is the
// critical-section accessor: pulses arriving during the swap land in
// the next window.
func (c *PulseCounter) ReadAndReset() uint32 {
	return c.pulses.Swap(0)
}

// Peek returns the current count without clearing it.
func (c *PulseCounter) Peek() uint32 {
	return c.pulses.Load()
}
