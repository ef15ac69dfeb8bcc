package hal

import (
	"sync"

	"codeberg.org/mkern/printmond/internal/errors"
)

// ActuatorBank owns every heat-producing output. The bank carries the
// emergency latch: once killed, all writes are rejected and outputs stay
// at zero until an explicit hardware-level reset.
type ActuatorBank struct {
	mu     sync.Mutex
	hotend HeaterOutput
	bed    HeaterOutput
	killed bool
}

// NewActuatorBank wraps the heater outputs.
func NewActuatorBank(hotend, bed HeaterOutput) *ActuatorBank {
	return &ActuatorBank{hotend: hotend, bed: bed}
}

// SetHotend drives the hotend heater. Rejected while the bank is killed.
func (b *ActuatorBank) SetHotend(duty float64) error {
	return b.set(b.hotend, duty)
}

// SetBed drives the bed heater. Rejected while the bank is killed.
func (b *ActuatorBank) SetBed(duty float64) error {
	return b.set(b.bed, duty)
}

func (b *ActuatorBank) set(out HeaterOutput, duty float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.killed {
		return errors.New().New(errors.ErrActuatorLocked)
	}
	if duty < 0 || duty > 1 {
		return errors.New().WithData(errors.ErrActuatorRange, duty)
	}

	return out.Set(duty)
}

// Kill zeroes every output and latches the bank. Kill never fails: a
// write error on one output must not prevent zeroing the others.
func (b *ActuatorBank) Kill() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.killed = true
	_ = b.hotend.Set(0)
	_ = b.bed.Set(0)
}

// Killed reports whether the latch is set.
func (b *ActuatorBank) Killed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.killed
}

// Reset clears the latch. This models the manual hardware reset; nothing
// in the control core calls it automatically.
func (b *ActuatorBank) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.killed = false
}

// HotendDuty returns the last commanded hotend duty.
func (b *ActuatorBank) HotendDuty() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hotend.Get()
}

// BedDuty returns the last commanded bed duty.
func (b *ActuatorBank) BedDuty() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bed.Get()
}
