package control

import (
	"codeberg.org/mkern/printmond/internal/clock"
	"codeberg.org/mkern/printmond/internal/hal"
	"codeberg.org/mkern/printmond/internal/logger"
	"codeberg.org/mkern/printmond/internal/sensor"
)

// DefaultTickMS is the control recompute cadence.
const DefaultTickMS = 100

// LoopConfig holds the per-controller setup.
type LoopConfig struct {
	TickMS        int64
	DropoutCycles int // missed cycles before the fail-safe zeroes heaters

	Hotend PIDConfig
	Bed    PIDConfig
	Flow   PIDConfig

	FlowControl bool
}

// DefaultLoopConfig returns gains suitable for a stock hotend and bed.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		TickMS:        DefaultTickMS,
		DropoutCycles: 10,
		Hotend: PIDConfig{
			Kp: 0.050, Ki: 0.003, Kd: 0.120,
			OutMin: 0, OutMax: 1,
			DerivativeOnMeasurement: true,
		},
		Bed: PIDConfig{
			Kp: 0.040, Ki: 0.002, Kd: 0.060,
			OutMin: 0, OutMax: 1,
			DerivativeOnMeasurement: true,
		},
		Flow: PIDConfig{
			Kp: 0.200, Ki: 0.010, Kd: 0.000,
			OutMin: -0.5, OutMax: 0.5,
		},
	}
}

// Loop runs the independent PID controllers and writes heater commands
// to the actuator bank. The safety monitor can cut the bank at any time;
// writes rejected by the latch are ignored here.
type Loop struct {
	cfg    LoopConfig
	clk    clock.Clock
	bank   *hal.ActuatorBank
	hotend *PID
	bed    *PID
	flow   *PID

	lastTickMS int64
	missed     int
	faulted    bool
	ticked     bool
}

// NewLoop wires the controllers to the actuator bank.
func NewLoop(cfg LoopConfig, clk clock.Clock, bank *hal.ActuatorBank) *Loop {
	if cfg.TickMS <= 0 {
		cfg.TickMS = DefaultTickMS
	}
	return &Loop{
		cfg:    cfg,
		clk:    clk,
		bank:   bank,
		hotend: NewPID(cfg.Hotend),
		bed:    NewPID(cfg.Bed),
		flow:   NewPID(cfg.Flow),
	}
}

// SetTargets updates all setpoints.
func (l *Loop) SetTargets(hotend, bed, flow float64) {
	l.hotend.SetSetpoint(hotend)
	l.bed.SetSetpoint(bed)
	l.flow.SetSetpoint(flow)
}

// Tick advances the controllers for one frame. If fewer than TickMS
// milliseconds have elapsed since the previous recompute the call is a
// no-op; the loop never blocks waiting for the gate to open.
func (l *Loop) Tick(frame sensor.Frame) {
	now := l.clk.Millis()
	if l.ticked && now-l.lastTickMS < l.cfg.TickMS {
		return
	}
	l.lastTickMS = now
	l.ticked = true

	if frame.TempStale {
		l.missed++
		if l.missed >= l.cfg.DropoutCycles {
			// Too long on stale input: PID math on held values is
			// worse than no heat at all.
			if !l.faulted {
				logger.Error().Int("missed_cycles", l.missed).
					Msg("sensor dropout limit reached, zeroing heaters")
				l.faulted = true
			}
			_ = l.bank.SetHotend(0)
			_ = l.bank.SetBed(0)
		}
		// Below the limit: hold last outputs, recompute nothing.
		return
	}

	if l.missed > 0 {
		l.missed = 0
		if l.faulted {
			l.faulted = false
			l.hotend.Reset()
			l.bed.Reset()
			logger.Info().Msg("sensor recovered, controllers reset")
		}
	}

	hotendOut := l.hotend.Update(now, frame.HotendTemp)
	bedOut := l.bed.Update(now, frame.BedTemp)
	if l.cfg.FlowControl {
		l.flow.Update(now, frame.FlowRate)
	}

	if err := l.bank.SetHotend(hotendOut); err != nil {
		logger.Debug().Err(err).Msg("hotend write rejected")
	}
	if err := l.bank.SetBed(bedOut); err != nil {
		logger.Debug().Err(err).Msg("bed write rejected")
	}
}

// HotendOutput returns the last hotend duty command.
func (l *Loop) HotendOutput() float64 { return l.hotend.Output() }

// BedOutput returns the last bed duty command.
func (l *Loop) BedOutput() float64 { return l.bed.Output() }

// FlowAdjust returns the flow trim command, zero unless flow control is
// enabled.
func (l *Loop) FlowAdjust() float64 {
	if !l.cfg.FlowControl {
		return 0
	}
	return l.flow.Output()
}

// Faulted reports whether the dropout fail-safe is active.
func (l *Loop) Faulted() bool { return l.faulted }
