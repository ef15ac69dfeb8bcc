// Package safety enforces the hard interlocks. The monitor owns a
// privileged path to the actuator bank that bypasses the control loop:
// when it trips, heater outputs go to zero no matter what any other
// component wants.
package safety

import (
	"codeberg.org/mkern/printmond/internal/clock"
	"codeberg.org/mkern/printmond/internal/hal"
	"codeberg.org/mkern/printmond/internal/logger"
	"codeberg.org/mkern/printmond/internal/sensor"
)

// Config holds the interlock thresholds.
type Config struct {
	MaxHotendC float64
	MaxBedC    float64

	// Thermal runaway detection.
	RunawayGainC      float64 // minimum rise expected per check window
	RunawayCheckMS    int64
	MaxRiseRateCps    float64 // rise faster than this is implausible
	HeaterOnThreshold float64 // duty at or above this counts as heating
	TargetHysteresisC float64

	// Flow deviation.
	FlowTolerance float64 // relative deviation from target
	FlowGraceMS   int64   // warning-to-fault escalation window
}

// DefaultConfig returns the stock interlock thresholds.
func DefaultConfig() Config {
	return Config{
		MaxHotendC:        300.0,
		MaxBedC:           150.0,
		RunawayGainC:      2.0,
		RunawayCheckMS:    20000,
		MaxRiseRateCps:    10.0,
		HeaterOnThreshold: 0.5,
		TargetHysteresisC: 5.0,
		FlowTolerance:     0.5,
		FlowGraceMS:       5000,
	}
}

// Monitor runs the safety state machine once per control tick.
type Monitor struct {
	cfg  Config
	clk  clock.Clock
	bank *hal.ActuatorBank
	line hal.EstopLine

	state  State
	flags  Flags
	health float64

	flowTarget float64
	flowBadMS  int64 // monotonic ms when flow first left tolerance, -1 if in tolerance

	hotendRunaway runawayTracker
	bedRunaway    runawayTracker
}

// New creates a monitor bound to the actuator bank and the hardware
// e-stop line.
func New(cfg Config, clk clock.Clock, bank *hal.ActuatorBank, line hal.EstopLine) *Monitor {
	m := &Monitor{
		cfg:       cfg,
		clk:       clk,
		bank:      bank,
		line:      line,
		state:     StateNormal,
		health:    100,
		flowBadMS: -1,
	}
	m.hotendRunaway.cfg = &m.cfg
	m.bedRunaway.cfg = &m.cfg
	return m
}

// SetFlowTarget sets the nominal flow rate used for deviation checks.
// A zero target disables the flow interlock.
func (m *Monitor) SetFlowTarget(target float64) {
	m.flowTarget = target
}

// Inputs carries the per-tick evaluation inputs beyond the frame.
type Inputs struct {
	HotendTarget float64
	BedTarget    float64
	HotendDuty   float64
	BedDuty      float64
}

// Evaluate advances the state machine. Called every control tick; the
// software fault path cuts heaters within the same tick it detects a
// condition.
func (m *Monitor) Evaluate(frame sensor.Frame, in Inputs) State {
	now := m.clk.Millis()

	// The hardware line is authoritative and immediate. Once latched,
	// nothing below runs again until an explicit hardware reset.
	if m.state == StateEmergencyStop {
		return m.state
	}
	if m.line.Asserted() {
		m.bank.Kill()
		m.state = StateEmergencyStop
		m.health = 0
		logger.Error().Msg("emergency stop asserted, actuators latched off")
		return m.state
	}

	m.flags.Overtemp = frame.HotendTemp > m.cfg.MaxHotendC || frame.BedTemp > m.cfg.MaxBedC

	m.flags.ThermalRunaway = m.hotendRunaway.check(now, frame.HotendTemp, in.HotendTarget, in.HotendDuty) ||
		m.bedRunaway.check(now, frame.BedTemp, in.BedTarget, in.BedDuty)

	flowEscalated := m.checkFlow(now, frame)

	prev := m.state
	switch {
	case m.flags.Overtemp || m.flags.ThermalRunaway || flowEscalated:
		m.state = StateFault
	case m.flags.Any():
		m.state = StateWarning
	default:
		m.state = StateNormal
	}

	if m.state == StateFault {
		// Privileged cutoff: zero heaters every tick while faulted,
		// overriding whatever the control loop wrote this cycle.
		_ = m.bank.SetHotend(0)
		_ = m.bank.SetBed(0)
	}

	if m.state != prev {
		m.logTransition(prev, frame)
		if prev == StateFault && m.state == StateNormal {
			m.hotendRunaway.reset()
			m.bedRunaway.reset()
		}
	}

	m.updateHealth(frame)

	return m.state
}

func (m *Monitor) checkFlow(now int64, frame sensor.Frame) bool {
	if m.flowTarget <= 0 || frame.FlowStale {
		m.flags.FlowAnomaly = false
		m.flowBadMS = -1
		return false
	}

	deviation := (frame.FlowRate - m.flowTarget) / m.flowTarget
	if deviation < 0 {
		deviation = -deviation
	}

	if deviation <= m.cfg.FlowTolerance {
		m.flags.FlowAnomaly = false
		m.flowBadMS = -1
		return false
	}

	m.flags.FlowAnomaly = true
	if m.flowBadMS < 0 {
		m.flowBadMS = now
	}

	return now-m.flowBadMS >= m.cfg.FlowGraceMS
}

func (m *Monitor) updateHealth(frame sensor.Frame) {
	h := 100.0
	switch m.state {
	case StateWarning:
		h -= 25
	case StateFault:
		h -= 60
	case StateEmergencyStop:
		h = 0
	}
	if frame.ThermalStale {
		h -= 5
	}
	if frame.TempStale {
		h -= 10
	}
	if frame.FlowStale {
		h -= 5
	}
	if h < 0 {
		h = 0
	}
	m.health = h
}

func (m *Monitor) logTransition(prev State, frame sensor.Frame) {
	evt := logger.Warn()
	if m.state == StateFault || m.state == StateEmergencyStop {
		evt = logger.Error()
	}
	evt.
		Str("from", prev.String()).
		Str("to", m.state.String()).
		Bool("overtemp", m.flags.Overtemp).
		Bool("thermal_runaway", m.flags.ThermalRunaway).
		Bool("flow_anomaly", m.flags.FlowAnomaly).
		Float64("hotend_temp", frame.HotendTemp).
		Float64("bed_temp", frame.BedTemp).
		Msg("safety state transition")
}

// State returns the current state.
func (m *Monitor) State() State { return m.state }

// ActiveFlags returns the current fault flags.
func (m *Monitor) ActiveFlags() Flags { return m.flags }

// HealthScore returns the current health score in [0,100].
func (m *Monitor) HealthScore() float64 { return m.health }

// HardwareReset models the manual reset required after an emergency
// stop. It is never called by the control core itself.
func (m *Monitor) HardwareReset() {
	if m.state != StateEmergencyStop {
		return
	}
	m.bank.Reset()
	m.state = StateNormal
	m.flags = Flags{}
	m.health = 100
	m.flowBadMS = -1
	m.hotendRunaway.reset()
	m.bedRunaway.reset()
	logger.Info().Msg("emergency stop cleared by hardware reset")
}
