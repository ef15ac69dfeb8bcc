package safety_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mkern/printmond/internal/clock"
	"codeberg.org/mkern/printmond/internal/hal"
	"codeberg.org/mkern/printmond/internal/safety"
	"codeberg.org/mkern/printmond/internal/sensor"
)

func newTestMonitor(t *testing.T) (*safety.Monitor, *hal.ActuatorBank, *hal.SimEstop, *clock.Fake) {
	t.Helper()

	clk := clock.NewFake()
	bank := hal.NewActuatorBank(hal.NewSimHeater(), hal.NewSimHeater())
	estop := hal.NewSimEstop()
	m := safety.New(safety.DefaultConfig(), clk, bank, estop)

	return m, bank, estop, clk
}

func tempFrame(hotend, bed float64) sensor.Frame {
	return sensor.Frame{HotendTemp: hotend, BedTemp: bed}
}

func TestOvertempFaultsAndClears(t *testing.T) {
	m, bank, _, clk := newTestMonitor(t)
	require.NoError(t, bank.SetHotend(0.8))

	state := m.Evaluate(tempFrame(305, 60), safety.Inputs{HotendTarget: 210})
	assert.Equal(t, safety.StateFault, state)
	assert.True(t, m.ActiveFlags().Overtemp)
	assert.InDelta(t, 0.0, bank.HotendDuty(), 1e-9, "fault cuts heaters the same tick")
	assert.InDelta(t, 0.0, bank.BedDuty(), 1e-9)

	// The fault clears itself once the condition does.
	clk.Advance(time.Second)
	state = m.Evaluate(tempFrame(299, 60), safety.Inputs{HotendTarget: 210})
	assert.Equal(t, safety.StateNormal, state)
	assert.InDelta(t, 100.0, m.HealthScore(), 1e-9)
}

func TestBedOvertempFaults(t *testing.T) {
	m, _, _, _ := newTestMonitor(t)

	state := m.Evaluate(tempFrame(200, 151), safety.Inputs{BedTarget: 60})
	assert.Equal(t, safety.StateFault, state)
}

func TestFaultOverridesControlWritesEveryTick(t *testing.T) {
	m, bank, _, clk := newTestMonitor(t)

	m.Evaluate(tempFrame(305, 60), safety.Inputs{})
	require.Equal(t, safety.StateFault, m.State())

	// Control loop writes between ticks are zeroed again on the next
	// evaluation for as long as the fault holds.
	require.NoError(t, bank.SetHotend(0.9))
	clk.Advance(100 * time.Millisecond)
	m.Evaluate(tempFrame(305, 60), safety.Inputs{})
	assert.InDelta(t, 0.0, bank.HotendDuty(), 1e-9)
}

func TestEmergencyStopLatches(t *testing.T) {
	m, bank, estop, clk := newTestMonitor(t)
	require.NoError(t, bank.SetHotend(0.7))

	estop.Assert(true)
	state := m.Evaluate(tempFrame(100, 40), safety.Inputs{})
	assert.Equal(t, safety.StateEmergencyStop, state)
	assert.True(t, bank.Killed())
	assert.InDelta(t, 0.0, bank.HotendDuty(), 1e-9)
	assert.InDelta(t, 0.0, m.HealthScore(), 1e-9)

	// Releasing the line does not release the latch; only a hardware
	// reset does.
	estop.Assert(false)
	clk.Advance(time.Second)
	state = m.Evaluate(tempFrame(25, 25), safety.Inputs{})
	assert.Equal(t, safety.StateEmergencyStop, state)
	assert.Error(t, bank.SetHotend(0.5))
}

func TestHardwareResetClearsEmergencyStop(t *testing.T) {
	m, bank, estop, _ := newTestMonitor(t)

	estop.Assert(true)
	m.Evaluate(tempFrame(100, 40), safety.Inputs{})
	require.Equal(t, safety.StateEmergencyStop, m.State())

	estop.Assert(false)
	m.HardwareReset()

	assert.Equal(t, safety.StateNormal, m.State())
	assert.False(t, bank.Killed())
	assert.NoError(t, bank.SetHotend(0.5))
	assert.InDelta(t, 100.0, m.HealthScore(), 1e-9)
}

func TestHardwareResetIgnoredOutsideEmergencyStop(t *testing.T) {
	m, _, _, _ := newTestMonitor(t)

	m.Evaluate(tempFrame(305, 60), safety.Inputs{})
	require.Equal(t, safety.StateFault, m.State())

	m.HardwareReset()
	assert.Equal(t, safety.StateFault, m.State())
}

func TestThermalRunawayStalledHeating(t *testing.T) {
	m, _, _, clk := newTestMonitor(t)

	// Full heater command, 110 degrees below target, no temperature
	// movement at all.
	in := safety.Inputs{HotendTarget: 210, HotendDuty: 1.0}

	state := m.Evaluate(tempFrame(100, 40), in)
	assert.Equal(t, safety.StateNormal, state, "detection needs a full check window")

	clk.Advance(20 * time.Second)
	state = m.Evaluate(tempFrame(100, 40), in)
	assert.Equal(t, safety.StateFault, state)
	assert.True(t, m.ActiveFlags().ThermalRunaway)
}

func TestThermalRunawayNotTriggeredByHealthyHeating(t *testing.T) {
	m, _, _, clk := newTestMonitor(t)

	in := safety.Inputs{HotendTarget: 210, HotendDuty: 1.0}

	// Gaining a few degrees every window keeps the tracker satisfied.
	temp := 100.0
	for i := 0; i < 6; i++ {
		state := m.Evaluate(tempFrame(temp, 40), in)
		assert.Equal(t, safety.StateNormal, state, "iteration %d", i)
		clk.Advance(10 * time.Second)
		temp += 3.0
	}
}

func TestImplausibleRiseRateFaults(t *testing.T) {
	m, _, _, clk := newTestMonitor(t)

	m.Evaluate(tempFrame(50, 40), safety.Inputs{})
	clk.Advance(time.Second)

	// 30 degrees in one second cannot be a real thermistor.
	state := m.Evaluate(tempFrame(80, 40), safety.Inputs{})
	assert.Equal(t, safety.StateFault, state)
	assert.True(t, m.ActiveFlags().ThermalRunaway)
}

func TestFlowDeviationEscalation(t *testing.T) {
	m, _, _, clk := newTestMonitor(t)
	m.SetFlowTarget(2.0)

	frame := tempFrame(200, 60)
	frame.FlowRate = 0.5 // 75% below target

	state := m.Evaluate(frame, safety.Inputs{})
	assert.Equal(t, safety.StateWarning, state)
	assert.True(t, m.ActiveFlags().FlowAnomaly)
	assert.True(t, m.ActiveFlags().Any())
	assert.InDelta(t, 75.0, m.HealthScore(), 1e-9)

	clk.Advance(2 * time.Second)
	state = m.Evaluate(frame, safety.Inputs{})
	assert.Equal(t, safety.StateWarning, state, "still inside the grace window")

	clk.Advance(3 * time.Second)
	state = m.Evaluate(frame, safety.Inputs{})
	assert.Equal(t, safety.StateFault, state, "sustained deviation escalates")

	// Recovery clears both the fault and the grace timer.
	frame.FlowRate = 2.0
	clk.Advance(time.Second)
	state = m.Evaluate(frame, safety.Inputs{})
	assert.Equal(t, safety.StateNormal, state)
	assert.False(t, m.ActiveFlags().FlowAnomaly)
	assert.False(t, m.ActiveFlags().Any())
}

func TestFlowCheckSkippedWhenStaleOrUntargeted(t *testing.T) {
	m, _, _, _ := newTestMonitor(t)

	// No target set: any flow reading is acceptable.
	frame := tempFrame(200, 60)
	frame.FlowRate = 0.0
	assert.Equal(t, safety.StateNormal, m.Evaluate(frame, safety.Inputs{}))

	// Stale flow never drives the interlock.
	m.SetFlowTarget(2.0)
	frame.FlowStale = true
	assert.Equal(t, safety.StateNormal, m.Evaluate(frame, safety.Inputs{}))
}

func TestHealthScoreDegradesWithStaleSensors(t *testing.T) {
	m, _, _, _ := newTestMonitor(t)

	frame := tempFrame(200, 60)
	frame.TempStale = true
	frame.ThermalStale = true
	frame.FlowStale = true

	state := m.Evaluate(frame, safety.Inputs{})
	assert.Equal(t, safety.StateNormal, state)
	assert.InDelta(t, 80.0, m.HealthScore(), 1e-9)
}
