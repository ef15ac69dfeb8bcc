package control_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mkern/printmond/internal/clock"
	"codeberg.org/mkern/printmond/internal/control"
	"codeberg.org/mkern/printmond/internal/hal"
	"codeberg.org/mkern/printmond/internal/sensor"
)

func newTestLoop(t *testing.T) (*control.Loop, *hal.ActuatorBank, *clock.Fake) {
	t.Helper()

	clk := clock.NewFake()
	bank := hal.NewActuatorBank(hal.NewSimHeater(), hal.NewSimHeater())

	cfg := control.DefaultLoopConfig()
	cfg.DropoutCycles = 3
	loop := control.NewLoop(cfg, clk, bank)
	loop.SetTargets(210, 60, 0)

	return loop, bank, clk
}

func coldFrame() sensor.Frame {
	return sensor.Frame{HotendTemp: 25.0, BedTemp: 25.0}
}

func TestLoopDrivesHeatersTowardTargets(t *testing.T) {
	loop, bank, _ := newTestLoop(t)

	loop.Tick(coldFrame())

	assert.Greater(t, bank.HotendDuty(), 0.0)
	assert.Greater(t, bank.BedDuty(), 0.0)
	assert.LessOrEqual(t, bank.HotendDuty(), 1.0)
	assert.LessOrEqual(t, bank.BedDuty(), 1.0)
}

func TestLoopTickGate(t *testing.T) {
	loop, bank, clk := newTestLoop(t)

	loop.Tick(coldFrame())
	first := bank.HotendDuty()
	require.Greater(t, first, 0.0)

	// Same millisecond: the gate holds and nothing recomputes.
	warm := coldFrame()
	warm.HotendTemp = 210.0
	warm.BedTemp = 60.0
	loop.Tick(warm)
	assert.InDelta(t, first, bank.HotendDuty(), 1e-9)

	clk.Advance(100 * time.Millisecond)
	loop.Tick(warm)
	assert.Less(t, bank.HotendDuty(), first, "at-target measurement must back the output off")
}

func TestLoopDropoutFailsafe(t *testing.T) {
	loop, bank, clk := newTestLoop(t)

	loop.Tick(coldFrame())
	require.Greater(t, bank.HotendDuty(), 0.0)

	stale := coldFrame()
	stale.TempStale = true

	// Below the dropout limit the last output is held.
	for i := 0; i < 2; i++ {
		clk.Advance(100 * time.Millisecond)
		loop.Tick(stale)
		assert.False(t, loop.Faulted())
		assert.Greater(t, bank.HotendDuty(), 0.0)
	}

	// At the limit both heaters go to zero.
	clk.Advance(100 * time.Millisecond)
	loop.Tick(stale)
	assert.True(t, loop.Faulted())
	assert.InDelta(t, 0.0, bank.HotendDuty(), 1e-9)
	assert.InDelta(t, 0.0, bank.BedDuty(), 1e-9)

	// Heaters stay off while the dropout persists.
	clk.Advance(100 * time.Millisecond)
	loop.Tick(stale)
	assert.True(t, loop.Faulted())
	assert.InDelta(t, 0.0, bank.HotendDuty(), 1e-9)

	// Fresh sensor data recovers the loop with reset controllers.
	clk.Advance(100 * time.Millisecond)
	loop.Tick(coldFrame())
	assert.False(t, loop.Faulted())
	assert.Greater(t, bank.HotendDuty(), 0.0)
}

func TestLoopToleratesKilledBank(t *testing.T) {
	loop, bank, _ := newTestLoop(t)
	bank.Kill()

	// Rejected writes are not an error condition for the loop.
	loop.Tick(coldFrame())

	assert.InDelta(t, 0.0, bank.HotendDuty(), 1e-9)
	assert.InDelta(t, 0.0, bank.BedDuty(), 1e-9)
}

func TestLoopFlowAdjustDisabledByDefault(t *testing.T) {
	loop, _, _ := newTestLoop(t)

	frame := coldFrame()
	frame.FlowRate = 5.0
	loop.Tick(frame)

	assert.Zero(t, loop.FlowAdjust())
}

func TestLoopFlowAdjustBounded(t *testing.T) {
	clk := clock.NewFake()
	bank := hal.NewActuatorBank(hal.NewSimHeater(), hal.NewSimHeater())

	cfg := control.DefaultLoopConfig()
	cfg.FlowControl = true
	loop := control.NewLoop(cfg, clk, bank)
	loop.SetTargets(210, 60, 2.0)

	frame := coldFrame()
	frame.FlowRate = 0.0
	for i := 0; i < 20; i++ {
		loop.Tick(frame)
		clk.Advance(100 * time.Millisecond)

		adj := loop.FlowAdjust()
		assert.GreaterOrEqual(t, adj, -0.5)
		assert.LessOrEqual(t, adj, 0.5)
	}
}
