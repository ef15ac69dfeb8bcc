package feature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codeberg.org/mkern/printmond/internal/feature"
	"codeberg.org/mkern/printmond/internal/sensor"
)

func testFrame() sensor.Frame {
	return sensor.Frame{
		Timestamp:     1000,
		HotendTemp:    210.0,
		BedTemp:       60.0,
		AmbientTemp:   25.0,
		Thermal:       uniformFrame(25.0),
		FlowRate:      2.0,
		MotorCurrent:  [sensor.MotorChannels]float64{1.0, 1.0, 1.0, 1.0},
		CurrentLayer:  100,
		CompletionPct: 50.0,
	}
}

func TestExtractorNormalization(t *testing.T) {
	e := feature.NewExtractor(2.0)
	v := e.Update(testFrame())

	assert.InDelta(t, 0.7, float64(v[feature.IdxHotendNorm]), 1e-6)
	assert.InDelta(t, 0.4, float64(v[feature.IdxBedNorm]), 1e-6)
	assert.InDelta(t, 0.5, float64(v[feature.IdxFlowNorm]), 1e-6, "on-target flow maps to mid-scale")
	assert.InDelta(t, 1.0, float64(v[feature.IdxThermalUniformity]), 1e-6)
	assert.InDelta(t, 0.0, float64(v[feature.IdxThermalGradient]), 1e-6)
	assert.InDelta(t, 0.1, float64(v[feature.IdxLayerProgress]), 1e-6)
	assert.InDelta(t, 0.5, float64(v[feature.IdxCompletion]), 1e-6)
	assert.InDelta(t, 0.2, float64(v[feature.IdxPrintSpeed]), 1e-6)

	// One sample is not enough history for a variation estimate.
	assert.Zero(t, v[feature.IdxFlowStability])
	assert.Zero(t, v[feature.IdxCurrentStability])
}

func TestExtractorStabilityFromHistory(t *testing.T) {
	e := feature.NewExtractor(2.0)

	frame := testFrame()
	var v feature.Vector
	for i := 0; i < 10; i++ {
		v = e.Update(frame)
	}

	assert.InDelta(t, 1.0, float64(v[feature.IdxFlowStability]), 1e-6, "constant flow is fully stable")
	assert.InDelta(t, 1.0, float64(v[feature.IdxCurrentStability]), 1e-6)
}

func TestExtractorOutputAlwaysInRange(t *testing.T) {
	e := feature.NewExtractor(2.0)

	frame := testFrame()
	frame.HotendTemp = 500.0
	frame.BedTemp = -10.0
	frame.FlowRate = 100.0
	frame.CurrentLayer = 5000
	frame.CompletionPct = 150.0

	v := e.Update(frame)
	for i, x := range v {
		assert.GreaterOrEqual(t, x, float32(0), "feature %d below range", i)
		assert.LessOrEqual(t, x, float32(1), "feature %d above range", i)
	}
	assert.InDelta(t, 1.0, float64(v[feature.IdxHotendNorm]), 1e-6)
	assert.InDelta(t, 0.0, float64(v[feature.IdxBedNorm]), 1e-6)
}

func TestExtractorStaleThermalNotAppended(t *testing.T) {
	e := feature.NewExtractor(2.0)

	hot := testFrame()
	hot.Thermal = uniformFrame(-25.0)
	for i := 384; i < len(hot.Thermal); i++ {
		hot.Thermal[i] = 75.0
	}
	v := e.Update(hot)
	assert.InDelta(t, 0.0, float64(v[feature.IdxThermalUniformity]), 1e-3)
	assert.Equal(t, 1, e.ThermalDepth())

	// A stale frame keeps the last good array in play.
	stale := testFrame()
	stale.ThermalStale = true
	v = e.Update(stale)
	assert.Equal(t, 1, e.ThermalDepth())
	assert.InDelta(t, 0.0, float64(v[feature.IdxThermalUniformity]), 1e-3)
}

func TestExtractorBoundedHistory(t *testing.T) {
	e := feature.NewExtractor(2.0)

	frame := testFrame()
	for i := 0; i < 150; i++ {
		e.Update(frame)
	}

	assert.Equal(t, 100, e.ThermalDepth())
}
