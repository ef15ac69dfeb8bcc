package feature

import (
	"github.com/chewxy/math32"

	"codeberg.org/mkern/printmond/internal/sensor"
)

const (
	// Bounded history sizes. The extractor is the sole owner of these
	// rings; a single producer appends and all reads happen on the same
	// goroutine, so no locking is needed.
	thermalHistory = 100
	flowHistory    = 10
	currentHistory = 20

	// Normalization constants.
	hotendScaleC   = 300.0
	bedScaleC      = 150.0
	maxFlowRateMMS = 10.0
	maxLayers      = 1000.0
)

// Extractor turns frame history into normalized feature vectors. All
// feature functions are deterministic given identical input history.
type Extractor struct {
	flowTarget float64

	thermal [][]float32
	flow    []float32
	current []float32
}

// NewExtractor creates an extractor. flowTarget is the nominal flow
// rate; a measured rate equal to the target maps the flow feature to 0.5.
func NewExtractor(flowTarget float64) *Extractor {
	if flowTarget <= 0 {
		flowTarget = 2.0
	}
	return &Extractor{
		flowTarget: flowTarget,
		thermal:    make([][]float32, 0, thermalHistory),
		flow:       make([]float32, 0, flowHistory),
		current:    make([]float32, 0, currentHistory),
	}
}

// Update ingests a frame and recomputes the feature vector. Stale
// subsystem values still enter the rings; they carry the last good
// reading by construction.
func (e *Extractor) Update(frame sensor.Frame) Vector {
	if frame.Thermal != nil && !frame.ThermalStale {
		e.thermal = appendBounded(e.thermal, frame.Thermal, thermalHistory)
	}
	e.flow = appendBounded(e.flow, float32(frame.FlowRate), flowHistory)

	var sum float32
	for _, a := range frame.MotorCurrent {
		sum += float32(a)
	}
	e.current = appendBounded(e.current, sum/float32(len(frame.MotorCurrent)), currentHistory)

	var v Vector
	v[IdxHotendNorm] = clamp01(float32(frame.HotendTemp / hotendScaleC))
	v[IdxBedNorm] = clamp01(float32(frame.BedTemp / bedScaleC))
	v[IdxFlowNorm] = clamp01(float32(frame.FlowRate / (2 * e.flowTarget)))
	v[IdxFlowStability] = Stability(e.flow)
	v[IdxCurrentStability] = Stability(e.current)
	v[IdxLayerProgress] = clamp01(float32(frame.CurrentLayer) / maxLayers)
	v[IdxCompletion] = clamp01(float32(frame.CompletionPct / 100.0))
	v[IdxPrintSpeed] = clamp01(float32(frame.FlowRate / maxFlowRateMMS))

	if n := len(e.thermal); n > 0 {
		latest := e.thermal[n-1]
		v[IdxThermalUniformity] = ThermalUniformity(latest)
		v[IdxThermalGradient] = ThermalGradient(latest)
	}

	return v
}

// Stability maps a sample window to [0,1] as one minus the coefficient
// of variation. An empty or zero-mean window reads as fully unstable.
func Stability(xs []float32) float32 {
	if len(xs) < 2 {
		return 0
	}

	mean := mean32(xs)
	if math32.Abs(mean) < 1e-6 {
		return 0
	}

	cov := stddev32(xs) / math32.Abs(mean)
	return clamp01(1 - cov)
}

// ThermalDepth reports how many thermal frames are held.
func (e *Extractor) ThermalDepth() int {
	return len(e.thermal)
}

func appendBounded[T any](ring []T, v T, max int) []T {
	ring = append(ring, v)
	if len(ring) > max {
		ring = ring[1:]
	}
	return ring
}
