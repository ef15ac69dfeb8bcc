package feature

import (
	"github.com/chewxy/math32"

	"codeberg.org/mkern/printmond/internal/hal"
)

const (
	// A frame with a standard deviation at or above this spread maps to
	// zero uniformity.
	uniformitySpreadC = 50.0

	// Empirical scale for the local gradient magnitude. A 40 degree
	// pixel-to-pixel step saturates the feature.
	gradientScaleC = 40.0
)

// ThermalUniformity maps the frame's temperature spread to [0,1]. A
// perfectly uniform frame yields 1; a spread of uniformitySpreadC or
// more clamps to 0.
func ThermalUniformity(frame []float32) float32 {
	if len(frame) == 0 {
		return 0
	}
	return clamp01(1 - stddev32(frame)/uniformitySpreadC)
}

// ThermalGradient is the maximum local 2-D finite-difference magnitude
// across the grid, normalized by gradientScaleC and clamped to [0,1].
func ThermalGradient(frame []float32) float32 {
	if len(frame) != hal.ThermalPixels {
		return 0
	}

	var maxMag float32
	for row := 0; row < hal.ThermalRows; row++ {
		for col := 0; col < hal.ThermalCols; col++ {
			v := frame[row*hal.ThermalCols+col]

			var dx, dy float32
			if col+1 < hal.ThermalCols {
				dx = frame[row*hal.ThermalCols+col+1] - v
			}
			if row+1 < hal.ThermalRows {
				dy = frame[(row+1)*hal.ThermalCols+col] - v
			}

			mag := math32.Hypot(dx, dy)
			if mag > maxMag {
				maxMag = mag
			}
		}
	}

	return clamp01(maxMag / gradientScaleC)
}

func stddev32(xs []float32) float32 {
	mean := mean32(xs)

	var sum float32
	for _, v := range xs {
		d := v - mean
		sum += d * d
	}

	return math32.Sqrt(sum / float32(len(xs)))
}

func mean32(xs []float32) float32 {
	var sum float32
	for _, v := range xs {
		sum += v
	}
	return sum / float32(len(xs))
}
