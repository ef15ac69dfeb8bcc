package sensor

import (
	"sort"

	"codeberg.org/mkern/printmond/internal/errors"
)

// CalPoint maps a raw ADC count to a temperature.
type CalPoint struct {
	ADC  int
	Temp float64
}

// Calibration is a piecewise-linear ADC-to-temperature table. Inputs
// outside the table are clamped to the nearest endpoint, never
// extrapolated.
type Calibration struct {
	points []CalPoint
}

// NewCalibration builds a table from at least two points. Points are
// sorted by ADC count; duplicate counts are rejected.
func NewCalibration(points []CalPoint) (*Calibration, error) {
	errFactory := errors.New()

	if len(points) < 2 {
		return nil, errFactory.WithMessage(errors.ErrCalibration, "need at least two calibration points")
	}

	sorted := make([]CalPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ADC < sorted[j].ADC })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].ADC == sorted[i-1].ADC {
			return nil, errFactory.WithData(errors.ErrCalibration, sorted[i].ADC)
		}
	}

	return &Calibration{points: sorted}, nil
}

// Lookup converts a raw ADC count to degrees Celsius.
func (c *Calibration) Lookup(adc int) float64 {
	pts := c.points

	if adc <= pts[0].ADC {
		return pts[0].Temp
	}
	if adc >= pts[len(pts)-1].ADC {
		return pts[len(pts)-1].Temp
	}

	i := sort.Search(len(pts), func(i int) bool { return pts[i].ADC >= adc })
	lo, hi := pts[i-1], pts[i]
	frac := float64(adc-lo.ADC) / float64(hi.ADC-lo.ADC)

	return lo.Temp + frac*(hi.Temp-lo.Temp)
}

// DefaultThermistorTable is the stock 100k NTC table used when no
// per-channel calibration is configured.
func DefaultThermistorTable() *Calibration {
	cal, _ := NewCalibration([]CalPoint{
		{ADC: 80, Temp: 300.0},
		{ADC: 210, Temp: 250.0},
		{ADC: 480, Temp: 200.0},
		{ADC: 940, Temp: 150.0},
		{ADC: 1650, Temp: 100.0},
		{ADC: 2450, Temp: 60.0},
		{ADC: 3100, Temp: 30.0},
		{ADC: 3650, Temp: 0.0},
	})
	return cal
}
