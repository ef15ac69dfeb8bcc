package sensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mkern/printmond/internal/sensor"
)

func TestCalibrationInterpolates(t *testing.T) {
	cal, err := sensor.NewCalibration([]sensor.CalPoint{
		{ADC: 200, Temp: 100.0},
		{ADC: 100, Temp: 0.0},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, cal.Lookup(100), 1e-9)
	assert.InDelta(t, 50.0, cal.Lookup(150), 1e-9)
	assert.InDelta(t, 100.0, cal.Lookup(200), 1e-9)
}

func TestCalibrationClampsToEndpoints(t *testing.T) {
	cal, err := sensor.NewCalibration([]sensor.CalPoint{
		{ADC: 100, Temp: 0.0},
		{ADC: 200, Temp: 100.0},
	})
	require.NoError(t, err)

	// Out-of-table counts clamp, never extrapolate.
	assert.InDelta(t, 0.0, cal.Lookup(0), 1e-9)
	assert.InDelta(t, 100.0, cal.Lookup(4095), 1e-9)
}

func TestCalibrationRejectsDegenerateTables(t *testing.T) {
	_, err := sensor.NewCalibration([]sensor.CalPoint{{ADC: 100, Temp: 0.0}})
	assert.Error(t, err, "A single point is not a table")

	_, err = sensor.NewCalibration([]sensor.CalPoint{
		{ADC: 100, Temp: 0.0},
		{ADC: 100, Temp: 50.0},
	})
	assert.Error(t, err, "Duplicate ADC counts are ambiguous")
}

func TestDefaultThermistorTable(t *testing.T) {
	cal := sensor.DefaultThermistorTable()

	assert.InDelta(t, 300.0, cal.Lookup(80), 1e-9)
	assert.InDelta(t, 30.0, cal.Lookup(3100), 1e-9)
	assert.InDelta(t, 0.0, cal.Lookup(4095), 1e-9, "Counts past the table clamp to the coldest entry")

	// NTC curve: temperature strictly decreases with counts.
	prev := cal.Lookup(80)
	for adc := 90; adc <= 3650; adc += 10 {
		cur := cal.Lookup(adc)
		assert.LessOrEqual(t, cur, prev, "table must be monotonic at ADC %d", adc)
		prev = cur
	}
}
