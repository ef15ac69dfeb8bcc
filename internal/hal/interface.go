// Package hal abstracts the hardware attached to the process monitor so
// the control core can run against simulated devices in tests.
package hal

// Thermal camera geometry, fixed by the sensor (32x24 IR array).
const (
	ThermalCols   = 32
	ThermalRows   = 24
	ThermalPixels = ThermalCols * ThermalRows
)

// Analog channel assignments.
const (
	ChannelHotend  = 0
	ChannelBed     = 1
	ChannelAmbient = 2
)

// ThermalCamera reads the IR pixel array. ReadFrame returns exactly
// ThermalPixels values in degrees Celsius, row-major.
type ThermalCamera interface {
	ReadFrame() ([]float32, error)
}

// AnalogReader reads raw ADC counts from a numbered channel.
type AnalogReader interface {
	ReadADC(channel int) (int, error)
}

// LoadCell reads the raw spool scale value in grams, before tare.
type LoadCell interface {
	ReadRaw() (float64, error)
}

// CurrentSensor reads the analog output voltage of a motor current
// sensor channel.
type CurrentSensor interface {
	ReadVoltage(channel int) (float64, error)
}

// HeaterOutput drives a PWM heater channel with a duty cycle in [0,1].
type HeaterOutput interface {
	Set(duty float64) error
	Get() float64
}

// EstopLine reports the dedicated hardware emergency-stop input. The pin
// is active-low and debounced in hardware; Asserted returns the logical
// state (true means stop).
type EstopLine interface {
	Asserted() bool
}

// Devices bundles every hardware handle the core needs. Passing this
// explicitly keeps the core free of hidden singletons.
type Devices struct {
	Thermal ThermalCamera
	Analog  AnalogReader
	Scale   LoadCell
	Current CurrentSensor
	Flow    *PulseCounter
	Estop   EstopLine
}
