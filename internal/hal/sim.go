package hal

import (
	"sync"

	"codeberg.org/mkern/printmond/internal/errors"
)

// Simulated devices. These back the hardware interfaces for bench runs
// and unit tests; values are set by the test and read by the core.

// SimThermalCamera serves a settable frame and can be forced to fail.
type SimThermalCamera struct {
	mu    sync.Mutex
	frame []float32
	fail  bool
}

// NewSimThermalCamera starts with a uniform frame at the given temperature.
func NewSimThermalCamera(ambient float32) *SimThermalCamera {
	frame := make([]float32, ThermalPixels)
	for i := range frame {
		frame[i] = ambient
	}
	return &SimThermalCamera{frame: frame}
}

func (c *SimThermalCamera) ReadFrame() ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail {
		return nil, errors.New().New(errors.ErrSensorUnavailable)
	}
	out := make([]float32, len(c.frame))
	copy(out, c.frame)
	return out, nil
}

// SetFrame replaces the served frame.
func (c *SimThermalCamera) SetFrame(frame []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame
}

// SetPixel sets a single pixel by row and column.
func (c *SimThermalCamera) SetPixel(row, col int, value float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame[row*ThermalCols+col] = value
}

// Fail makes subsequent reads return an error.
func (c *SimThermalCamera) Fail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

// SimAnalogReader serves settable ADC counts per channel.
type SimAnalogReader struct {
	mu     sync.Mutex
	counts map[int]int
	fail   bool
}

func NewSimAnalogReader() *SimAnalogReader {
	return &SimAnalogReader{counts: make(map[int]int)}
}

func (r *SimAnalogReader) ReadADC(channel int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail {
		return 0, errors.New().New(errors.ErrSensorUnavailable)
	}
	return r.counts[channel], nil
}

func (r *SimAnalogReader) SetADC(channel, counts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[channel] = counts
}

func (r *SimAnalogReader) Fail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

// SimLoadCell serves a settable raw weight.
type SimLoadCell struct {
	mu   sync.Mutex
	raw  float64
	fail bool
}

func NewSimLoadCell(raw float64) *SimLoadCell {
	return &SimLoadCell{raw: raw}
}

func (l *SimLoadCell) ReadRaw() (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fail {
		return 0, errors.New().New(errors.ErrSensorUnavailable)
	}
	return l.raw, nil
}

func (l *SimLoadCell) SetRaw(raw float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.raw = raw
}

func (l *SimLoadCell) Fail(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = fail
}

// SimCurrentSensor serves settable analog voltages per channel.
type SimCurrentSensor struct {
	mu    sync.Mutex
	volts map[int]float64
}

func NewSimCurrentSensor() *SimCurrentSensor {
	return &SimCurrentSensor{volts: make(map[int]float64)}
}

func (s *SimCurrentSensor) ReadVoltage(channel int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volts[channel], nil
}

func (s *SimCurrentSensor) SetVoltage(channel int, volts float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volts[channel] = volts
}

// SimHeater records the last commanded duty.
type SimHeater struct {
	mu   sync.Mutex
	duty float64
}

func NewSimHeater() *SimHeater {
	return &SimHeater{}
}

func (h *SimHeater) Set(duty float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.duty = duty
	return nil
}

func (h *SimHeater) Get() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.duty
}

// SimEstop is a settable emergency-stop line.
type SimEstop struct {
	mu       sync.Mutex
	asserted bool
}

func NewSimEstop() *SimEstop {
	return &SimEstop{}
}

func (e *SimEstop) Asserted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.asserted
}

func (e *SimEstop) Assert(asserted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.asserted = asserted
}

// NewSimDevices returns a full simulated device set at ambient conditions.
func NewSimDevices() (*Devices, *SimThermalCamera, *SimAnalogReader, *SimEstop) {
	thermal := NewSimThermalCamera(25.0)
	analog := NewSimAnalogReader()
	analog.SetADC(ChannelHotend, 3100)  // ~30 C on the stock table
	analog.SetADC(ChannelBed, 3100)
	analog.SetADC(ChannelAmbient, 3100)
	estop := NewSimEstop()
	devices := &Devices{
		Thermal: thermal,
		Analog:  analog,
		Scale:   NewSimLoadCell(0),
		Current: NewSimCurrentSensor(),
		Flow:    NewPulseCounter(),
		Estop:   estop,
	}
	return devices, thermal, analog, estop
}
