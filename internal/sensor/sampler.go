package sensor

import (
	"codeberg.org/mkern/printmond/internal/clock"
	"codeberg.org/mkern/printmond/internal/hal"
	"codeberg.org/mkern/printmond/internal/logger"
)

const (
	// Thermal array native cadence.
	thermalIntervalMS = 125 // 8 Hz

	// Flow rate recompute window.
	flowIntervalMS = 1000
)

// CurrentTransfer converts a current-sensor output voltage to amps.
type CurrentTransfer struct {
	ZeroVolts   float64 // sensor output at 0 A
	AmpsPerVolt float64
}

// SamplerConfig holds per-installation calibration.
type SamplerConfig struct {
	PulsesPerMM float64
	Hotend      *Calibration
	Bed         *Calibration
	Ambient     *Calibration
	Current     CurrentTransfer
}

// Sampler owns all sensor reads. Every subsystem that stops responding
// marks itself unavailable and keeps emitting its last good value with a
// stale flag; a failed device never blocks the main loop.
type Sampler struct {
	devices *hal.Devices
	clk     clock.Clock
	cfg     SamplerConfig

	lastTimestamp int64

	lastThermal   []float32
	thermalStale  bool
	nextThermalMS int64

	lastHotend  float64
	lastBed     float64
	lastAmbient float64
	tempStale   bool

	flowRate       float64
	cumulativeFlow float64
	flowStale      bool
	lastFlowMS     int64

	tare        float64
	lastWeight  float64
	weightStale bool

	lastCurrent [MotorChannels]float64
}

// NewSampler wires a sampler to the device set.
func NewSampler(devices *hal.Devices, clk clock.Clock, cfg SamplerConfig) *Sampler {
	if cfg.Hotend == nil {
		cfg.Hotend = DefaultThermistorTable()
	}
	if cfg.Bed == nil {
		cfg.Bed = DefaultThermistorTable()
	}
	if cfg.Ambient == nil {
		cfg.Ambient = DefaultThermistorTable()
	}
	if cfg.Current.AmpsPerVolt == 0 {
		cfg.Current.AmpsPerVolt = 10.0 // ACS712-style 100 mV/A
		cfg.Current.ZeroVolts = 2.5
	}
	if cfg.PulsesPerMM <= 0 {
		cfg.PulsesPerMM = 100.0 // stock encoder wheel
	}

	return &Sampler{
		devices:    devices,
		clk:        clk,
		cfg:        cfg,
		lastFlowMS: clk.Millis(),
	}
}

// Acquire produces the next frame. Called once per control tick; the
// thermal array and flow rate refresh at their own slower cadences.
func (s *Sampler) Acquire(layer int, completionPct float64) Frame {
	now := s.clk.Millis()
	if now <= s.lastTimestamp {
		now = s.lastTimestamp + 1
	}
	s.lastTimestamp = now

	s.sampleTemperatures()
	s.sampleThermal(now)
	s.sampleFlow(now)
	s.sampleWeight()
	s.sampleMotorCurrents()

	frame := Frame{
		Timestamp:      now,
		HotendTemp:     s.lastHotend,
		BedTemp:        s.lastBed,
		AmbientTemp:    s.lastAmbient,
		Thermal:        s.lastThermal,
		ThermalStale:   s.thermalStale,
		FlowRate:       s.flowRate,
		CumulativeFlow: s.cumulativeFlow,
		FlowStale:      s.flowStale,
		Weight:         s.lastWeight,
		WeightStale:    s.weightStale,
		MotorCurrent:   s.lastCurrent,
		TempStale:      s.tempStale,
		CurrentLayer:   layer,
		CompletionPct:  completionPct,
	}

	return frame
}

func (s *Sampler) sampleTemperatures() {
	hotendADC, err1 := s.devices.Analog.ReadADC(hal.ChannelHotend)
	bedADC, err2 := s.devices.Analog.ReadADC(hal.ChannelBed)
	ambientADC, err3 := s.devices.Analog.ReadADC(hal.ChannelAmbient)

	if err1 != nil || err2 != nil || err3 != nil {
		if !s.tempStale {
			logger.Warn().Msg("thermistor read failed, holding last values")
		}
		s.tempStale = true
		return
	}

	s.lastHotend = s.cfg.Hotend.Lookup(hotendADC)
	s.lastBed = s.cfg.Bed.Lookup(bedADC)
	s.lastAmbient = s.cfg.Ambient.Lookup(ambientADC)
	s.tempStale = false
}

func (s *Sampler) sampleThermal(now int64) {
	if now < s.nextThermalMS && s.lastThermal != nil {
		return
	}
	// The deadline accumulates so the average cadence tracks the
	// array's native rate even when ticks never land on a 125 ms
	// boundary; after a stall it resyncs instead of bursting reads.
	s.nextThermalMS += thermalIntervalMS
	if s.nextThermalMS <= now {
		s.nextThermalMS = now + thermalIntervalMS
	}

	frame, err := s.devices.Thermal.ReadFrame()
	if err != nil || !thermalFrameValid(frame) {
		if !s.thermalStale {
			logger.Warn().Msg("thermal camera read failed, holding last frame")
		}
		s.thermalStale = true
		return
	}

	s.lastThermal = frame
	s.thermalStale = false
}

func thermalFrameValid(frame []float32) bool {
	if len(frame) != hal.ThermalPixels {
		return false
	}
	for _, v := range frame {
		if float64(v) < ThermalMinC || float64(v) > ThermalMaxC {
			return false
		}
	}
	return true
}

func (s *Sampler) sampleFlow(now int64) {
	elapsed := now - s.lastFlowMS
	if elapsed < flowIntervalMS {
		return
	}
	s.lastFlowMS = now

	pulses := s.devices.Flow.ReadAndReset()
	mm := float64(pulses) / s.cfg.PulsesPerMM
	s.flowRate = mm / (float64(elapsed) / 1000.0)
	s.cumulativeFlow += mm
	s.flowStale = false
}

func (s *Sampler) sampleWeight() {
	raw, err := s.devices.Scale.ReadRaw()
	if err != nil {
		if !s.weightStale {
			logger.Warn().Msg("load cell read failed, holding last weight")
		}
		s.weightStale = true
		return
	}

	s.lastWeight = raw - s.tare
	s.weightStale = false
}

func (s *Sampler) sampleMotorCurrents() {
	for ch := 0; ch < MotorChannels; ch++ {
		volts, err := s.devices.Current.ReadVoltage(ch)
		if err != nil {
			continue // hold last value for this channel
		}
		s.lastCurrent[ch] = (volts - s.cfg.Current.ZeroVolts) * s.cfg.Current.AmpsPerVolt
	}
}

// Tare resets the weight zero to the current raw reading. Only invoked
// by explicit command, never automatically.
func (s *Sampler) Tare() error {
	raw, err := s.devices.Scale.ReadRaw()
	if err != nil {
		return err
	}
	s.tare = raw
	logger.Info().Float64("tare", raw).Msg("scale tared")
	return nil
}
