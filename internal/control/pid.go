// Package control implements the closed-loop temperature and flow
// controllers. Each controller is tick-gated against a monotonic clock
// and never blocks waiting for time to pass.
package control

// PIDConfig holds controller gains and output limits.
type PIDConfig struct {
	Kp float64
	Ki float64
	Kd float64

	// Output clamp, the actuator's valid range.
	OutMin float64
	OutMax float64

	// Integral clamp preventing windup. Zero values default to the
	// output range scaled by Ki.
	IntegralMax float64

	// Differentiate on measurement instead of error to suppress
	// derivative spikes on setpoint changes.
	DerivativeOnMeasurement bool
}

// PID is a single proportional-integral-derivative controller. State is
// mutated once per control tick; it persists for the controller's
// lifetime and resets only on setpoint change or fault recovery.
type PID struct {
	cfg      PIDConfig
	setpoint float64

	integral   float64
	lastError  float64
	lastInput  float64
	lastOutput float64
	lastMS     int64
	primed     bool
}

// NewPID creates a controller with the given gains.
func NewPID(cfg PIDConfig) *PID {
	if cfg.IntegralMax == 0 && cfg.Ki != 0 {
		cfg.IntegralMax = cfg.OutMax / cfg.Ki
	}
	return &PID{cfg: cfg}
}

// SetSetpoint changes the target. A changed setpoint resets accumulated
// state so stale integral from the old operating point cannot kick the
// output.
func (p *PID) SetSetpoint(setpoint float64) {
	if setpoint == p.setpoint {
		return
	}
	p.setpoint = setpoint
	p.Reset()
}

// Setpoint returns the current target.
func (p *PID) Setpoint() float64 {
	return p.setpoint
}

// Reset clears accumulated state. Also used on fault recovery.
func (p *PID) Reset() {
	p.integral = 0
	p.lastError = 0
	p.lastInput = 0
	p.lastOutput = 0
	p.primed = false
}

// Update computes the next output for a measurement taken at nowMS.
// The first call after a reset primes the derivative and integral state.
func (p *PID) Update(nowMS int64, input float64) float64 {
	err := p.setpoint - input

	if !p.primed {
		p.primed = true
		p.lastError = err
		p.lastInput = input
		p.lastMS = nowMS
		p.lastOutput = clampF(p.cfg.Kp*err, p.cfg.OutMin, p.cfg.OutMax)
		return p.lastOutput
	}

	dt := float64(nowMS-p.lastMS) / 1000.0
	if dt <= 0 {
		return p.lastOutput
	}

	integral := p.integral + err*dt
	integral = clampF(integral, -p.cfg.IntegralMax, p.cfg.IntegralMax)

	var derivative float64
	if p.cfg.DerivativeOnMeasurement {
		derivative = -(input - p.lastInput) / dt
	} else {
		derivative = (err - p.lastError) / dt
	}

	raw := p.cfg.Kp*err + p.cfg.Ki*integral + p.cfg.Kd*derivative
	output := clampF(raw, p.cfg.OutMin, p.cfg.OutMax)

	// Anti-windup: keep the old integral while the output is saturated.
	if raw == output {
		p.integral = integral
	}

	p.lastError = err
	p.lastInput = input
	p.lastMS = nowMS
	p.lastOutput = output

	return output
}

// Output returns the last computed output.
func (p *PID) Output() float64 {
	return p.lastOutput
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
