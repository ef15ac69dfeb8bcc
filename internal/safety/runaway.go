package safety

// runawayTracker watches one heater for thermal runaway: temperature
// failing to rise despite a sustained heater-on command, or rising
// faster than physically plausible.
type runawayTracker struct {
	cfg *Config

	watching    bool
	windowStart int64
	startTemp   float64
	lastTemp    float64
	lastMS      int64
	primed      bool
}

// check returns true when a runaway condition is detected. duty is the
// commanded heater output, target the setpoint.
func (t *runawayTracker) check(nowMS int64, temp, target, duty float64) bool {
	defer func() {
		t.lastTemp = temp
		t.lastMS = nowMS
		t.primed = true
	}()

	// Implausibly fast rise is a runaway regardless of command state.
	if t.primed && nowMS > t.lastMS {
		rate := (temp - t.lastTemp) / (float64(nowMS-t.lastMS) / 1000.0)
		if rate > t.cfg.MaxRiseRateCps {
			return true
		}
	}

	heating := duty >= t.cfg.HeaterOnThreshold && temp < target-t.cfg.TargetHysteresisC

	if !heating {
		t.watching = false
		return false
	}

	if !t.watching {
		t.watching = true
		t.windowStart = nowMS
		t.startTemp = temp
		return false
	}

	if temp >= t.startTemp+t.cfg.RunawayGainC {
		// Gained enough this window; start the next one.
		t.windowStart = nowMS
		t.startTemp = temp
		return false
	}

	// Sustained heater-on without the expected gain.
	return nowMS-t.windowStart >= t.cfg.RunawayCheckMS
}

func (t *runawayTracker) reset() {
	t.watching = false
	t.primed = false
}
