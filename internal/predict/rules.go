package predict

import "codeberg.org/mkern/printmond/internal/feature"

// Rule thresholds. These come from bench characterization of the
// monitored printer family and are deliberately fixed: the rule path
// must stay deterministic so it can serve as the always-available
// fallback when the model is missing or erroring.
const (
	hotendSaturated = 0.95
	hotendCold      = 0.40
	flowNearZero    = 0.15
	uniformityLow   = 0.50
	uniformityWeak  = 0.70
	stabilityLow    = 0.40
	stabilityWeak   = 0.60
	gradientHigh    = 0.60
	currentUnstable = 0.40

	// Confidence on the rule path is capped below the model path.
	ruleConfidenceCap = 0.70
)

// ruleScore computes (success probability, confidence) from fixed
// thresholds. Deterministic given identical input.
func ruleScore(v feature.Vector) (float64, float64) {
	score := 1.0
	triggered := 0

	penalize := func(amount float64) {
		score -= amount
		triggered++
	}

	switch {
	case v[feature.IdxHotendNorm] >= hotendSaturated:
		penalize(0.25)
	case v[feature.IdxHotendNorm] < hotendCold:
		penalize(0.15)
	}

	if v[feature.IdxFlowNorm] < flowNearZero {
		penalize(0.20)
	}

	switch {
	case v[feature.IdxThermalUniformity] < uniformityLow:
		penalize(0.20)
	case v[feature.IdxThermalUniformity] < uniformityWeak:
		penalize(0.10)
	}

	switch {
	case v[feature.IdxFlowStability] < stabilityLow:
		penalize(0.20)
	case v[feature.IdxFlowStability] < stabilityWeak:
		penalize(0.05)
	}

	if v[feature.IdxThermalGradient] > gradientHigh {
		penalize(0.15)
	}

	if v[feature.IdxCurrentStability] < currentUnstable {
		penalize(0.10)
	}

	if score < 0 {
		score = 0
	}

	conf := 0.50 + 0.05*float64(triggered)
	if conf > ruleConfidenceCap {
		conf = ruleConfidenceCap
	}

	return score, conf
}

// classifyFailure picks the nearest matching failure type. Only called
// when failure risk exceeds the classification threshold; evaluation
// order encodes rule priority.
func classifyFailure(v feature.Vector) FailureType {
	switch {
	case v[feature.IdxHotendNorm] >= hotendSaturated:
		return FailureOverheating
	case v[feature.IdxFlowNorm] < flowNearZero:
		return FailureUnderextrusion
	case v[feature.IdxThermalUniformity] < uniformityLow:
		return FailurePoorAdhesion
	case v[feature.IdxFlowStability] < stabilityLow:
		return FailureFlowIssues
	default:
		return FailureUnknown
	}
}
