package feature

// Indices into a Vector. The order is the wire order used by the
// quality model and must not change without retraining.
const (
	IdxHotendNorm = iota
	IdxBedNorm
	IdxFlowNorm
	IdxThermalUniformity
	IdxFlowStability
	IdxCurrentStability
	IdxThermalGradient
	IdxLayerProgress
	IdxCompletion
	IdxPrintSpeed

	Size
)

// Vector is the normalized feature set derived from sensor history.
// Every element is in [0,1].
type Vector [Size]float32

// Names returns the canonical feature names in wire order.
func Names() [Size]string {
	return [Size]string{
		"hotend_norm",
		"bed_norm",
		"flow_norm",
		"thermal_uniformity",
		"flow_stability",
		"motor_current_stability",
		"thermal_gradient",
		"layer_progress",
		"completion",
		"print_speed",
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
