package telemetry

import (
	"codeberg.org/mkern/printmond/internal/predict"
	"codeberg.org/mkern/printmond/internal/sensor"
)

// UplinkRecord is the 1 Hz scalar record sent to the gateway. The
// thermal array travels separately at its native cadence.
type UplinkRecord struct {
	Type      string `json:"type"` // "status"
	SessionID string `json:"session_id"`
	Timestamp int64  `json:"timestamp"`

	HotendTemp     float64    `json:"hotend_temp"`
	BedTemp        float64    `json:"bed_temp"`
	AmbientTemp    float64    `json:"ambient_temp"`
	FlowRate       float64    `json:"flow_rate"`
	CumulativeFlow float64    `json:"cumulative_flow"`
	Weight         float64    `json:"weight"`
	MotorCurrent   [4]float64 `json:"motor_current"`
	CurrentLayer   int        `json:"current_layer"`
	CompletionPct  float64    `json:"completion_pct"`

	HotendDuty float64 `json:"hotend_duty"`
	BedDuty    float64 `json:"bed_duty"`

	SuccessProbability float64 `json:"success_probability"`
	FailureRisk        float64 `json:"failure_risk"`
	FailureType        string  `json:"failure_type"`
	Confidence         float64 `json:"confidence"`

	SafetyState string  `json:"safety_state"`
	HealthScore float64 `json:"health_score"`

	ThermalStale bool `json:"thermal_stale,omitempty"`
	TempStale    bool `json:"temp_stale,omitempty"`
	FlowStale    bool `json:"flow_stale,omitempty"`

	UplinkDropped uint64 `json:"uplink_dropped,omitempty"`
}

// ThermalRecord carries one thermal frame at the 8 Hz native cadence.
type ThermalRecord struct {
	Type      string    `json:"type"` // "thermal"
	SessionID string    `json:"session_id"`
	Timestamp int64     `json:"timestamp"`
	Pixels    []float32 `json:"pixels"`
	Stale     bool      `json:"stale,omitempty"`
}

// AlertEvent is emitted when failure risk crosses the alert threshold.
type AlertEvent struct {
	Type        string  `json:"type"` // "alert"
	SessionID   string  `json:"session_id"`
	Timestamp   int64   `json:"timestamp"`
	FailureRisk float64 `json:"failure_risk"`
	FailureType string  `json:"failure_type"`
	Confidence  float64 `json:"confidence"`
}

// BuildUplinkRecord assembles a status record from the latest frame,
// prediction, and commanded heater duties.
func BuildUplinkRecord(sessionID string, frame sensor.Frame, pred predict.Prediction, safetyState string, health, hotendDuty, bedDuty float64, dropped uint64) UplinkRecord {
	return UplinkRecord{
		Type:               "status",
		SessionID:          sessionID,
		Timestamp:          frame.Timestamp,
		HotendTemp:         frame.HotendTemp,
		BedTemp:            frame.BedTemp,
		AmbientTemp:        frame.AmbientTemp,
		FlowRate:           frame.FlowRate,
		CumulativeFlow:     frame.CumulativeFlow,
		Weight:             frame.Weight,
		MotorCurrent:       frame.MotorCurrent,
		CurrentLayer:       frame.CurrentLayer,
		CompletionPct:      frame.CompletionPct,
		HotendDuty:         hotendDuty,
		BedDuty:            bedDuty,
		SuccessProbability: pred.SuccessProbability,
		FailureRisk:        pred.FailureRisk,
		FailureType:        pred.FailureType.String(),
		Confidence:         pred.Confidence,
		SafetyState:        safetyState,
		HealthScore:        health,
		ThermalStale:       frame.ThermalStale,
		TempStale:          frame.TempStale,
		FlowStale:          frame.FlowStale,
		UplinkDropped:      dropped,
	}
}
