package safety

// State is the safety state machine position.
type State int

const (
	StateNormal State = iota
	StateWarning
	StateFault
	StateEmergencyStop
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateWarning:
		return "warning"
	case StateFault:
		return "fault"
	case StateEmergencyStop:
		return "emergency_stop"
	default:
		return "unknown"
	}
}

// Flags records which fault conditions are currently active.
type Flags struct {
	Overtemp       bool
	ThermalRunaway bool
	FlowAnomaly    bool
}

func (f Flags) Any() bool {
	return f.Overtemp || f.ThermalRunaway || f.FlowAnomaly
}
