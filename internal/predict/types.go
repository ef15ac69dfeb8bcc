package predict

// FailureType is the closed set of failure classifications.
type FailureType int

const (
	FailureNone FailureType = iota
	FailureOverheating
	FailureUnderextrusion
	FailurePoorAdhesion
	FailureFlowIssues
	FailureUnknown
)

var failureNames = map[FailureType]string{
	FailureNone:           "none",
	FailureOverheating:    "overheating",
	FailureUnderextrusion: "underextrusion",
	FailurePoorAdhesion:   "poor_adhesion",
	FailureFlowIssues:     "flow_issues",
	FailureUnknown:        "unknown",
}

func (f FailureType) String() string {
	if n, ok := failureNames[f]; ok {
		return n
	}
	return "unknown"
}

// Prediction is one quality evaluation. FailureRisk is always
// 1 - SuccessProbability.
type Prediction struct {
	Timestamp          int64 // monotonic ms
	SuccessProbability float64
	FailureRisk        float64
	FailureType        FailureType
	Confidence         float64
	FromModel          bool
}
