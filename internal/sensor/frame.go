package sensor

// MotorChannels is the number of monitored stepper current channels.
const MotorChannels = 4

// Physical range of the thermal array in degrees Celsius. Frames with
// pixels outside this range are treated as a device fault, never passed
// downstream.
const (
	ThermalMinC = -40.0
	ThermalMaxC = 300.0
)

// Frame is one timestamped snapshot of every monitored signal. Frames
// are produced once per sampling tick and consumed immediately; only the
// feature extractor retains a bounded history.
type Frame struct {
	Timestamp int64 // monotonic milliseconds, strictly increasing

	HotendTemp  float64
	BedTemp     float64
	AmbientTemp float64

	Thermal      []float32 // hal.ThermalPixels values, row-major
	ThermalStale bool

	FlowRate       float64 // mm/s over the last flow window
	CumulativeFlow float64 // mm since start
	FlowStale      bool

	Weight      float64 // grams, relative to tare
	WeightStale bool

	MotorCurrent [MotorChannels]float64 // amps
	TempStale    bool

	CurrentLayer  int
	CompletionPct float64
}
