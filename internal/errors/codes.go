package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrMissingConfig   ErrorCode = "missing_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Sensor errors
	ErrSensorStale       ErrorCode = "sensor_stale"
	ErrSensorUnavailable ErrorCode = "sensor_unavailable"
	ErrSensorRange       ErrorCode = "sensor_out_of_range"
	ErrCalibration       ErrorCode = "invalid_calibration"

	// Actuator errors
	ErrActuatorRange  ErrorCode = "actuator_out_of_range"
	ErrActuatorWrite  ErrorCode = "actuator_write_failed"
	ErrActuatorLocked ErrorCode = "actuator_locked_out"

	// Prediction errors
	ErrModelUnavailable ErrorCode = "model_unavailable"
	ErrModelLoad        ErrorCode = "model_load_failed"
	ErrInference        ErrorCode = "inference_failed"

	// Safety errors
	ErrSafetyFault  ErrorCode = "safety_fault"
	ErrEstopLatched ErrorCode = "estop_latched"
	ErrThermalFault ErrorCode = "thermal_fault"
	ErrFlowFault    ErrorCode = "flow_fault"

	// Application errors
	ErrInitApp  ErrorCode = "init_app_failed"
	ErrMainLoop ErrorCode = "main_loop_failed"

	// Operation errors
	ErrOperationFailed  ErrorCode = "operation_failed"
	ErrTimeout          ErrorCode = "operation_timeout"
	ErrInvalidOperation ErrorCode = "invalid_operation"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrNotImplemented:    "Operation not implemented",
	ErrUnavailable:       "Service unavailable",
	ErrInvalidConfig:     "Invalid configuration",
	ErrMissingConfig:     "Missing configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrReadConfig:        "Failed to read configuration",
	ErrInvalidInterval:   "Invalid interval value",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrAlreadyRunning:    "Another instance is already running",
	ErrSensorStale:       "Sensor reading is stale",
	ErrSensorUnavailable: "Sensor subsystem unavailable",
	ErrSensorRange:       "Sensor reading outside physical range",
	ErrCalibration:       "Invalid calibration table",
	ErrActuatorRange:     "Actuator command outside valid range",
	ErrActuatorWrite:     "Failed to write actuator output",
	ErrActuatorLocked:    "Actuator outputs locked by emergency stop",
	ErrModelUnavailable:  "Quality model unavailable",
	ErrModelLoad:         "Failed to load quality model",
	ErrInference:         "Model inference failed",
	ErrSafetyFault:       "Safety fault detected",
	ErrEstopLatched:      "Emergency stop latched",
	ErrThermalFault:      "Thermal fault detected",
	ErrFlowFault:         "Flow fault detected",
	ErrInitApp:           "Failed to initialize application",
	ErrMainLoop:          "Error in main loop",
	ErrOperationFailed:   "Operation failed",
	ErrTimeout:           "Operation timed out",
	ErrInvalidOperation:  "Invalid operation",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
