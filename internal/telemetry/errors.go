package telemetry

import "codeberg.org/mkern/printmond/internal/errors"

const (
	// Configuration errors
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("telemetry_invalid_db_path")

	// Uplink errors
	ErrUplinkOpen   = errors.ErrorCode("telemetry_uplink_open_failed")
	ErrUplinkClosed = errors.ErrorCode("telemetry_uplink_closed")

	// Storage errors
	ErrStorageInit       = errors.ErrorCode("telemetry_storage_init_failed")
	ErrStorageClose      = errors.ErrorCode("telemetry_storage_close_failed")
	ErrTransactionFailed = errors.ErrorCode("telemetry_transaction_failed")
	ErrSchemaInitFailed  = errors.ErrorCode("telemetry_schema_init_failed")

	// Operation errors
	ErrInvalidSnapshot = errors.ErrorCode("telemetry_invalid_snapshot")
	ErrServiceShutdown = errors.ErrorCode("telemetry_service_shutdown_failed")
)
