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

	// Hardware errors
	ErrDeviceNotReady ErrorCode = "device_not_ready"
	ErrLineRequest    ErrorCode = "gpio_line_request_failed"
	ErrLineRead       ErrorCode = "gpio_line_read_failed"
	ErrLineWrite      ErrorCode = "gpio_line_write_failed"
	ErrAnalogRead     ErrorCode = "analog_read_failed"

	// Application errors
	ErrInitApp  ErrorCode = "init_app_failed"
	ErrMainLoop ErrorCode = "main_loop_failed"

	// Operation errors
	ErrOperationFailed  ErrorCode = "operation_failed"
	ErrTimeout          ErrorCode = "operation_timeout"
	ErrInvalidOperation ErrorCode = "invalid_operation"

	// Transport errors
	ErrNotJoined       ErrorCode = "not_joined"
	ErrPublishFailed   ErrorCode = "publish_failed"
	ErrConnectFailed   ErrorCode = "connect_failed"
	ErrSubscribeFailed ErrorCode = "subscribe_failed"

	// Storage errors
	ErrStoreInit  ErrorCode = "store_init_failed"
	ErrStoreRead  ErrorCode = "store_read_failed"
	ErrStoreWrite ErrorCode = "store_write_failed"
	ErrStoreClose ErrorCode = "store_close_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:         "Internal error occurred",
	ErrInvalidArgument:  "Invalid argument provided",
	ErrNotImplemented:   "Operation not implemented",
	ErrUnavailable:      "Service unavailable",
	ErrInvalidConfig:    "Invalid configuration",
	ErrMissingConfig:    "Missing configuration",
	ErrBindFlags:        "Failed to bind flags",
	ErrReadConfig:       "Failed to read configuration",
	ErrInvalidInterval:  "Invalid interval value",
	ErrInvalidLogLevel:  "Invalid log level",
	ErrInitFailed:       "Initialization failed",
	ErrShutdownFailed:   "Shutdown failed",
	ErrDeviceNotReady:   "Hardware device not ready",
	ErrLineRequest:      "Failed to request GPIO line",
	ErrLineRead:         "Failed to read GPIO line",
	ErrLineWrite:        "Failed to write GPIO line",
	ErrAnalogRead:       "Failed to read analog channel",
	ErrInitApp:          "Failed to initialize application",
	ErrMainLoop:         "Error in main loop",
	ErrOperationFailed:  "Operation failed",
	ErrTimeout:          "Operation timed out",
	ErrInvalidOperation: "Invalid operation",
	ErrNotJoined:        "Not joined to network",
	ErrPublishFailed:    "Failed to publish report",
	ErrConnectFailed:    "Failed to connect to broker",
	ErrSubscribeFailed:  "Failed to subscribe to command topic",
	ErrStoreInit:        "Failed to initialize store",
	ErrStoreRead:        "Failed to read from store",
	ErrStoreWrite:       "Failed to write to store",
	ErrStoreClose:       "Failed to close store",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
