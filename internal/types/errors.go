package types

import "fmt"

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants. All components MUST use these constants
// instead of hardcoded strings.
const (
	// Forecast payload parsing
	ErrCodeForecastPayloadInvalid ErrorCode = "forecast_payload_invalid"
	ErrCodeForecastPayloadEmpty   ErrorCode = "forecast_payload_empty"

	// Sensor reads
	ErrCodeSensorUnavailable ErrorCode = "sensor_unavailable"

	// Hub / upstream
	ErrCodeHubUnavailable ErrorCode = "upstream_hub_unavailable"
	ErrCodeHubAuth        ErrorCode = "upstream_hub_auth_failed"

	// Notification delivery
	ErrCodeNotifyDeliveryFailed ErrorCode = "notify_delivery_failed"

	// Configuration
	ErrCodeConfigInvalid ErrorCode = "config_invalid"

	// Inbound event feed
	ErrCodeEventInvalid ErrorCode = "event_invalid"

	// Internal
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// AppError is the standard application error type used throughout the daemon.
// All domain errors should be expressed as AppError to enable consistent
// error categorization and error chain support.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
