package errors

import "fmt"

// ErrorCode represents a Memorio error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"      // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"            // 404
	ErrNoCamerasAvailable ErrorCode = "NO_CAMERAS_AVAILABLE" // 404
	ErrDeviceUnavailable  ErrorCode = "DEVICE_UNAVAILABLE"   // 503
	ErrSessionMissing     ErrorCode = "SESSION_MISSING"      // 409
	ErrInputInvalid       ErrorCode = "INPUT_INVALID"        // 422
	ErrInvalidOperation   ErrorCode = "INVALID_OPERATION"    // 409
	ErrExportFailed       ErrorCode = "EXPORT_FAILED"        // 500
	ErrFileSystem         ErrorCode = "FILESYSTEM"           // 500
	ErrPlusRequired       ErrorCode = "PLUS_REQUIRED"        // 402
	ErrInternal           ErrorCode = "INTERNAL"             // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a memory cannot be found.
func NewNotFound(identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("memory not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewNoCamerasAvailable creates an error for when device discovery finds no cameras.
func NewNoCamerasAvailable() *Error {
	return &Error{
		Code:    ErrNoCamerasAvailable,
		Status:  404,
		Message: "no capture devices available",
	}
}

// NewDeviceUnavailable creates an error for a missing or failing capture device.
func NewDeviceUnavailable(msg string, cause error) *Error {
	return &Error{
		Code:    ErrDeviceUnavailable,
		Status:  503,
		Message: msg,
		cause:   cause,
	}
}

// NewSessionMissing creates an error for operations against an unprepared session.
func NewSessionMissing() *Error {
	return &Error{
		Code:    ErrSessionMissing,
		Status:  409,
		Message: "capture session is missing or not running",
	}
}

// NewInputInvalid creates an error for device inputs that could not be wired.
func NewInputInvalid(msg string, cause error) *Error {
	return &Error{
		Code:    ErrInputInvalid,
		Status:  422,
		Message: msg,
		cause:   cause,
	}
}

// NewInvalidOperation creates an error for a state transition that is not allowed.
func NewInvalidOperation(msg string) *Error {
	return &Error{
		Code:    ErrInvalidOperation,
		Status:  409,
		Message: msg,
	}
}

// NewExportFailed wraps an underlying transcoder error.
func NewExportFailed(cause error) *Error {
	msg := "export failed"
	if cause != nil {
		msg = fmt.Sprintf("export failed: %v", cause)
	}
	return &Error{
		Code:    ErrExportFailed,
		Status:  500,
		Message: msg,
		cause:   cause,
	}
}

// NewFileSystem creates an error for filesystem side effects that matter to the caller.
func NewFileSystem(msg string, cause error) *Error {
	return &Error{
		Code:    ErrFileSystem,
		Status:  500,
		Message: msg,
		cause:   cause,
	}
}

// NewPlusRequired creates a 402 error for features gated behind the paid tier.
func NewPlusRequired(feature string) *Error {
	return &Error{
		Code:    ErrPlusRequired,
		Status:  402,
		Message: fmt.Sprintf("%s requires Memorio Plus", feature),
		Details: map[string]any{"feature": feature},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is a memorio Error with the given code.
func Is(err error, code ErrorCode) bool {
	if mErr, ok := err.(*Error); ok {
		return mErr.Code == code
	}
	return false
}
