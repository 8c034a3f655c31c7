package utils

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrForbidden       = "FORBIDDEN" // Authenticated but not permitted
	ErrInvalidToken    = "INVALID_TOKEN"

	// Store errors
	ErrAccessDenied = "ACCESS_DENIED" // Store rejected the operation
	ErrUnavailable  = "UNAVAILABLE"   // Transient store/network failure

	// Actor communication errors
	ErrActorTimeout = "ACTOR_TIMEOUT"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewUnauthenticatedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthenticated,
		Message: "Sign in required: " + reason,
	}
}

func NewAccessDeniedError(operation string, originalErr error) *AppError {
	return &AppError{
		Code:    ErrAccessDenied,
		Message: "Access denied: " + operation,
		Origin:  originalErr,
	}
}

func NewUnavailableError(operation string, originalErr error) *AppError {
	return &AppError{
		Code:    ErrUnavailable,
		Message: "Temporarily unavailable: " + operation,
		Origin:  originalErr,
	}
}

func NewActorTimeoutError(actorName string) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound:
		return 404
	case ErrInvalidInput:
		return 400
	case ErrUnauthenticated, ErrInvalidToken:
		return 401
	case ErrForbidden, ErrAccessDenied:
		return 403
	case ErrDuplicate:
		return 409
	case ErrUnavailable:
		return 503
	case ErrActorTimeout:
		return 500
	default:
		return 500
	}
}
