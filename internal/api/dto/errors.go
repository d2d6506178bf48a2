package dto

// APIError represents an error response from the API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes used across the API.
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInternal      = "internal_error"
	ErrCodeValidation    = "validation_error"
	ErrCodeStateConflict = "state_conflict"
)

// NewAPIError creates a new API error.
func NewAPIError(code, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// NotFoundError creates a not found error for the given resource.
func NotFoundError(resource string) APIError {
	return NewAPIError(ErrCodeNotFound, resource+" not found")
}

// BadRequestError creates a bad request error with the given message.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// InternalError creates a generic internal server error.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternal, "an internal error occurred")
}

// ValidationError creates a validation error with the given message.
func ValidationError(message string) APIError {
	return NewAPIError(ErrCodeValidation, message)
}

// ConflictError creates an error for an operation the record's current
// state does not allow.
func ConflictError(message string) APIError {
	return NewAPIError(ErrCodeStateConflict, message)
}
