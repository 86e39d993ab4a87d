package shared

// Error codes carried by DomainError. The HTTP layer maps each code to a status.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeAuthFailed    = "AUTHENTICATION_FAILED"
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeRateLimited   = "RATE_LIMITED"
	CodeInternal      = "INTERNAL_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrValidation) matches any validation failure.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a 400-class error with a field specific message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewAuthenticationError creates a 401-class error. Messages must stay generic.
func NewAuthenticationError(message string) *DomainError {
	return NewDomainError(CodeAuthFailed, message)
}

// NewInternalError creates a 500-class error. The message reaches the client
// as is, so callers keep details in the log.
func NewInternalError(message string) *DomainError {
	return NewDomainError(CodeInternal, message)
}

// Common domain errors
var (
	ErrValidation           = NewDomainError(CodeValidation, "Invalid input provided")
	ErrAuthenticationFailed = NewDomainError(CodeAuthFailed, "Authentication failed")
	ErrNotFound             = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists        = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrRateLimited          = NewDomainError(CodeRateLimited, "Too many requests, please try again later")
	ErrInternal             = NewDomainError(CodeInternal, "An unexpected error occurred")
)
