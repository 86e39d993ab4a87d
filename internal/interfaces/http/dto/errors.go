package dto

import (
	"net/http"

	"github.com/odyssey/backend/internal/domain/shared"
)

// Error codes reuse the domain codes so a DomainError maps onto the wire unchanged
const (
	ErrCodeValidation    = shared.CodeValidation
	ErrCodeAuthFailed    = shared.CodeAuthFailed
	ErrCodeNotFound      = shared.CodeNotFound
	ErrCodeAlreadyExists = shared.CodeAlreadyExists
	ErrCodeRateLimited   = shared.CodeRateLimited
	ErrCodeInternal      = shared.CodeInternal

	// ErrCodeBadRequest is used for malformed request bodies
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeAuthFailed:      http.StatusUnauthorized,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeAlreadyExists:   http.StatusConflict,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
