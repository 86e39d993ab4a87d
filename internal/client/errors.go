package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoSession is returned when a refresh is attempted without a refresh token
var ErrNoSession = errors.New("no session to refresh")

// APIError is a failure reported by the server in the response envelope
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

var errUnauthorizedAfterRefresh = errors.New("request rejected after refresh")
