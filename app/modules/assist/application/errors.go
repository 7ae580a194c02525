package assistservice

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when the backend answers without content.
	ErrEmptyResponse = errors.New("assist backend returned no content")
	// ErrMissingAPIKey is returned by constructors when no key is configured.
	ErrMissingAPIKey = errors.New("assist api key is not configured")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assist backend returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the failure is on the backend side and should
// count against the circuit breaker.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
