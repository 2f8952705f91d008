package fetch

import (
	"fmt"

	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

// Error is returned once every attempt at a URL has failed. URL never
// carries credentials.
type Error struct {
	URL        string
	StatusCode int // last HTTP status, 0 for network or decode failures
	Attempts   int
	Err        error
}

func newError(rawURL string, status, attempts int, err error) *Error {
	return &Error{
		URL:        observability.RedactURL(rawURL),
		StatusCode: status,
		Attempts:   attempts,
		Err:        err,
	}
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempts: %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s: failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}
