package errors

import (
	"fmt"
)

// FetchError represents a failed upstream read. A fetch failure aborts the run,
// since reconciling against an incomplete source under-reports silently.
type FetchError struct {
	Source     string
	StatusCode int
	Body       string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Cause)
	}
	return fmt.Sprintf("%s fetch failed: status %d: %s", e.Source, e.StatusCode, truncate(e.Body, 512))
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Rejected reports whether the upstream refused the credentials
func (e *FetchError) Rejected() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// NewStatusError creates a fetch error for a non-2xx upstream response
func NewStatusError(source string, statusCode int, body []byte) *FetchError {
	return &FetchError{
		Source:     source,
		StatusCode: statusCode,
		Body:       string(body),
	}
}

// NewTransportError creates a fetch error for a request that never produced a response
func NewTransportError(source string, cause error) *FetchError {
	return &FetchError{
		Source: source,
		Cause:  cause,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
