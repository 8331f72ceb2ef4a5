package models

import "fmt"

// Error codes produced by the fetch engine. HTTP failures use the
// dynamic form "http_<status>" via HTTPErrorCode.
const (
	ErrCodeNoResponse = "no_response"
	ErrCodeTimeout    = "timeout"
	ErrCodeFetchError = "fetch_error"
	ErrCodeNoContent  = "no_content"
	ErrCodeInternal   = "internal_error"
)

// ScrapeError is a classified fetch failure. Retryable drives the
// broker's retry loop; everything else about the failure is opaque.
type ScrapeError struct {
	Message   string
	Code      string
	Retryable bool
}

func (e *ScrapeError) Error() string {
	return e.Message
}

// NewScrapeError builds a classified error.
func NewScrapeError(message, code string, retryable bool) *ScrapeError {
	return &ScrapeError{Message: message, Code: code, Retryable: retryable}
}

// HTTPErrorCode returns the error code for an HTTP status failure.
func HTTPErrorCode(status int) string {
	return fmt.Sprintf("http_%d", status)
}

// RetryableHTTPStatus reports whether an HTTP status is considered
// transient: request timeout, rate limiting, or server-side failure.
func RetryableHTTPStatus(status int) bool {
	switch status {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
