package calendly

import (
	"errors"
	"fmt"
)

// ErrorKind tags an APIError with the failure class it represents. The set
// is closed so callers can match exhaustively instead of walking an
// exception tree.
type ErrorKind string

const (
	// KindConfiguration means the client could not be constructed, e.g. no
	// API token was supplied via config or environment.
	KindConfiguration ErrorKind = "configuration"
	// KindAuthentication maps HTTP 401 (invalid or expired token).
	KindAuthentication ErrorKind = "authentication"
	// KindNotFound maps HTTP 404.
	KindNotFound ErrorKind = "not_found"
	// KindRateLimited maps HTTP 429.
	KindRateLimited ErrorKind = "rate_limited"
	// KindTimeout means the request exceeded the configured timeout.
	KindTimeout ErrorKind = "timeout"
	// KindConnection means the request never reached Calendly.
	KindConnection ErrorKind = "connection"
	// KindAPI covers every other provider-side failure, including any
	// 4xx/5xx not listed above and malformed response bodies.
	KindAPI ErrorKind = "api"
)

// APIError is the single error type returned by the Calendly client.
// Callers match on Kind; the underlying cause is preserved for logging.
type APIError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("calendly: %s (status=%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("calendly: %s", e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// IsKind reports whether err is a Calendly APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// IsAPIError reports whether err originated from the Calendly client.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func newError(kind ErrorKind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, cause error) *APIError {
	return &APIError{Kind: kind, Message: message, cause: cause}
}
