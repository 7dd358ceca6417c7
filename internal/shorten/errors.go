package shorten

import "fmt"

// Cause classifies why a remote shortening call failed.
type Cause string

const (
	// CauseTimeout means the request deadline elapsed before a response arrived.
	CauseTimeout Cause = "timeout"
	// CauseTransport means the request failed below the application layer.
	CauseTransport Cause = "transport"
	// CauseApplication means the service answered with a non-success status.
	CauseApplication Cause = "application"
	// CauseMalformed means the response could not be decoded or lacked the
	// shortened URL field.
	CauseMalformed Cause = "malformed"
)

// RemoteError is returned by Client for any failed shortening or balance call.
// Callers inspect Cause to decide retry policy.
type RemoteError struct {
	Cause   Cause
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("shortening service: %s: %s", e.Cause, e.Message)
	}

	return fmt.Sprintf("shortening service: %s", e.Cause)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
