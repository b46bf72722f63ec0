package fred

import "fmt"

// --- Sentinel errors ---

// ErrAPIKeyRequired is returned when no credential is configured and the
// client runs in credential-required mode.
var ErrAPIKeyRequired = fmt.Errorf("FRED API key required but not configured")

// ErrEmptyResponse is returned when the upstream replied 2xx with no payload.
var ErrEmptyResponse = fmt.Errorf("empty response from FRED API")

// ErrNoObservations is returned when the upstream payload is well-formed but
// the query matched zero observations (for example an out-of-range date
// filter).
var ErrNoObservations = fmt.Errorf("no observations found for the given series")

// --- Typed errors ---

// ArgumentError reports invalid caller input.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnreachableError reports a transport-level failure (DNS, connection
// refused, timeout) before any HTTP status was received.
type UnreachableError struct {
	URL string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("FRED API unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// DecodeError reports a 2xx response body that could not be decoded as JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed FRED response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
