package backend

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned before any I/O when a private operation is
// attempted without a bearer token.
var ErrAuthRequired = errors.New("operation requires an auth token")

// NetworkReason distinguishes a timed-out call from an unreachable backend.
type NetworkReason string

const (
	ReasonTimeout     NetworkReason = "timeout"
	ReasonUnreachable NetworkReason = "unreachable"
)

// NetworkError is a transport failure: no response was received. It is
// surfaced only after the retry policy has been exhausted.
type NetworkError struct {
	Reason NetworkReason
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (%s): %v", e.Reason, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ErrorEnvelope is the normalized form of a backend error response,
// regardless of how the backend nested its message.
type ErrorEnvelope struct {
	Status        int
	Kind          string
	Message       string
	BackendDetail string
}

func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("backend error (%s, status %d): %s", e.Kind, e.Status, e.Message)
}

// UnparsedBackendError means the backend returned an error whose shape no
// extractor recognized. The raw payload rides along for diagnosis.
type UnparsedBackendError struct {
	Status int
	Raw    map[string]any
}

func (e *UnparsedBackendError) Error() string {
	return fmt.Sprintf("backend returned status %d with unrecognized error shape", e.Status)
}
