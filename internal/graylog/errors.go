package graylog

import (
	"errors"
	"fmt"
)

// AuthError signals that the log store rejected the configured
// credentials. It is surfaced distinctly so callers never retry it
// automatically.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("graylog authentication failed (status %d)", e.Status)
}

// TransportError signals a network-level failure or a non-401 non-2xx
// response. Polling callers treat it as retryable.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graylog %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("graylog %s failed: status %d", e.Op, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
