package model

import (
	"errors"
	"fmt"
)

var (
	// ErrExternalUnavailable marks a collaborator that timed out, is not
	// configured or answered with a non-success status.
	ErrExternalUnavailable = errors.New("external collaborator unavailable")
	// ErrUnknownResponder is returned when a mutation references a unit id
	// that is not part of the fleet.
	ErrUnknownResponder = errors.New("unknown responder")
)

// MalformedResponseError reports structured output from a collaborator that
// could not be parsed or validated.
type MalformedResponseError struct {
	Component string
	Raw       string
	Err       error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Component, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
