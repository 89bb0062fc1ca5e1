package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestInFlight is returned when a submit is issued while another is outstanding.
	ErrRequestInFlight = errors.New("a completion request is already in progress")

	// ErrSuperseded indicates a completion arrived after the session was reset or reloaded.
	ErrSuperseded = errors.New("completion superseded by a newer session state")

	// ErrEvaluationDisabled is returned when rating or starring while evaluation is disabled.
	ErrEvaluationDisabled = errors.New("evaluation is disabled")

	// ErrRecordNotFound is returned when no record has the requested id.
	ErrRecordNotFound = errors.New("record not found")

	// ErrMissingCredential indicates the completion service credential is not configured.
	ErrMissingCredential = errors.New("API credential is not configured")

	// ErrModelNotSupported indicates no provider serves the requested model.
	ErrModelNotSupported = errors.New("model not supported")
)

// ValidationError reports an input field that could not be converted into a request.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
