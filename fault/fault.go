// Package fault defines the error taxonomy shared across the engine.
//
// Every job-aborting error carries one of four kinds so that polling
// callers can distinguish bad input, a malformed document tree, a provider
// failure, and an exhausted schema-repair loop.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// InvalidArgument marks malformed request parameters: a required field
	// missing, a non-positive budget.
	InvalidArgument Kind = "invalid_argument"

	// Structure marks a document tree that violates an invariant: a missing
	// chunk group, an out-of-bounds substring reference.
	Structure Kind = "structure_error"

	// Generation marks a failed model invocation, propagated as-is.
	Generation Kind = "generation_failure"

	// Unprocessable marks a schema repair loop that exhausted its attempts.
	// Unlike the kinds above, a best-effort value exists.
	Unprocessable Kind = "unprocessable"
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidArgumentf builds an InvalidArgument error.
func InvalidArgumentf(format string, args ...any) *Error {
	return &Error{Kind: InvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Structuref builds a Structure error.
func Structuref(format string, args ...any) *Error {
	return &Error{Kind: Structure, Message: fmt.Sprintf(format, args...)}
}

// Generationf wraps a provider failure.
func Generationf(err error, format string, args ...any) *Error {
	return &Error{Kind: Generation, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, defaulting to Generation for
// unclassified failures (the only errors reaching the driver unclassified
// come from the invocation collaborator).
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Generation
}
