// Package fault defines the error taxonomy shared by the driver components.
//
// Every failure that crosses a component boundary is a *Error carrying a
// Code. The HTTP router translates codes into status codes; everything else
// just wraps and propagates. Nothing in the driver retries: the calling
// client owns retry policy.
package fault

import (
	"errors"
	"fmt"
)

// Code categorizes driver errors.
type Code string

const (
	// CodeValidation marks a missing, malformed or out-of-range parameter.
	CodeValidation Code = "VALIDATION"

	// CodeAlreadyRecording marks a start request while a session is active.
	CodeAlreadyRecording Code = "ALREADY_RECORDING"

	// CodeNotRecording marks a stop request while no session is active.
	CodeNotRecording Code = "NOT_RECORDING"

	// CodeNodeResolution marks a selector that matched zero or several nodes,
	// or a wait that timed out.
	CodeNodeResolution Code = "NODE_RESOLUTION"

	// CodeEncoder marks an external encoder process that failed.
	CodeEncoder Code = "ENCODER"
)

// Error is a categorized driver error.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Param names the offending request parameter (validation errors).
	Param string

	// State describes the current state (conflict errors).
	State string

	// Output holds captured combined stdout/stderr (encoder errors).
	Output string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Output != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Output)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a validation error for the given parameter.
func Validation(param, format string, args ...any) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
		Param:   param,
	}
}

// AlreadyRecording creates the error returned when a session is already active.
func AlreadyRecording() *Error {
	return &Error{
		Code:    CodeAlreadyRecording,
		Message: "Recording already in progress",
		State:   "recording",
	}
}

// NotRecording creates the error returned when no session is active.
func NotRecording() *Error {
	return &Error{
		Code:    CodeNotRecording,
		Message: "No recording in progress",
		State:   "idle",
	}
}

// NodeResolution creates a node resolution error for the given query.
func NodeResolution(format string, args ...any) *Error {
	return &Error{
		Code:    CodeNodeResolution,
		Message: fmt.Sprintf(format, args...),
	}
}

// Encoder creates an encoder error for a process that exited unsuccessfully.
func Encoder(tool string, output string, err error) *Error {
	return &Error{
		Code:    CodeEncoder,
		Message: fmt.Sprintf("%s failed", tool),
		Output:  output,
		Err:     err,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsAlreadyRecording reports whether err is an already-recording conflict.
func IsAlreadyRecording(err error) bool { return CodeOf(err) == CodeAlreadyRecording }

// IsNotRecording reports whether err is a not-recording conflict.
func IsNotRecording(err error) bool { return CodeOf(err) == CodeNotRecording }

// IsNodeResolution reports whether err is a node resolution error.
func IsNodeResolution(err error) bool { return CodeOf(err) == CodeNodeResolution }

// IsEncoder reports whether err is an encoder error.
func IsEncoder(err error) bool { return CodeOf(err) == CodeEncoder }
