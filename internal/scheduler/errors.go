package scheduler

import (
	"errors"
	"fmt"
)

// ErrMissingParameter is returned when a time-based termination is requested
// with neither (or both of) a duration and an end time.
var ErrMissingParameter = errors.New("must specify exactly one of duration or end time")

// ValidationError reports a parameter that is missing or fails its
// allow-list pattern. It always names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

// UnknownActionError reports an action outside the supported set.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action: %s", e.Action)
}

// InvalidFormatError reports a malformed end-time string.
type InvalidFormatError struct {
	Input string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("time must be in HH:MM format, got %q", e.Input)
}
