package configdef

import (
	"errors"
	"fmt"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidType     = errors.New("invalid configuration type")
	ErrInvalidValue    = errors.New("invalid configuration value")
	ErrUnknownOption   = errors.New("unknown configuration option")
	ErrDuplicateOption = errors.New("duplicate configuration option")
)

// Error describes a problem with a single configuration key.
// Kind is one of the Err* sentinels above and is what errors.Is matches on.
type Error struct {
	Kind   error
	Name   string
	Value  any
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %q", e.Kind, e.Name)
	if e.Value != nil {
		msg += fmt.Sprintf(" (value %v)", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, name string, value any, reason string) *Error {
	return &Error{Kind: kind, Name: name, Value: value, Reason: reason}
}
