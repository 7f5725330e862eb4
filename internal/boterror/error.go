// Package boterror defines the error taxonomy shared by the bot runtime.
package boterror

import (
	"errors"
	"fmt"
)

type Code string

const (
	ConfigurationError Code = "CONFIGURATION_ERROR"
	InvalidArgument    Code = "INVALID_ARGUMENT"
	DialogNotFound     Code = "DIALOG_NOT_FOUND"
	StorageUnavailable Code = "STORAGE_UNAVAILABLE"
	UnhandledTurnError Code = "UNHANDLED_TURN_ERROR"
)

type Error struct {
	Code   Code
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("bot: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("bot: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds an *Error. err may be nil.
func New(code Code, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain, or "" when
// there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether any *Error in err's tree carries code.
func Is(err error, code Code) bool {
	return errors.Is(err, &Error{Code: code})
}

// Is matches another *Error by code so errors.Is works across wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t.Code == e.Code
}
