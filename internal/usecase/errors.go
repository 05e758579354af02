package usecase

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failed chat turn for callers.
type ErrorCode string

const (
	ErrorInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrorSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrorInternal        ErrorCode = "INTERNAL_ERROR"
)

// Error is returned by ChatService. Reason is a stable snake_case token
// safe to show to clients; Err is the underlying cause, if any.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return fmt.Sprintf("usecase: %s: %s: %v", e.Code, e.Reason, e.Err)
	default:
		return fmt.Sprintf("usecase: %s: %s", e.Code, e.Reason)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CodeOf returns the code carried by err, or ErrorInternal when err is not
// a usecase error.
func CodeOf(err error) ErrorCode {
	var uerr *Error
	if errors.As(err, &uerr) && uerr != nil {
		return uerr.Code
	}
	return ErrorInternal
}

func invalidInput(reason string) *Error {
	return &Error{Code: ErrorInvalidInput, Reason: reason}
}

func internal(reason string, err error) *Error {
	return &Error{Code: ErrorInternal, Reason: reason, Err: err}
}
