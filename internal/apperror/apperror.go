// Package apperror defines the coded errors that may cross the GraphQL boundary.
package apperror

import (
	"errors"
	"fmt"
)

// Code is the machine-readable error vocabulary exposed to API clients.
type Code string

const (
	CodeBadUserInput Code = "BAD_USER_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a coded error. Values are immutable; the With* helpers return copies.
type Error struct {
	Code    Code
	Message string
	Field   string

	internal error
}

var (
	ErrBadUserInput = &Error{Code: CodeBadUserInput, Message: "invalid input"}
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInternal     = &Error{Code: CodeInternal, Message: "internal error"}
)

func (e *Error) Error() string {
	if e.internal != nil && e.Code == CodeInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.internal)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.internal
}

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, apperror.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Extensions implements the graphql-go ExtendedError interface.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": string(e.Code)}
	if e.Field != "" {
		ext["field"] = e.Field
	}
	return ext
}

// WithMessage returns a copy of e with a client-facing message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// WithMessagef is WithMessage with formatting.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithField returns a copy of e naming the argument that caused it.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

// WithInternal returns a copy of e wrapping the underlying cause.
func (e *Error) WithInternal(err error) *Error {
	cp := *e
	cp.internal = err
	return &cp
}

// Internal returns the wrapped cause, if any.
func (e *Error) Internal() error {
	return e.internal
}

// UserFacing reports whether err carries a code that is safe to return to
// clients verbatim.
func UserFacing(err error) (*Error, bool) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return nil, false
	}
	switch appErr.Code {
	case CodeBadUserInput, CodeNotFound:
		return appErr, true
	default:
		return nil, false
	}
}

// loggedError marks an error whose detail has already been written to the
// server log, so the boundary does not log it again.
type loggedError struct {
	err error
}

func (e *loggedError) Error() string { return e.err.Error() }
func (e *loggedError) Unwrap() error { return e.err }

// MarkLogged wraps err so IsLogged reports true. The returned value is a
// pointer, so every holder of it shares one identity.
func MarkLogged(err error) error {
	if err == nil {
		return nil
	}
	if IsLogged(err) {
		return err
	}
	return &loggedError{err: err}
}

// IsLogged reports whether err (or anything it wraps) was marked by MarkLogged.
func IsLogged(err error) bool {
	var logged *loggedError
	return errors.As(err, &logged)
}
