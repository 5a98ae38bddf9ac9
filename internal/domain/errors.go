package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures for API status mapping and event reporting.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindAcquisition  ErrorKind = "acquisition"
	KindParse        ErrorKind = "parse"
	KindLLM          ErrorKind = "llm"
	KindStorage      ErrorKind = "storage"
)

// Error carries a kind alongside a human-readable message. The wrapped cause
// is kept for logging but never sent to clients.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns only the client-safe message.
func (e *Error) Message() string { return e.Msg }

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func NotFoundf(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Unauthorizedf(format string, args ...any) *Error {
	return newError(KindUnauthorized, format, args...)
}

func Acquisitionf(format string, args ...any) *Error {
	return newError(KindAcquisition, format, args...)
}

func Parsef(format string, args ...any) *Error {
	return newError(KindParse, format, args...)
}

func LLMf(format string, args ...any) *Error {
	return newError(KindLLM, format, args...)
}

func Storagef(format string, args ...any) *Error {
	return newError(KindStorage, format, args...)
}

// WrapError attaches a kind and message to an underlying cause.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	e := newError(kind, format, args...)
	e.Err = err
	return e
}

// KindOf extracts the kind from an error chain; empty when untagged.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the client-safe message for an error chain. Untagged
// errors fall back to their full text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
