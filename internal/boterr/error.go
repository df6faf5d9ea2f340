// Package boterr defines the closed set of error kinds used across the
// coordinator, exchange port, protection pipeline, and repository: an
// inspectable kind on top of bare errors, so callers can branch on error
// category with Is or KindOf.
package boterr

import (
	"errors"
	"fmt"
)

// Kind is one of a fixed set of error categories.
type Kind string

const (
	Config        Kind = "config"
	Database      Kind = "database"
	Exchange      Kind = "exchange"
	Strategy      Kind = "strategy"
	Backtest      Kind = "backtest"
	Bot           Kind = "bot"
	Network       Kind = "network"
	IO            Kind = "io"
	Parse         Kind = "parse"
	NotFound      Kind = "not_found"
	InvalidInput  Kind = "invalid_input"
	Streaming     Kind = "streaming"
	Serialization Kind = "serialization"
	DecimalKind   Kind = "decimal"
	NotImplemented Kind = "not_implemented"
)

// Error is a kinded error that wraps an optional underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a kinded error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds a kinded error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an existing error.
func Wrap(kind Kind, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Wrapf attaches a kind and a formatted message to an existing error.
func Wrapf(kind Kind, err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err (or anything it wraps) carries the given kind.
func Is(err error, kind Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}
