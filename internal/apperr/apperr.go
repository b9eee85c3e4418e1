// Package apperr carries the error taxonomy shared by the ledger, the match
// engine, the chat relay and the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by who can act on it.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindNotAuthorized Kind = "not_authorized"
	KindInternal      Kind = "internal"
)

// Error is a classified error with a stable machine-readable code.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a classified error.
func New(kind Kind, code string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Err: cause}
}

func Validation(code string, cause error) *Error { return New(KindValidation, code, cause) }

func NotFound(code string, cause error) *Error { return New(KindNotFound, code, cause) }

func Conflict(code string, cause error) *Error { return New(KindConflict, code, cause) }

func NotAuthorized(code string, cause error) *Error { return New(KindNotAuthorized, code, cause) }

func Internal(code string, cause error) *Error { return New(KindInternal, code, cause) }

// KindOf reports the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) && classified != nil {
		return classified.Kind
	}
	return KindInternal
}

// CodeOf reports the code of err, or "internal_error" for unclassified errors.
func CodeOf(err error) string {
	var classified *Error
	if errors.As(err, &classified) && classified != nil && classified.Code != "" {
		return classified.Code
	}
	return "internal_error"
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
