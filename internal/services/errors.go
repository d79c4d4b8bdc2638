package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures for the transport layer.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindConflict
	KindAuth
	KindToken
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindToken:
		return "token"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified service failure. Message is safe to show to
// clients; Err holds the underlying cause, if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
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

func validationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func conflictError(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func authError(message string, cause error) error {
	return &Error{Kind: KindAuth, Message: message, Err: cause}
}

func tokenError(message string) error {
	return &Error{Kind: KindToken, Message: message}
}

func notFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func internalError(message string, cause error) error {
	return &Error{Kind: KindInternal, Message: message, Err: cause}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of err.
func MessageOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return "Internal server error"
}
