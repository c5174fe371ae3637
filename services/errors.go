package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorKind classifies a service failure for the transport layer
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindForbidden  ErrorKind = "forbidden"
	KindConflict   ErrorKind = "conflict"
	KindUpstream   ErrorKind = "upstream"
	KindTransition ErrorKind = "transition"
)

// Error is a structured service failure carrying a kind, a stable code and a message
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError reports missing or malformed input
func NewValidationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NewNotFoundError reports an unknown id or email
func NewNotFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// NewForbiddenError reports a failed role or ownership check
func NewForbiddenError(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

// NewConflictError reports a duplicate or a lost race
func NewConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// NewUpstreamError reports a failure of an external collaborator
func NewUpstreamError(code, message string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: message, Err: err}
}

// NewTransitionError reports an illegal state change
func NewTransitionError(code, message string) *Error {
	return &Error{Kind: KindTransition, Code: code, Message: message}
}

// KindOf returns the kind of a service error, or "" for anything else
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return ""
}

// IsKind reports whether err is a service error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// isDuplicateKeyError detects unique constraint violations (works with both PostgreSQL and SQLite)
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate") ||
		strings.Contains(errMsg, "unique constraint")
}

// notFoundOr maps gorm's record-not-found to a NotFound service error
func notFoundOr(err error, code, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError(code, message)
	}
	return err
}
