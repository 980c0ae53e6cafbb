package workflow

import (
	"errors"
	"fmt"
	"strings"

	domainwf "github.com/docuflow/report-routing/internal/domain/workflow"
)

// ErrorKind classifies engine failures for the transport layer
type ErrorKind string

const (
	ErrorNotFound           ErrorKind = "not_found"
	ErrorUnauthorized       ErrorKind = "unauthorized"
	ErrorForbidden          ErrorKind = "forbidden"
	ErrorInvalidInput       ErrorKind = "invalid_input"
	ErrorPersistenceFailure ErrorKind = "persistence_failure"
)

// Error is a structured engine error carrying the taxonomy kind and a
// human-readable message
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the taxonomy kind from an error. Unclassified errors read
// as persistence failures.
func KindOf(err error) ErrorKind {
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return ErrorPersistenceFailure
}

// NewError builds a classified error with a formatted message
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrorNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidInputError(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: ErrorInvalidInput, Message: fmt.Sprintf(format, args...), Err: err}
}

func persistenceError(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: ErrorPersistenceFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

// forbiddenError enumerates the roles that would have been allowed
func forbiddenError(allowed []domainwf.Role) *Error {
	names := make([]string, len(allowed))
	for i, role := range allowed {
		names[i] = role.String()
	}
	return &Error{
		Kind:    ErrorForbidden,
		Message: fmt.Sprintf("only %s can perform this action", strings.Join(names, ", ")),
	}
}
