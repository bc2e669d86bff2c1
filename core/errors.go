package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidOrExpiredToken is returned for contract links that are unknown, used or past their validity.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

// ConflictError reports an operation refused because of the current state of a resource.
type ConflictError struct {
	Message string
}

func NewConflictError(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func (err ConflictError) Error() string {
	return err.Message
}

// IntegrityError reports a removal blocked by dependent records.
type IntegrityError struct {
	Message  string
	Blockers []string
}

func NewIntegrityError(msg string, blockers ...string) error {
	return &IntegrityError{Message: msg, Blockers: blockers}
}

func (err IntegrityError) Error() string {
	if len(err.Blockers) == 0 {
		return err.Message
	}
	return err.Message + ": " + strings.Join(err.Blockers, ", ")
}

// ForbiddenError reports an action the principal is not allowed to perform.
type ForbiddenError struct {
	Message string
}

func NewForbiddenError(msg string) error {
	return &ForbiddenError{Message: msg}
}

func (err ForbiddenError) Error() string {
	return err.Message
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
