// Package apperrors defines the closed error taxonomy shared by every
// domain component. Components return these errors; the HTTP surface is
// the single place that translates them into the Problem-Details envelope.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	New    = errors.New
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// Kind is one of the closed set of error kinds from the error taxonomy.
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindPlanLimit       Kind = "PLAN_LIMIT"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindDependency      Kind = "DEPENDENCY_UNAVAILABLE"
	KindIntegration     Kind = "INTEGRATION_REJECTED"
	KindInternal        Kind = "INTERNAL"
)

// Error is the concrete AppError implementation every component returns.
type Error struct {
	kind    Kind
	code    string // optional fine-grained sub-code, e.g. "slot-conflict"
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.kind, e.message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error { return e.err }
func (e *Error) Kind() Kind    { return e.kind }
func (e *Error) Code() string  { return e.code }
func (e *Error) Message() string {
	return e.message
}

// New constructors. Code is a short kebab sub-classifier used in the
// Problem-Details `type` URI (e.g. "slot-conflict", "idempotency-mismatch").
func Newf(kind Kind, code, message string) *Error {
	return &Error{kind: kind, code: code, message: message}
}

func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{kind: kind, code: code, message: message, err: cause}
}

// Of extracts an *Error from err if present.
func Of(err error) (*Error, bool) {
	var e *Error
	if As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, defaulting to KindInternal for plain errors.
func KindOf(err error) Kind {
	if e, ok := Of(err); ok {
		return e.kind
	}
	return KindInternal
}

func Validation(code, message string) *Error   { return Newf(KindValidation, code, message) }
func Unauthenticated(code, message string) *Error {
	return Newf(KindUnauthenticated, code, message)
}
func Forbidden(code, message string) *Error { return Newf(KindForbidden, code, message) }
func NotFound(code, message string) *Error  { return Newf(KindNotFound, code, message) }
func Conflict(code, message string) *Error  { return Newf(KindConflict, code, message) }
func PlanLimit(code, message string) *Error { return Newf(KindPlanLimit, code, message) }
func RateLimited(code, message string) *Error {
	return Newf(KindRateLimited, code, message)
}
func Dependency(code, message string, cause error) *Error {
	return Wrap(KindDependency, code, message, cause)
}
func Integration(code, message string) *Error {
	return Newf(KindIntegration, code, message)
}
func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, "internal", message, cause)
}
