// Package errors defines the structured error types of the reconciliation
// core. Every error carries a category, a machine-readable code, a message
// and optional context; callers branch on codes through the Is* predicates
// instead of string matching.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory groups error codes by the subsystem that raises them.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryScope      ErrorCategory = "scope"
	CategoryConflict   ErrorCategory = "conflict"
	CategoryStorage    ErrorCategory = "storage"
	CategoryConfig     ErrorCategory = "configuration"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorCode identifies a specific failure within a category.
type ErrorCode string

const (
	// CodeNotFound: an id does not resolve within the caller's tenant
	// scope. Not retried; surfaced to the caller.
	CodeNotFound ErrorCode = "not_found"
	// CodeAlreadyLinked: a link endpoint was claimed concurrently. The
	// caller may retry against fresh state; never retried internally.
	CodeAlreadyLinked ErrorCode = "already_linked"
	// CodeInvalidScope: ids belong to a different tenant or account than
	// the operation's scope. Rejected, never silently corrected.
	CodeInvalidScope ErrorCode = "invalid_scope"
	// CodeInvalidFilter: malformed filter, e.g. end date before start.
	CodeInvalidFilter ErrorCode = "invalid_filter"
	// CodeInvalidTransition: an illegal status state-machine move.
	CodeInvalidTransition ErrorCode = "invalid_transition"

	CodeStorageFailure ErrorCode = "storage_failure"
	CodeInvalidConfig  ErrorCode = "invalid_config"
	CodeUnexpected     ErrorCode = "unexpected_error"
)

// Context carries additional key/value information about the error.
type Context map[string]interface{}

// Error is the base error type for the reconciliation core.
type Error struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new Error with a captured stack trace.
func New(category ErrorCategory, code ErrorCode, message string) *Error {
	return &Error{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with category and code context.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// Domain error constructors

// NotFound reports an id that does not resolve within the tenant scope.
func NotFound(entity, id string) *Error {
	return New(CategoryStorage, CodeNotFound,
		fmt.Sprintf("%s not found: %s", entity, id)).
		WithContext("entity", entity).
		WithContext("id", id)
}

// AlreadyLinked reports a link attempt against an endpoint whose status is
// no longer pendente.
func AlreadyLinked(entity, id string) *Error {
	return New(CategoryConflict, CodeAlreadyLinked,
		fmt.Sprintf("%s already linked: %s", entity, id)).
		WithContext("entity", entity).
		WithContext("id", id)
}

// InvalidScope reports an id that belongs to another tenant or account.
func InvalidScope(entity, id, scope string) *Error {
	return New(CategoryScope, CodeInvalidScope,
		fmt.Sprintf("%s %s does not belong to scope %s", entity, id, scope)).
		WithContext("entity", entity).
		WithContext("id", id).
		WithContext("scope", scope)
}

// InvalidFilter reports a malformed filter.
func InvalidFilter(err error) *Error {
	return Wrap(err, CategoryValidation, CodeInvalidFilter, "invalid filter")
}

// InvalidTransition reports an illegal status state-machine move.
func InvalidTransition(entity, id string, err error) *Error {
	return Wrap(err, CategoryValidation, CodeInvalidTransition,
		fmt.Sprintf("illegal status transition on %s %s", entity, id)).
		WithContext("entity", entity).
		WithContext("id", id)
}

// Storage wraps a failure of the underlying ledger store.
func Storage(operation string, err error) *Error {
	return Wrap(err, CategoryStorage, CodeStorageFailure,
		fmt.Sprintf("storage failure during %s", operation)).
		WithContext("operation", operation)
}

// Config reports an invalid configuration value.
func Config(setting string, err error) *Error {
	return Wrap(err, CategoryConfig, CodeInvalidConfig,
		fmt.Sprintf("invalid configuration for %s", setting)).
		WithContext("setting", setting)
}

// Predicates

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func hasCode(err error, code ErrorCode) bool {
	if e, ok := As(err); ok {
		return e.Code == code
	}
	return false
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsAlreadyLinked reports whether err carries CodeAlreadyLinked.
func IsAlreadyLinked(err error) bool { return hasCode(err, CodeAlreadyLinked) }

// IsInvalidScope reports whether err carries CodeInvalidScope.
func IsInvalidScope(err error) bool { return hasCode(err, CodeInvalidScope) }

// IsInvalidFilter reports whether err carries CodeInvalidFilter.
func IsInvalidFilter(err error) bool { return hasCode(err, CodeInvalidFilter) }
