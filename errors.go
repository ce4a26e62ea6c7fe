package sqlbind

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors.
var (
	// ErrInvalidState is returned when a filter is rendered or refined in a state
	// that the public composition contract never produces, e.g. an unresolved
	// storage type.
	ErrInvalidState = errors.New("sqlbind: invalid state")

	// ErrUnknownCalendarKind is returned when a temporal value is constructed
	// with a calendar kind outside the closed set.
	ErrUnknownCalendarKind = errors.New("sqlbind: unknown calendar kind")

	// ErrCalendarKindMismatch is returned when the bounds of a range have
	// different calendar kinds.
	ErrCalendarKindMismatch = errors.New("sqlbind: calendar kind mismatch")

	// ErrNegativeSize is returned when a negative size is passed where a
	// zero-or-positive size is required.
	ErrNegativeSize = errors.New("sqlbind: negative size")

	// ErrInvalidOperator is returned for operators or wildcard decorations
	// outside their closed sets.
	ErrInvalidOperator = errors.New("sqlbind: invalid operator")

	// ErrNotNarrow is returned when a narrow (non-Unicode) string holds
	// characters the narrow encoding cannot represent.
	ErrNotNarrow = errors.New("sqlbind: value is not representable in the narrow encoding")

	// ErrNotFound is returned when a query that requires a row returns none.
	ErrNotFound = errors.New("sqlbind: no rows in result")

	// ErrNotSingular is returned when a query that expects exactly one row
	// returns more than one.
	ErrNotSingular = errors.New("sqlbind: result not singular")
)

// ConstructionError is returned synchronously by constructors and composition
// calls that were given invalid input. Nothing is appended to a tree when a
// ConstructionError is produced.
type ConstructionError struct {
	Field string // Field the value was constructed for, if known
	Err   error  // One of the construction sentinels
}

// Error returns the error string.
func (e *ConstructionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("sqlbind: field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("sqlbind: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// NewConstructionError returns a new ConstructionError.
func NewConstructionError(field string, err error) *ConstructionError {
	return &ConstructionError{Field: field, Err: err}
}

// IsConstructionError returns true if the error is a ConstructionError.
func IsConstructionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConstructionError
	return errors.As(err, &e)
}

// InvalidStateError reports a defect: a filter rendered or mutated outside
// its lifecycle.
type InvalidStateError struct {
	Field  string
	Reason string
}

// Error returns the error string.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("sqlbind: invalid state for field %q: %s", e.Field, e.Reason)
}

// Is reports whether the target error matches ErrInvalidState.
func (e *InvalidStateError) Is(err error) bool {
	return err == ErrInvalidState
}

// NewInvalidStateError returns a new InvalidStateError.
func NewInvalidStateError(field, reason string) *InvalidStateError {
	return &InvalidStateError{Field: field, Reason: reason}
}

// IsInvalidState returns true if the error is an InvalidStateError.
func IsInvalidState(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidStateError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidState)
}

// NotFoundError represents a query that returned no rows where one was required.
type NotFoundError struct {
	label string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sqlbind: %s: no rows in result", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the queried source.
func (e *NotFoundError) Label() string {
	return e.label
}

// NewNotFoundError returns a new NotFoundError for the given source.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents a query that expected exactly one row but
// received several.
type NotSingularError struct {
	label string
	count int // Number of rows returned (-1 if unknown)
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("sqlbind: %s not singular (got %d rows, expected 1)", e.label, e.count)
	}
	return fmt.Sprintf("sqlbind: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Label returns the queried source.
func (e *NotSingularError) Label() string {
	return e.label
}

// Count returns the number of rows, or -1 if unknown.
func (e *NotSingularError) Count() int {
	return e.count
}

// NewNotSingularError returns a new NotSingularError for the given source.
func NewNotSingularError(label string) *NotSingularError {
	return &NotSingularError{label: label, count: -1}
}

// NewNotSingularErrorWithCount returns a new NotSingularError with the row count.
func NewNotSingularErrorWithCount(label string, count int) *NotSingularError {
	return &NotSingularError{label: label, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// AggregateError represents multiple errors collected during composition.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "sqlbind: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("sqlbind: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors so errors.Is and errors.As see all of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps an execution error with the statement that caused it.
type QueryError struct {
	Source string // Table or view being queried
	Op     string // Operation (e.g., "query", "single", "first")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("sqlbind: querying %s (%s): %v", e.Source, e.Op, e.Err)
	}
	return fmt.Sprintf("sqlbind: querying %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(source, op string, err error) *QueryError {
	return &QueryError{Source: source, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// PrivacyError represents a query denied by a privacy policy.
type PrivacyError struct {
	Source string // Table or view
	Rule   string // Rule that denied the query
}

// Error returns the error string.
func (e *PrivacyError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("sqlbind: privacy denied query on %s (rule: %s)", e.Source, e.Rule)
	}
	return fmt.Sprintf("sqlbind: privacy denied query on %s", e.Source)
}

// NewPrivacyError returns a new PrivacyError.
func NewPrivacyError(source, rule string) *PrivacyError {
	return &PrivacyError{Source: source, Rule: rule}
}

// IsPrivacyError returns true if the error is a PrivacyError.
func IsPrivacyError(err error) bool {
	if err == nil {
		return false
	}
	var e *PrivacyError
	return errors.As(err, &e)
}
