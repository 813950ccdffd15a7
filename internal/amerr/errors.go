// Package amerr provides standardized error handling for alpha-migrations.
// All errors carry stable, machine-readable codes and structured context so
// a failure can be located (table, column, version) without re-running with
// elevated logging.
package amerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code represents a stable, machine-readable error code.
// Format: E{category}{number} where category is 1-4 and number is 001-999.
type Code string

// Error codes organized by category.
const (
	// Configuration errors (E1xxx) - surfaced before any schema-mutating
	// action is attempted, never retried.
	ErrConfigInvalid    Code = "E1001" // Config file is malformed or invalid
	ErrConfigUnknownKey Code = "E1002" // Unknown option or connection attribute
	ErrConfigMissing    Code = "E1003" // Required option is missing
	ErrConnection       Code = "E1004" // Database connection failed

	// Schema-consistency errors (E2xxx) - raised from the Table/Plan layer
	// before anything reaches the adapter.
	ErrSchemaInvalid   Code = "E2001" // Malformed column/index/foreign key definition
	ErrInvalidType     Code = "E2002" // Column type not supported by the adapter
	ErrColumnCount     Code = "E2003" // Foreign key column count mismatch
	ErrUnknownColumn   Code = "E2004" // Operation targets a nonexistent column
	ErrAmbiguousDrop   Code = "E2005" // Drop would remove a distinct composite index
	ErrPrimaryKeyClash Code = "E2006" // Conflicting primary key declarations

	// Migration-state errors (E3xxx) - the manager halts rather than guessing.
	ErrDuplicateVersion Code = "E3001" // Two migrations share one version token
	ErrMissingMigration Code = "E3002" // Ledger row without a migration script
	ErrBreakpointSet    Code = "E3003" // Rollback refused past a breakpoint
	ErrIrreversible     Code = "E3004" // Change-only migration cannot be inverted
	ErrMigrationFailed  Code = "E3005" // Migration execution aborted

	// Execution errors (E4xxx) - engine diagnostics pass through verbatim
	// as the cause; these codes only classify, never reword.
	ErrSQLExecution   Code = "E4001" // SQL statement failed to execute
	ErrSQLTransaction Code = "E4002" // Transaction operation failed
)

// Error is the standard error type for alpha-migrations.
type Error struct {
	code    Code
	message string
	context map[string]any
	cause   error
}

// Error returns the formatted error string.
// Format:
//
//	[E2003] foreign key column count must match referenced column count
//	  table: users
//	  columns: 2
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.code, e.message))

	// Context in sorted order for deterministic output
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n  %s: %v", k, e.context[k]))
		}
	}

	if e.cause != nil {
		b.WriteString(fmt.Sprintf("\n  cause: %v", e.cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error for errors.Unwrap compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether the target error matches this error by code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.code == targetErr.code
	}
	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the error message.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the error context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// With adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithTable adds table context to the error.
func (e *Error) WithTable(table string) *Error {
	return e.With("table", table)
}

// WithColumn adds column context to the error.
func (e *Error) WithColumn(name string) *Error {
	return e.With("column", name)
}

// WithVersion adds migration version context to the error.
func (e *Error) WithVersion(version string) *Error {
	return e.With("version", version)
}

// WithSQL adds SQL statement context to the error.
func (e *Error) WithSQL(sql string) *Error {
	return e.With("sql", sql)
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new Error that wraps an existing error.
// The cause is preserved verbatim; exact engine diagnostics matter to the caller.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return New(code, msg)
	}
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		cause:   err,
	}
}

// Wrapf creates a new Error that wraps an existing error with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

// GetErrorCode extracts the error code from an error chain.
// Returns empty string if no code is found.
func GetErrorCode(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}

// Is checks if an error has the specified code.
func Is(err error, code Code) bool {
	return GetErrorCode(err) == code
}
