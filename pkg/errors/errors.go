// Package errors defines the categorized error type used across the import
// pipeline.
//
// Errors carry a category (configuration, parse, validation, store, internal),
// a machine-readable code, optional context values and a suggestion for the
// operator. Parse-category errors are recoverable (the offending row is
// skipped); configuration and store errors are fatal for the run and map to
// distinct process exit codes.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category represents a class of importer error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryParse      Category = "parse"
	CategoryValidation Category = "validation"
	CategoryStore      Category = "store"
	CategoryInternal   Category = "internal"
)

// Code represents a specific error condition within a category.
type Code string

const (
	// Configuration errors.
	CodeMissingConfig    Code = "missing_config"
	CodeInvalidConfig    Code = "invalid_config"
	CodeUnknownConverter Code = "unknown_converter"
	CodeUnknownFormat    Code = "unknown_format"

	// Parse errors (recoverable, row scoped).
	CodeInvalidDate   Code = "invalid_date"
	CodeInvalidAmount Code = "invalid_amount"
	CodeShortRow      Code = "short_row"

	// Validation errors.
	CodeMissingField Code = "missing_field"
	CodeInvalidField Code = "invalid_field"

	// Store errors (fatal for the run).
	CodeSourceUnavailable Code = "source_unavailable"
	CodeLedgerUnavailable Code = "ledger_unavailable"
	CodeWriteFailed       Code = "write_failed"

	// Internal errors.
	CodeUnexpected Code = "unexpected_error"
)

// ImportError is the error type produced by the importer.
type ImportError struct {
	Category   Category `json:"category"`
	Code       Code     `json:"code"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Context    Context  `json:"context,omitempty"`
	Cause      error    `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *ImportError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *ImportError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code appropriate for the error category.
func (e *ImportError) ExitCode() int {
	switch e.Category {
	case CategoryConfig:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryStore:
		return 4
	case CategoryInternal:
		return 5
	default:
		return 1
	}
}

// Recoverable reports whether the run may continue after this error. Only
// parse errors are recoverable: the offending row is skipped and logged.
func (e *ImportError) Recoverable() bool {
	return e.Category == CategoryParse
}

// WithContext adds a context value to the error.
func (e *ImportError) WithContext(key string, value interface{}) *ImportError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds an operator-facing suggestion to the error.
func (e *ImportError) WithSuggestion(suggestion string) *ImportError {
	e.Suggestion = suggestion
	return e
}

// stackTracer is the interface implemented by pkg/errors values.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new ImportError.
func New(category Category, code Code, message string) *ImportError {
	return &ImportError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with importer context.
func Wrap(err error, category Category, code Code, message string) *ImportError {
	if err == nil {
		return nil
	}

	return &ImportError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// ConfigError creates a configuration error. Configuration errors abort the
// run before any source file is touched.
func ConfigError(code Code, detail string, err error) *ImportError {
	message := fmt.Sprintf("configuration error: %s", detail)
	result := New(CategoryConfig, code, message)
	if err != nil {
		result = Wrap(err, CategoryConfig, code, message)
	}

	return result.WithSuggestion("check the conversion configuration file")
}

// RowError creates a parse error for a single source row. The row is skipped
// and the rest of the file proceeds.
func RowError(code Code, file string, line int, detail string, err error) *ImportError {
	message := fmt.Sprintf("row %d of %s: %s", line, file, detail)
	result := New(CategoryParse, code, message)
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	}

	return result.
		WithContext("file", file).
		WithContext("line", line)
}

// StoreError creates an external-store error. Store errors are fatal for the
// run; partially written state is safe to resume because re-runs are
// idempotent.
func StoreError(code Code, store, detail string, err error) *ImportError {
	message := fmt.Sprintf("%s store: %s", store, detail)
	result := New(CategoryStore, code, message)
	if err != nil {
		result = Wrap(err, CategoryStore, code, message)
	}

	return result.
		WithSuggestion("re-run the import once the store is reachable; processed files and ids are never duplicated").
		WithContext("store", store)
}

// ValidationError creates a validation error for a field value.
func ValidationError(code Code, field string, value interface{}) *ImportError {
	message := fmt.Sprintf("invalid value for %s: %v", field, value)
	return New(CategoryValidation, code, message).
		WithContext("field", field).
		WithContext("value", value)
}

// InternalError creates an internal error.
func InternalError(operation string, err error) *ImportError {
	message := fmt.Sprintf("internal error during %s", operation)
	result := New(CategoryInternal, CodeUnexpected, message)
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpected, message)
	}

	return result.WithContext("operation", operation)
}

// IsImportError checks if an error is an ImportError.
func IsImportError(err error) bool {
	_, ok := err.(*ImportError)
	return ok
}

// AsImportError extracts an ImportError from an error chain.
func AsImportError(err error) (*ImportError, bool) {
	var importErr *ImportError
	if errors.As(err, &importErr) {
		return importErr, true
	}
	return nil, false
}

// ExitCodeFor returns the exit code for any error value.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if importErr, ok := AsImportError(err); ok {
		return importErr.ExitCode()
	}
	return 1
}
