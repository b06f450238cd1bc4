package errors

import (
	"errors"
	"fmt"
)

// SearchmarkError is the structured error type for searchmark.
// It carries enough context for logging and for CLI presentation.
type SearchmarkError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SearchmarkError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *SearchmarkError) Unwrap() error {
	return e.Cause
}

// Is matches another SearchmarkError by code.
func (e *SearchmarkError) Is(target error) bool {
	if t, ok := target.(*SearchmarkError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail and returns the error for chaining.
func (e *SearchmarkError) WithDetail(key, value string) *SearchmarkError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets the user hint and returns the error for chaining.
func (e *SearchmarkError) WithSuggestion(suggestion string) *SearchmarkError {
	e.Suggestion = suggestion
	return e
}

// New creates a SearchmarkError. Category, severity and retryability are
// derived from the code.
func New(code string, message string, cause error) *SearchmarkError {
	return &SearchmarkError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SearchmarkError from err, reusing its message.
func Wrap(code string, err error) *SearchmarkError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SearchmarkError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *SearchmarkError {
	return New(ErrCodeFileNotFound, message, cause)
}

// StorageError creates a telemetry storage error.
func StorageError(message string, cause error) *SearchmarkError {
	return New(ErrCodeStorageOpen, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *SearchmarkError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SearchmarkError {
	return New(ErrCodeInternal, message, cause)
}

// as finds the first SearchmarkError in err's chain.
func as(err error) (*SearchmarkError, bool) {
	var se *SearchmarkError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsRetryable reports whether err is a SearchmarkError marked retryable.
func IsRetryable(err error) bool {
	se, ok := as(err)
	return ok && se.Retryable
}

// IsFatal reports whether err has fatal severity.
func IsFatal(err error) bool {
	se, ok := as(err)
	return ok && se.Severity == SeverityFatal
}

// GetCode extracts the error code, or "" for other errors.
func GetCode(err error) string {
	if se, ok := as(err); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category, or "" for other errors.
func GetCategory(err error) Category {
	if se, ok := as(err); ok {
		return se.Category
	}
	return ""
}
