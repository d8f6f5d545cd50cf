package errors

import (
	"fmt"
)

// ScholiumError is the structured error type for Scholium.
// It provides rich context for error handling, logging, and user presentation.
type ScholiumError struct {
	// Code is the unique error code (e.g., "ERR_204_SNAPSHOT_CORRUPT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Embed, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *ScholiumError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ScholiumError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with ScholiumError.
func (e *ScholiumError) Is(target error) bool {
	if t, ok := target.(*ScholiumError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *ScholiumError) WithDetail(key, value string) *ScholiumError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *ScholiumError) WithSuggestion(suggestion string) *ScholiumError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ScholiumError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *ScholiumError {
	return &ScholiumError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf creates a new ScholiumError with a formatted message.
func Newf(code string, format string, args ...any) *ScholiumError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a ScholiumError from an existing error.
// The error's message becomes the ScholiumError message.
func Wrap(code string, err error) *ScholiumError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ScholiumError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *ScholiumError {
	return New(ErrCodeFileNotFound, message, cause)
}

// EmbedError creates an embedding service error.
func EmbedError(message string, cause error) *ScholiumError {
	return New(ErrCodeEmbedFailed, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *ScholiumError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ScholiumError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*ScholiumError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a ScholiumError.
// Returns empty string if not a ScholiumError.
func GetCode(err error) string {
	if se, ok := err.(*ScholiumError); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a ScholiumError.
// Returns empty string if not a ScholiumError.
func GetCategory(err error) Category {
	if se, ok := err.(*ScholiumError); ok {
		return se.Category
	}
	return ""
}
