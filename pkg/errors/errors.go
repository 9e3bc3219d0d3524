// Package errors provides the categorized error type used across the SOA
// matching service, with error codes, contextual fields, suggestions and
// exit-code mapping.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryProvider      ErrorCategory = "provider"
	CategoryValidation    ErrorCategory = "validation"
	CategoryMatching      ErrorCategory = "matching"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Provider errors
	CodeFetchFailed      ErrorCode = "fetch_failed"
	CodeStoreUnavailable ErrorCode = "store_unavailable"

	// Validation errors
	CodeInvalidLine   ErrorCode = "invalid_line"
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeMissingField  ErrorCode = "missing_field"

	// Matching errors
	CodeMatchingFailed ErrorCode = "matching_failed"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"

	// File errors
	CodeFileNotFound ErrorCode = "file_not_found"
	CodeFileRead     ErrorCode = "file_read"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"
)

// MatchingError is the base error type for all application errors
type MatchingError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *MatchingError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *MatchingError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *MatchingError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryMatching:
		return 5
	case CategoryProvider:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *MatchingError) WithContext(key string, value interface{}) *MatchingError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *MatchingError) WithSuggestion(suggestion string) *MatchingError {
	e.Suggestion = suggestion
	return e
}

// New creates a new MatchingError
func New(category ErrorCategory, code ErrorCode, message string) *MatchingError {
	return &MatchingError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with MatchingError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *MatchingError {
	if err == nil {
		return nil
	}

	return &MatchingError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// ProviderError creates an invoice-fetch related error
func ProviderError(code ErrorCode, vendorID, companyID string, err error) *MatchingError {
	var message string
	var suggestion string

	switch code {
	case CodeFetchFailed:
		message = fmt.Sprintf("failed to fetch invoices for vendor %s, company %s", vendorID, companyID)
		suggestion = "check the invoice store connectivity and the vendor/company identifiers"
	case CodeStoreUnavailable:
		message = "invoice store is unavailable"
		suggestion = "verify the data store is reachable and retry"
	default:
		message = fmt.Sprintf("provider error for vendor %s, company %s", vendorID, companyID)
		suggestion = "check the invoice data collaborator and try again"
	}

	var result *MatchingError
	if err != nil {
		result = Wrap(err, CategoryProvider, code, message)
	} else {
		result = New(CategoryProvider, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("vendor_id", vendorID).
		WithContext("company_id", companyID)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *MatchingError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidLine:
		message = fmt.Sprintf("invalid statement line: %v", value)
		suggestion = "check the line's invoice number, amount and currency"
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are valid decimal numbers (e.g., '1234.56')"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *MatchingError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// MatchingFailedError creates a matching-related error
func MatchingFailedError(operation string, err error) *MatchingError {
	message := fmt.Sprintf("matching failed during %s", operation)

	var result *MatchingError
	if err != nil {
		result = Wrap(err, CategoryMatching, CodeMatchingFailed, message)
	} else {
		result = New(CategoryMatching, CodeMatchingFailed, message)
	}

	return result.
		WithSuggestion("check the statement line data and matching tolerances").
		WithContext("operation", operation)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(setting string, value interface{}, err error) *MatchingError {
	message := fmt.Sprintf("invalid configuration for '%s': %v", setting, value)

	var result *MatchingError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, CodeInvalidConfig, message)
	} else {
		result = New(CategoryConfiguration, CodeInvalidConfig, message)
	}

	return result.
		WithSuggestion("check the configuration documentation for valid values").
		WithContext("setting", setting).
		WithContext("value", value)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *MatchingError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFileRead:
		message = fmt.Sprintf("failed to read file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *MatchingError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, line int, column string, value string, err error) *MatchingError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "check the data format and ensure it matches the expected structure"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", column, file)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "correct the data format or remove the invalid entry"
	default:
		message = fmt.Sprintf("parse error in file %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	var result *MatchingError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column).
		WithContext("value", value)
}

// Utility functions

// IsMatchingError checks if an error is a MatchingError
func IsMatchingError(err error) bool {
	_, ok := err.(*MatchingError)
	return ok
}

// AsMatchingError extracts a MatchingError from an error chain
func AsMatchingError(err error) (*MatchingError, bool) {
	var matchingErr *MatchingError
	if errors.As(err, &matchingErr) {
		return matchingErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a MatchingError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *MatchingError {
	if err == nil {
		return nil
	}

	if matchingErr, ok := AsMatchingError(err); ok {
		return matchingErr
	}

	return Wrap(err, category, code, message)
}

// FormatCategories renders per-category counts for log or report output
func FormatCategories(counts map[ErrorCategory]int) string {
	if len(counts) == 0 {
		return "no errors"
	}

	var parts []string
	for category, count := range counts {
		parts = append(parts, fmt.Sprintf("%s: %d", category, count))
	}
	return strings.Join(parts, ", ")
}
