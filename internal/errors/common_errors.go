package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeRateSourceUnavailable ErrorType = "RATE_SOURCE_UNAVAILABLE"
	ErrTypeMalformedRateSource   ErrorType = "MALFORMED_RATE_SOURCE"
	ErrTypeNoTableFound          ErrorType = "NO_TABLE_FOUND"
	ErrTypeMalformedRow          ErrorType = "MALFORMED_ROW"
	ErrTypeNumericCoercion       ErrorType = "NUMERIC_COERCION"
	ErrTypeUnknownCurrency       ErrorType = "UNKNOWN_CURRENCY"
	ErrTypeStorage               ErrorType = "STORAGE"
	ErrTypeNetwork               ErrorType = "NETWORK"
	ErrTypeConfig                ErrorType = "CONFIG"
	ErrTypeValidation            ErrorType = "VALIDATION"
)

// Sentinels for errors.Is. An AppError matches a sentinel of the same type.
var (
	ErrRateSourceUnavailable = &AppError{Type: ErrTypeRateSourceUnavailable, Message: "rate source unavailable"}
	ErrMalformedRateSource   = &AppError{Type: ErrTypeMalformedRateSource, Message: "malformed rate source"}
	ErrNoTableFound          = &AppError{Type: ErrTypeNoTableFound, Message: "no table found"}
	ErrMalformedRow          = &AppError{Type: ErrTypeMalformedRow, Message: "malformed row"}
	ErrNumericCoercion       = &AppError{Type: ErrTypeNumericCoercion, Message: "numeric coercion failed"}
	ErrUnknownCurrency       = &AppError{Type: ErrTypeUnknownCurrency, Message: "unknown currency"}
	ErrStorage               = &AppError{Type: ErrTypeStorage, Message: "storage failure"}
	ErrNetwork               = &AppError{Type: ErrTypeNetwork, Message: "network failure"}
	ErrConfig                = &AppError{Type: ErrTypeConfig, Message: "invalid configuration"}
	ErrValidation            = &AppError{Type: ErrTypeValidation, Message: "validation failed"}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the type of the first AppError in err's chain, or "" if none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Helper functions for common error types

// NewRateSourceUnavailableError reports a rate file that cannot be opened
func NewRateSourceUnavailableError(path string, cause error) *AppError {
	return NewAppError(ErrTypeRateSourceUnavailable, fmt.Sprintf("cannot open rate source %s", path), cause).
		WithContext("path", path)
}

// NewMalformedRateSourceError reports a bad record in the rate file
func NewMalformedRateSourceError(line int, message string) *AppError {
	return NewAppError(ErrTypeMalformedRateSource, fmt.Sprintf("line %d: %s", line, message), nil).
		WithContext("line", line)
}

// NewNoTableFoundError reports a document without a matching table
func NewNoTableFoundError(selector string) *AppError {
	return NewAppError(ErrTypeNoTableFound, fmt.Sprintf("no element matches %q", selector), nil).
		WithContext("selector", selector)
}

// NewMalformedRowError reports a data row that does not follow the extraction rule
func NewMalformedRowError(row int, message string) *AppError {
	return NewAppError(ErrTypeMalformedRow, fmt.Sprintf("row %d: %s", row, message), nil).
		WithContext("row", row)
}

// NewNumericCoercionError reports a metric value that is not a number
func NewNumericCoercionError(row int, entity, raw string, cause error) *AppError {
	return NewAppError(ErrTypeNumericCoercion,
		fmt.Sprintf("row %d (%s): cannot parse %q", row, entity, raw), cause).
		WithContext("row", row).
		WithContext("entity", entity).
		WithContext("raw", raw)
}

// NewUnknownCurrencyError reports a currency code missing from the rate table
func NewUnknownCurrencyError(code string) *AppError {
	return NewAppError(ErrTypeUnknownCurrency, fmt.Sprintf("no rate for currency %q", code), nil).
		WithContext("currency", code)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}
