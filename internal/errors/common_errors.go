package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeLoad       ErrorType = "LOAD"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeCleaning   ErrorType = "CLEANING"
	ErrTypeEmptyGroup ErrorType = "EMPTY_GROUP"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeRender     ErrorType = "RENDER"
)

// Sentinels for errors.Is. An AppError matches a sentinel of the same Type.
var (
	ErrLoad       = &AppError{Type: ErrTypeLoad}
	ErrParsing    = &AppError{Type: ErrTypeParsing}
	ErrCleaning   = &AppError{Type: ErrTypeCleaning}
	ErrEmptyGroup = &AppError{Type: ErrTypeEmptyGroup}
	ErrStorage    = &AppError{Type: ErrTypeStorage}
	ErrValidation = &AppError{Type: ErrTypeValidation}
	ErrConfig     = &AppError{Type: ErrTypeConfig}
	ErrRender     = &AppError{Type: ErrTypeRender}
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

// Is reports whether target is an AppError of the same type.
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

// Helper functions for common error types

// NewLoadError creates an error for a source that cannot be loaded,
// including a source missing required schema fields.
func NewLoadError(message string, cause error) *AppError {
	return NewAppError(ErrTypeLoad, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewCleaningError creates an error for a cleaning step that rejected too many rows
func NewCleaningError(message string, cause error) *AppError {
	return NewAppError(ErrTypeCleaning, message, cause)
}

// NewEmptyGroupError creates the soft error returned when an aggregation has no
// qualifying records
func NewEmptyGroupError(group string) *AppError {
	return NewAppError(ErrTypeEmptyGroup, fmt.Sprintf("no records for %s", group), nil)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewRenderError creates a chart rendering error
func NewRenderError(message string, cause error) *AppError {
	return NewAppError(ErrTypeRender, message, cause)
}

// ParseError describes a single field value that could not be converted to its
// target type. It is collected per record and never aborts a run on its own.
type ParseError struct {
	Field string
	Row   int
	Value string
	Cause error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("row %d: field %q: cannot parse %q: %v", e.Row, e.Field, e.Value, e.Cause)
	}
	return fmt.Sprintf("row %d: field %q: cannot parse %q", e.Row, e.Field, e.Value)
}

// Unwrap returns the underlying conversion error
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrParsing) match a ParseError
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Type == ErrTypeParsing
}

// NewParseError creates a per-record field parse error
func NewParseError(field string, row int, value string, cause error) *ParseError {
	return &ParseError{Field: field, Row: row, Value: value, Cause: cause}
}
