package errors

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "load error type", errType: ErrTypeLoad, expected: "LOAD"},
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "cleaning error type", errType: ErrTypeCleaning, expected: "CLEANING"},
		{name: "empty group error type", errType: ErrTypeEmptyGroup, expected: "EMPTY_GROUP"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "render error type", errType: ErrTypeRender, expected: "RENDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    &AppError{Type: ErrTypeLoad, Message: "required fields missing"},
			wantMessage: "[LOAD] required fields missing",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeStorage,
				Message: "failed to create chart file",
				Cause:   fmt.Errorf("disk full"),
			},
			wantMessage: "[STORAGE] failed to create chart file: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Is(t *testing.T) {
	loadErr := NewLoadError("required fields missing", nil)
	wrapped := fmt.Errorf("load listings: %w", loadErr)

	assert.True(t, errors.Is(wrapped, ErrLoad))
	assert.False(t, errors.Is(wrapped, ErrCleaning))
	assert.True(t, errors.Is(NewEmptyGroupError("superhosts"), ErrEmptyGroup))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeLoad, appErr.Type)
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := NewStorageError("failed to open", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestAppError_WithContext(t *testing.T) {
	err := NewCleaningError("too many unparsable rows", nil).
		WithContext("field", "price").
		WithContext("failed", 12)

	assert.Equal(t, "price", err.Context["field"])
	assert.Equal(t, 12, err.Context["failed"])

	bare := &AppError{Type: ErrTypeConfig}
	bare.WithContext("key", "value")
	assert.Equal(t, "value", bare.Context["key"])
}

func TestParseError(t *testing.T) {
	_, cause := strconv.ParseFloat("abc", 64)
	err := NewParseError("price", 7, "$abc", cause)

	assert.Contains(t, err.Error(), `row 7: field "price": cannot parse "$abc"`)
	assert.True(t, errors.Is(err, ErrParsing))
	assert.False(t, errors.Is(err, ErrLoad))
	assert.True(t, errors.Is(err, strconv.ErrSyntax))

	noCause := NewParseError("Attrition", 2, "Maybe", nil)
	assert.Equal(t, `row 2: field "Attrition": cannot parse "Maybe"`, noCause.Error())
}
