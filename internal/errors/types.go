package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// MetagenError is a structured error type with context.
type MetagenError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Component string
	FilePath  string
}

// Error implements the error interface.
func (e *MetagenError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *MetagenError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison on type and code.
func (e *MetagenError) Is(target error) bool {
	var t *MetagenError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithComponent adds component context.
func (e *MetagenError) WithComponent(component string) *MetagenError {
	e.Component = component

	return e
}

// WithFile adds the file the error relates to.
func (e *MetagenError) WithFile(path string) *MetagenError {
	e.FilePath = path

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *MetagenError {
	return &MetagenError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewParseError creates an error for input that could not be decoded.
func NewParseError(code, message string, cause error) *MetagenError {
	return &MetagenError{
		Type:    ErrorTypeParse,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *MetagenError {
	return &MetagenError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *MetagenError {
	return &MetagenError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *MetagenError {
	return &MetagenError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsParseError checks if an error came from decoding input.
func IsParseError(err error) bool {
	return hasType(err, ErrorTypeParse)
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

func hasType(err error, errType ErrorType) bool {
	for err != nil {
		var me *MetagenError
		if !errors.As(err, &me) {
			return false
		}
		if me.Type == errType {
			return true
		}
		err = me.Cause
	}

	return false
}

// Common error codes.
const (
	ErrCodeInvalidDeclarations = "ERR_INVALID_DECLARATIONS"
	ErrCodeTreeTooDeep         = "ERR_TREE_TOO_DEEP"
	ErrCodeReadFailed          = "ERR_READ_FAILED"
	ErrCodeWriteFailed         = "ERR_WRITE_FAILED"
	ErrCodeSourceParse         = "ERR_SOURCE_PARSE"
	ErrCodeConfigInvalid       = "ERR_CONFIG_INVALID"
	ErrCodeComponentNotFound   = "ERR_COMPONENT_NOT_FOUND"
	ErrCodeDependencyCycle     = "ERR_DEPENDENCY_CYCLE"
	ErrCodeUnknownPhase        = "ERR_UNKNOWN_PHASE"
	ErrCodeInvalidCatalog      = "ERR_INVALID_CATALOG"
	ErrCodeMultiple            = "ERR_MULTIPLE_ERRORS"
	ErrCodeServerFailed        = "ERR_SERVER_FAILED"
)

// ErrComponentNotFound creates a component not found error.
func ErrComponentNotFound(name string) *MetagenError {
	return NewValidationError(
		ErrCodeComponentNotFound,
		"component not found: "+name,
	)
}
