package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Wrap wraps err in a MetagenError. Component and file context of an inner
// MetagenError are carried over.
func Wrap(err error, errType ErrorType, code, message string) *MetagenError {
	if err == nil {
		return nil
	}

	wrapped := &MetagenError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}

	var me *MetagenError
	if errors.As(err, &me) {
		wrapped.Component = me.Component
		wrapped.FilePath = me.FilePath
	}

	return wrapped
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *MetagenError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// WrapParse wraps an error as a parse error
func WrapParse(err error, code, message string) *MetagenError {
	return Wrap(err, ErrorTypeParse, code, message)
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *MetagenError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var ee *EnhancedError
	if errors.As(err, &ee) {
		return ee.Error()
	}

	return err.Error()
}

// ExtractCause returns the innermost error of a MetagenError chain.
func ExtractCause(err error) error {
	for err != nil {
		var me *MetagenError
		if !errors.As(err, &me) || me.Cause == nil {
			return err
		}
		err = me.Cause
	}
	return nil
}

// CollectErrors returns the non-nil errors of errs.
func CollectErrors(errs ...error) []error {
	var collected []error
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	return collected
}

// CombineErrors combines multiple errors into a single error
func CombineErrors(errs ...error) error {
	nonNil := CollectErrors(errs...)
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}

	messages := make([]string, 0, len(nonNil))
	for _, err := range nonNil {
		messages = append(messages, err.Error())
	}

	return &MetagenError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeMultiple,
		Message: fmt.Sprintf("%d errors occurred: %s", len(nonNil), strings.Join(messages, "; ")),
		Cause:   errors.Join(nonNil...),
	}
}
