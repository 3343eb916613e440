// Package errors defines the structured error type returned by the asset
// pipeline. Callers branch on the error category with the Is* predicates
// rather than on message text.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeCompile         ErrorType = "compile"
	ErrorTypeIO              ErrorType = "io"
	ErrorTypeConfig          ErrorType = "config"
	ErrorTypeInternal        ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeInvalidRoot    = "ERR_INVALID_ROOT"
	ErrCodeInvalidPath    = "ERR_INVALID_PATH"
	ErrCodePathTraversal  = "ERR_PATH_TRAVERSAL"
	ErrCodeInvalidPattern = "ERR_INVALID_PATTERN"
	ErrCodeFileNotFound   = "ERR_FILE_NOT_FOUND"
	ErrCodeCompileFailed  = "ERR_COMPILE_FAILED"
	ErrCodeMinifyFailed   = "ERR_MINIFY_FAILED"
	ErrCodeReadFailed     = "ERR_READ_FAILED"
	ErrCodeConfigInvalid  = "ERR_CONFIG_INVALID"
	ErrCodeInternalError  = "ERR_INTERNAL"
)

// PipelineError is a structured error type with context.
type PipelineError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Path    string
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PipelineError with the same type and code.
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath records the file or directory the error is about.
func (e *PipelineError) WithPath(path string) *PipelineError {
	e.Path = path

	return e
}

// NewInvalidArgumentError creates an invalid argument error.
func NewInvalidArgumentError(code, message string) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeInvalidArgument,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(code, message string) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewCompileError wraps a failure reported by a compiler or minifier.
func NewCompileError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeCompile,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func hasType(err error, typ ErrorType) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == typ
	}

	return false
}

// IsInvalidArgument reports whether err is an invalid argument error.
func IsInvalidArgument(err error) bool { return hasType(err, ErrorTypeInvalidArgument) }

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool { return hasType(err, ErrorTypeNotFound) }

// IsCompileError reports whether err came from a compiler or minifier.
func IsCompileError(err error) bool { return hasType(err, ErrorTypeCompile) }

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool { return hasType(err, ErrorTypeConfig) }

// Helper functions for common errors

// ErrInvalidRoot reports a project root that is missing or not a directory.
func ErrInvalidRoot(root string, cause error) *PipelineError {
	err := NewInvalidArgumentError(ErrCodeInvalidRoot, "project root must be an existing directory").
		WithPath(root)
	err.Cause = cause

	return err
}

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path, reason string) *PipelineError {
	return NewInvalidArgumentError(ErrCodeInvalidPath, "invalid path: "+reason).WithPath(path)
}

// ErrPathTraversal reports a path that escapes its base directory.
func ErrPathTraversal(path string) *PipelineError {
	return NewInvalidArgumentError(ErrCodePathTraversal, "path escapes the assets directory").
		WithPath(path)
}

// ErrFileNotFound reports an explicitly requested file that does not exist.
func ErrFileNotFound(path string) *PipelineError {
	return NewNotFoundError(ErrCodeFileNotFound, "asset file not found").WithPath(path)
}
