package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConfig       = errors.New("configuration error")
	ErrUpstream     = errors.New("upstream api error")
	ErrInternal     = errors.New("internal error")
)

// Error codes carried by AppError.
const (
	CodeConfig       = "CONFIG_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError builds a CONFIG_ERROR that matches ErrConfig.
func ConfigError(message string, cause error) error {
	if cause == nil {
		cause = ErrConfig
	} else {
		cause = fmt.Errorf("%w: %w", ErrConfig, cause)
	}
	return NewAppError(CodeConfig, message, cause)
}

// InvalidInputErrorf builds an INVALID_INPUT error that matches ErrInvalidInput.
func InvalidInputErrorf(format string, args ...any) error {
	return NewAppError(CodeInvalidInput, fmt.Sprintf(format, args...), ErrInvalidInput)
}
