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
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupported        = errors.New("unsupported file type")
	ErrNoText             = errors.New("no text detected in file")
	ErrCapabilityDisabled = errors.New("capability disabled")
	ErrInternal           = errors.New("internal error")
	ErrValidation         = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func InvalidInputError(message string) error {
	return NewAppError("INVALID_INPUT", message, ErrInvalidInput)
}

func InvalidInputErrorf(format string, args ...interface{}) error {
	return InvalidInputError(fmt.Sprintf(format, args...))
}

func NotFoundError(message string) error {
	return NewAppError("NOT_FOUND", message, ErrNotFound)
}
