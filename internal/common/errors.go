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
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrMissingConfig = errors.New("missing configuration")
	ErrProvider      = errors.New("extraction provider error")
	ErrStorage       = errors.New("storage error")
	ErrUpstream      = errors.New("upstream fetch error")
)

const (
	CodeConfig        = "CONFIG_ERROR"
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeNotFound      = "NOT_FOUND"
	CodeStorage       = "STORAGE_ERROR"
	CodeUpstream      = "UPSTREAM_ERROR"
)

// MissingConfigPrefix starts the message of every missing-configuration error.
const MissingConfigPrefix = "Missing required environment variable: "

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// MissingConfigError names the configuration key that must be set.
func MissingConfigError(key string) *AppError {
	return NewAppError(CodeConfig, MissingConfigPrefix+key, ErrMissingConfig)
}

func IsMissingConfig(err error) bool {
	return errors.Is(err, ErrMissingConfig)
}

func InvalidInputError(message string) *AppError {
	return NewAppError(CodeInvalidInput, message, ErrInvalidInput)
}

func InvalidInputErrorf(format string, args ...any) *AppError {
	return InvalidInputError(fmt.Sprintf(format, args...))
}

func NotFoundError(message string) *AppError {
	return NewAppError(CodeNotFound, message, ErrNotFound)
}

// UpstreamError reports a failed fetch from a non-provider remote (remote images).
func UpstreamError(message string) *AppError {
	return NewAppError(CodeUpstream, message, ErrUpstream)
}

// ProviderError is a non-2xx answer from an extraction provider.
// Body is the provider's response text, kept verbatim for diagnostics.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (%d): %s", e.Provider, e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error {
	return ErrProvider
}

// Message returns the user-facing part of err: the AppError message when
// there is one, otherwise err.Error().
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
