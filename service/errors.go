package service

import (
	"errors"
	"fmt"
)

// ErrorCode classifies service errors for the transport layer
type ErrorCode string

const (
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	CodeAlreadyBound      ErrorCode = "ALREADY_BOUND"
	CodeValidation        ErrorCode = "VALIDATION"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeRateLimited       ErrorCode = "RATE_LIMITED"
)

// AppError is a typed service error carrying a code and optional details
type AppError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

func (e *AppError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (details: %v)", e.Code, e.Message, e.Details)
}

// Is matches on code so errors.Is(err, ErrNotFound) works for any NotFound error
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrNotFound          = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrInsufficientFunds = &AppError{Code: CodeInsufficientFunds, Message: "insufficient points"}
	ErrAlreadyBound      = &AppError{Code: CodeAlreadyBound, Message: "already bound"}
	ErrValidation        = &AppError{Code: CodeValidation, Message: "invalid request"}
	ErrUnauthorized      = &AppError{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden         = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrRateLimited       = &AppError{Code: CodeRateLimited, Message: "rate limited"}
)

// ErrBindingConflict is returned by the binding store on a unique violation
var ErrBindingConflict = errors.New("binding conflicts with an existing binding")

// ErrSweepInProgress is returned when a sweep is requested while one is running
var ErrSweepInProgress = errors.New("sweep already in progress")

func NotFound(format string, args ...any) error {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func InsufficientFunds(required, current int64) error {
	return &AppError{
		Code:    CodeInsufficientFunds,
		Message: "积分不足",
		Details: map[string]any{"required": required, "current": current},
	}
}

func AlreadyBound(message string) error {
	return &AppError{Code: CodeAlreadyBound, Message: message}
}

func Validation(format string, args ...any) error {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(message string) error {
	return &AppError{Code: CodeForbidden, Message: message}
}

func RateLimited(message string, details map[string]any) error {
	return &AppError{Code: CodeRateLimited, Message: message, Details: details}
}

// AsAppError extracts an AppError from err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
