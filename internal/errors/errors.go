package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an application error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrScopeEmpty       ErrorCode = "SCOPE_EMPTY"       // 422
	ErrCorpusLookup     ErrorCode = "CORPUS_LOOKUP"     // 500
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error.
func NewNotFound(identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewScopeEmpty creates a 422 error when a scope resolves to no ayahs.
func NewScopeEmpty() *AppError {
	return &AppError{
		Code:    ErrScopeEmpty,
		Status:  422,
		Message: "no content in scope",
	}
}

// NewCorpusLookup creates a 500 error when the corpus cannot supply an ayah.
func NewCorpusLookup(identifier string, err error) *AppError {
	return &AppError{
		Code:    ErrCorpusLookup,
		Status:  500,
		Message: fmt.Sprintf("corpus lookup failed for %s", identifier),
		Details: map[string]any{"identifier": identifier},
		Err:     err,
	}
}

// NewStoreUnavailable creates a 503 error when a store does not respond.
// Clients may retry.
func NewStoreUnavailable(op string, err error) *AppError {
	msg := fmt.Sprintf("store unavailable during %s", op)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &AppError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: msg,
		Details: map[string]any{"op": op},
		Err:     err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err, or any error it wraps, is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// StatusOf returns the HTTP status for err, 500 when it carries none.
func StatusOf(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return 500
}

// CodeOf returns the error code for err, ErrInternal when it carries none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}
