package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrMalformedInput indicates an unparseable currency code, date or amount at the boundary.
var ErrMalformedInput = errors.New("malformed input")

// ErrProviderUnavailable indicates that a single rate provider could not answer.
// The resolver recovers from it by trying the next provider.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ErrInvalidRate indicates that a non-positive rate reached the rate store.
var ErrInvalidRate = errors.New("invalid rate")

// ErrNoDataAvailable indicates that every configured provider failed for a rate cell.
var ErrNoDataAvailable = errors.New("no data available")

// AppError carries a status code for collaborators that translate errors to a transport.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a status code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

// NewValidationError returns an AppError that matches ErrValidation.
func NewValidationError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message, Err: ErrValidation}
}

// NewInvalidRateError returns an AppError that matches ErrInvalidRate.
func NewInvalidRateError(message string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Message: message, Err: ErrInvalidRate}
}
