// Package apperror defines the domain error kinds shared by every layer.
//
// Services return *AppError values; handlers look at the wrapped sentinel
// with errors.Is to pick an HTTP status. Nothing in this package knows
// about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrBidTooLow marks a bid that does not beat the current price.
	// It also matches ErrConflict so generic conflict handling still applies.
	ErrBidTooLow = fmt.Errorf("bid too low: %w", ErrConflict)
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable error message
	Field   string // optional: input field that caused the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// ConflictMessage is Conflict with a caller-chosen message, for conflicts
// that are not about a single id (e.g. a taken username).
func ConflictMessage(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned when an operation needs a signed-in user.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// BidTooLow reports a rejected bid. minimum is the price the bid had to beat.
func BidTooLow(minimum string) *AppError {
	return &AppError{
		Err:     ErrBidTooLow,
		Message: fmt.Sprintf("bid must be greater than %s", minimum),
		Field:   "amount",
	}
}
