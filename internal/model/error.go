package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Error codes carried by DomainError. Every mutation of the integrity layer
// fails with exactly one of these kinds.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodePersistenceConflict = "PERSISTENCE_CONFLICT"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError is the typed error returned by the order engine, the carousel
// allocator and the image catalog. Err holds the underlying cause when a
// store-level failure is being classified.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed or out-of-range input. Validation
// failures are raised before any write is attempted.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports an absent referenced entity.
func NewNotFoundError(entity string, id any) *DomainError {
	return NewDomainError(ErrCodeNotFound, fmt.Sprintf("%s %v not found", entity, id))
}

// NewInvalidTransitionError reports a status change the order state machine
// does not allow.
func NewInvalidTransitionError(from, to OrderStatus) *DomainError {
	return NewDomainError(ErrCodeInvalidTransition,
		fmt.Sprintf("cannot transition order from %q to %q", from, to))
}

// NewPersistenceConflict classifies a write rejected by the store, such as a
// constraint violation caused by a concurrent delete of a referenced row.
func NewPersistenceConflict(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodePersistenceConflict,
		Message: "write rejected by the store",
		Err:     err,
	}
}

// ErrorCode returns the domain error code of err, or "" when no DomainError
// is present in its chain.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return ErrorCode(err) == ErrCodeValidation }

// IsNotFound reports whether err is an absent-entity failure.
func IsNotFound(err error) bool { return ErrorCode(err) == ErrCodeNotFound }

// IsInvalidTransition reports whether err is a state machine violation.
func IsInvalidTransition(err error) bool { return ErrorCode(err) == ErrCodeInvalidTransition }

// IsPersistenceConflict reports whether err is a rejected write.
func IsPersistenceConflict(err error) bool { return ErrorCode(err) == ErrCodePersistenceConflict }

// Common domain errors
var (
	ErrEmptyOrderItems   = NewValidationError("order must contain at least one item")
	ErrInvalidQuantity   = NewValidationError("quantity must be greater than zero")
	ErrNegativeUnitPrice = NewValidationError("unit price must not be negative")
	ErrEmptyDerivatives  = NewValidationError("derivative batch must not be empty")
	ErrSlotOutOfRange    = NewValidationError("carousel position must be between 0 and %d", CarouselCapacity-1)
)
