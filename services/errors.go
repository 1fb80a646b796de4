package services

import (
	"errors"
	"fmt"

	"github.com/upb/userauth-api/utils"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeBadRequest   ErrorType = "bad_request"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context.
// Payload, when set, is the response body sent to the client.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Payload interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Domain error variables. They carry no payload and must not be mutated.
var (
	ErrBadCredentials = NewDomainError(ErrorTypeBadRequest, "bad credentials", nil)
	ErrUnauthorized   = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInternal       = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// NewValidationFailure converts field failures into a validation error whose payload lists them
func NewValidationFailure(err *utils.ValidationError) *DomainError {
	return &DomainError{
		Type:    ErrorTypeValidation,
		Message: err.Message,
		Err:     err,
		Payload: err.Payload(),
	}
}

// NewConflict reports that field is already taken
func NewConflict(field string, err error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeConflict,
		Message: field + " already exists",
		Err:     err,
		Payload: utils.ErrorsPayload{Errors: []utils.FieldError{{Param: field}}},
	}
}

// Error type checking helper functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsBadRequestError checks if an error is a bad request error
func IsBadRequestError(err error) bool {
	return GetErrorType(err) == ErrorTypeBadRequest
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorPayload returns the payload of a domain error, or nil if not a domain error
func GetErrorPayload(err error) interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Payload
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
