package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared between the engine and the HTTP edge.
const (
	CodePermissionDenied       = "PERMISSION_DENIED"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeInvalidPricingState    = "INVALID_PRICING_STATE"
	CodeInvalidState           = "INVALID_STATE"
	CodeNotFound               = "NOT_FOUND"
	CodeTicketClosed           = "TICKET_CLOSED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodePartialFailure         = "PARTIAL_FAILURE"
	CodeStoreUnavailable       = "STORE_UNAVAILABLE"
	CodeEmptyBody              = "EMPTY_BODY"
	CodeSolutionAlreadySet     = "SOLUTION_ALREADY_SET"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeInternal               = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewPermissionDenied(message string) error {
	return NewDomainError(CodePermissionDenied, message, http.StatusForbidden, nil)
}

func NewInvalidTransition(current, requested string) error {
	return NewDomainError(CodeInvalidTransition, "status transition not permitted", http.StatusUnprocessableEntity, map[string]any{
		"current":   current,
		"requested": requested,
	})
}

func NewInvalidPricingState(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidPricingState, message, http.StatusUnprocessableEntity, details)
}

func NewInvalidState(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidState, message, http.StatusUnprocessableEntity, details)
}

func NewTicketClosed(ticketID string) error {
	return NewDomainError(CodeTicketClosed, "ticket is closed", http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

func NewConcurrentModification(resource string) error {
	return NewDomainError(CodeConcurrentModification, fmt.Sprintf("%s changed concurrently; re-read and retry", resource), http.StatusConflict, nil)
}

func NewPartialFailure(message string, err error) error {
	return &DomainError{
		Code:       CodePartialFailure,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewStoreUnavailable(err error) error {
	return &DomainError{
		Code:       CodeStoreUnavailable,
		Message:    "persistent store unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewEmptyBody() error {
	return NewDomainError(CodeEmptyBody, "body must not be blank", http.StatusBadRequest, nil)
}

func NewSolutionAlreadySet(ticketID string) error {
	return NewDomainError(CodeSolutionAlreadySet, "solution already recorded", http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if de, ok := NewStoreUnavailable(err).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// CodeOf extracts the domain error code, or empty string for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}
