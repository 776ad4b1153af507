package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Field         string `json:"field,omitempty"`
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeDuplicateCode   = "DUPLICATE_CODE"
	ErrCodeOfferNotFound   = "OFFER_NOT_FOUND"
	ErrCodeNotEligible     = "NOT_ELIGIBLE"
	ErrCodeLimitExceeded   = "LIMIT_EXCEEDED"
	ErrCodeVersionConflict = "VERSION_CONFLICT"
	ErrCodeUnauthorised    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrOfferNotFound      = NewDomainError(ErrCodeOfferNotFound, "Offer not found")
	ErrVersionConflict    = NewDomainError(ErrCodeVersionConflict, "Offer was modified concurrently, retry the request")
	ErrInvalidCredentials = NewDomainError(ErrCodeUnauthorised, "Invalid username or password")
)

// ValidationError reports a malformed or missing field. Its message is
// safe to return to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a unique code that is already taken by another
// offer.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("duplicate_code: %s is already in use", e.Field)
	}
	return fmt.Sprintf("duplicate_code: %s %q is already in use", e.Field, e.Value)
}

// RejectReason explains why an offer was not admitted.
type RejectReason string

const (
	ReasonOfferInactive   RejectReason = "offer_inactive"
	ReasonOutsideWindow   RejectReason = "outside_window"
	ReasonUserNotEligible RejectReason = "user_not_eligible"
	ReasonNotApplicable   RejectReason = "not_applicable"
	ReasonBelowMinimum    RejectReason = "below_minimum"
	ReasonLimitExceeded   RejectReason = "limit_exceeded"
)

// Message returns the end-user explanation for the reason.
func (r RejectReason) Message() string {
	switch r {
	case ReasonOfferInactive:
		return "This offer is no longer active"
	case ReasonOutsideWindow:
		return "This offer is not valid at this time"
	case ReasonUserNotEligible:
		return "Your account is not eligible for this offer"
	case ReasonNotApplicable:
		return "This offer does not apply to the items in your cart"
	case ReasonBelowMinimum:
		return "Your purchase does not meet the minimum amount for this offer"
	case ReasonLimitExceeded:
		return "This offer has reached its usage limit"
	}
	return "This offer cannot be applied"
}

// EligibilityError is returned when an offer rejects a redemption during
// evaluation.
type EligibilityError struct {
	Reason RejectReason
}

func (e *EligibilityError) Error() string {
	return string(e.Reason)
}

// LimitScope names the counter a redemption ran out of.
type LimitScope string

const (
	ScopeTotal   LimitScope = "total"
	ScopeCode    LimitScope = "code"
	ScopeUser    LimitScope = "user"
	ScopeBalance LimitScope = "balance"
)

// LimitExceededError is the race-safe denial raised by the ledger when the
// conditional update finds no remaining capacity.
type LimitExceededError struct {
	Scope LimitScope
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limit_exceeded: %s usage limit reached", e.Scope)
}
