package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes aggregate failure semantics across the settlement engine.
type ErrorCode string

const (
	CodeInvalidParameter    ErrorCode = "invalid_parameter"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeNotFound            ErrorCode = "not_found"
	CodeInvalidState        ErrorCode = "invalid_state"
	CodeDuplicateOrder      ErrorCode = "duplicate_order"
	CodeCapacityExceeded    ErrorCode = "capacity_exceeded"
	CodePaymentMismatch     ErrorCode = "payment_mismatch"
	CodeCampaignNotEligible ErrorCode = "campaign_not_eligible"
	CodeAlreadyRequested    ErrorCode = "already_requested"
	CodeExpired             ErrorCode = "expired"
	CodeUnknownRequest      ErrorCode = "unknown_request"
	CodeNothingToClaim      ErrorCode = "nothing_to_claim"
	// CodeInsufficientFunds signals a bookkeeping bug, never a user error.
	CodeInsufficientFunds ErrorCode = "insufficient_funds"
	CodeConflict          ErrorCode = "conflict"
	CodeRetryable         ErrorCode = "retryable"
	CodeInternal          ErrorCode = "internal"
)

// Error is the canonical aggregate error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Errorf is NewError with a formatted message and no cause.
func Errorf(code ErrorCode, op, format string, args ...any) error {
	return NewError(code, op, fmt.Sprintf(format, args...), nil)
}

// Wrap annotates an existing error with aggregate error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or wrapped err) carries the given aggregate code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// CodeOf extracts the aggregate error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}
