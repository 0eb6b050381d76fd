package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// IBAN lifecycle codes
	CodeInvalidIBAN             Code = "invalid_iban"
	CodeInvalidStatusTransition Code = "invalid_status_transition"
	CodeDuplicateIBAN           Code = "duplicate_iban"
	CodeIBANNotFound            Code = "iban_not_found"
	CodeAccountNotFound         Code = "account_not_found"
	CodeUnsupportedCountry      Code = "unsupported_country"
	CodeCurrencyNotAllowed      Code = "currency_not_allowed"
	CodeIBANAllocationFailed    Code = "iban_allocation_failed"
)

// statusHints holds the HTTP-style status each code suggests to outer layers.
// Kept as plain integers so this package stays transport-agnostic.
var statusHints = map[Code]int{
	CodeNotFound:                404,
	CodeBadRequest:              400,
	CodeInvalidInput:            400,
	CodeValidation:              400,
	CodeInternal:                500,
	CodeConflict:                409,
	CodeUnauthorized:            401,
	CodeForbidden:               403,
	CodeTimeout:                 504,
	CodeInvariantViolation:      400,
	CodeInvalidIBAN:             400,
	CodeInvalidStatusTransition: 400,
	CodeDuplicateIBAN:           409,
	CodeIBANNotFound:            404,
	CodeAccountNotFound:         404,
	CodeUnsupportedCountry:      400,
	CodeCurrencyNotAllowed:      400,
	CodeIBANAllocationFailed:    500,
}

// StatusHint returns the HTTP-style status suggested for a code.
// Unknown codes map to 500.
func StatusHint(code Code) int {
	if status, ok := statusHints[code]; ok {
		return status
	}
	return 500
}

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// StatusHint returns the HTTP-style status suggested for this error's code.
func (e *Error) StatusHint() int {
	return StatusHint(e.Code)
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		// Preserve the original domain code, update message
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
