package models

import (
	"fmt"
	"strings"

	dErrors "ibanmanager/pkg/domain-errors"
)

// UnsupportedCountryError reports a country code outside the supported set.
// Code is the value exactly as the caller supplied it.
type UnsupportedCountryError struct {
	Code      string
	Supported []CountryCode
}

func NewUnsupportedCountryError(code string) *UnsupportedCountryError {
	return &UnsupportedCountryError{Code: code, Supported: SupportedCountries()}
}

func (e *UnsupportedCountryError) Error() string {
	supported := make([]string, len(e.Supported))
	for i, c := range e.Supported {
		supported[i] = c.Code()
	}
	return fmt.Sprintf("unsupported country code %q (supported: %s)", e.Code, strings.Join(supported, ", "))
}

func (e *UnsupportedCountryError) Unwrap() error {
	return &dErrors.Error{Code: dErrors.CodeUnsupportedCountry, Message: e.Error()}
}

// InvalidStatusTransitionError reports a lifecycle move the transition graph forbids.
type InvalidStatusTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *InvalidStatusTransitionError) Unwrap() error {
	return &dErrors.Error{Code: dErrors.CodeInvalidStatusTransition, Message: e.Error()}
}

// Constructors for the remaining codes. They carry no extra detail beyond the message.

func NewInvalidIBANError(msg string) error {
	return dErrors.New(dErrors.CodeInvalidIBAN, msg)
}

func NewDuplicateIBANError(iban string) error {
	return dErrors.New(dErrors.CodeDuplicateIBAN, fmt.Sprintf("IBAN %s already exists", iban))
}

func NewIBANNotFoundError(ref string) error {
	return dErrors.New(dErrors.CodeIBANNotFound, fmt.Sprintf("IBAN %s not found", ref))
}

func NewAccountNotFoundError(accountID string) error {
	return dErrors.New(dErrors.CodeAccountNotFound, fmt.Sprintf("account %s not found", accountID))
}

func NewCurrencyNotAllowedError(currency string, country CountryCode) error {
	return dErrors.New(dErrors.CodeCurrencyNotAllowed,
		fmt.Sprintf("currency %s is not allowed for country %s", currency, country))
}

func NewIBANAllocationError(msg string, cause error) error {
	return &dErrors.Error{Code: dErrors.CodeIBANAllocationFailed, Message: msg, Err: cause}
}
