// Package validation checks user-supplied IBAN strings: format, country,
// national length and mod-97 check digits.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"ibanmanager/internal/iban/generation"
	"ibanmanager/internal/iban/models"
	strutil "ibanmanager/pkg/string"
)

var ibanFormat = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]+$`)

// Result reports each check separately so callers can explain failures.
type Result struct {
	IBAN             string   `json:"iban"`
	Valid            bool     `json:"valid"`
	Errors           []string `json:"errors,omitempty"`
	FormatValid      bool     `json:"format_valid"`
	LengthValid      bool     `json:"length_valid"`
	CheckDigitsValid bool     `json:"check_digits_valid"`
}

// Service validates IBAN strings. It is stateless.
type Service struct{}

func New() *Service {
	return &Service{}
}

// Validate normalizes iban and runs every check. expectedCountry is optional.
func (s *Service) Validate(iban, expectedCountry string) Result {
	normalized := Normalize(iban)
	res := Result{IBAN: normalized}

	if !ibanFormat.MatchString(normalized) {
		res.Errors = append(res.Errors, "invalid IBAN format")
		return res
	}
	res.FormatValid = true

	country := normalized[:2]
	if expectedCountry != "" && !strings.EqualFold(country, expectedCountry) {
		res.Errors = append(res.Errors,
			fmt.Sprintf("IBAN country %s does not match expected %s", country, strings.ToUpper(expectedCountry)))
	}

	if expected := generation.ExpectedLength(country); expected > 0 && len(normalized) != expected {
		res.Errors = append(res.Errors,
			fmt.Sprintf("invalid IBAN length for %s: expected %d, got %d", country, expected, len(normalized)))
	} else {
		res.LengthValid = true
	}

	remainder, err := generation.Remainder(normalized[4:] + normalized[:4])
	if err == nil && remainder == 1 {
		res.CheckDigitsValid = true
	} else {
		res.Errors = append(res.Errors, "invalid IBAN check digits")
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// Require returns an invalid_iban error describing the first failed check.
func (s *Service) Require(iban, expectedCountry string) error {
	res := s.Validate(iban, expectedCountry)
	if res.Valid {
		return nil
	}
	return models.NewInvalidIBANError(res.Errors[0])
}

// Normalize strips whitespace and upper-cases.
func Normalize(iban string) string {
	return strings.ToUpper(strutil.StripSpaces(iban))
}

// FormatForDisplay normalizes iban and groups it by four characters.
func FormatForDisplay(iban string) string {
	return models.GroupByFour(Normalize(iban))
}
