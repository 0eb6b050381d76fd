package models

import "strings"

// CountryCode is an ISO 3166-1 alpha-2 code for a jurisdiction where IBANs are issued.
type CountryCode string

const (
	CountryAE CountryCode = "AE"
	CountryDE CountryCode = "DE"
	CountryES CountryCode = "ES"
)

var supportedCountries = [...]CountryCode{CountryAE, CountryDE, CountryES}

// ParseCountryCode normalizes to upper case and rejects codes outside the supported set.
func ParseCountryCode(code string) (CountryCode, error) {
	normalized := CountryCode(strings.ToUpper(strings.TrimSpace(code)))
	for _, c := range supportedCountries {
		if c == normalized {
			return c, nil
		}
	}
	return "", NewUnsupportedCountryError(code)
}

// SupportedCountries returns a fresh copy of the supported set.
func SupportedCountries() []CountryCode {
	out := make([]CountryCode, len(supportedCountries))
	copy(out, supportedCountries[:])
	return out
}

func (c CountryCode) Code() string   { return string(c) }
func (c CountryCode) String() string { return string(c) }

func (c CountryCode) Equals(other CountryCode) bool { return c == other }
