// Package generation builds IBANs from their raw components and computes
// ISO 13616 mod-97 check digits.
package generation

import (
	"fmt"
	"strconv"
	"strings"

	"ibanmanager/internal/iban/models"
	dErrors "ibanmanager/pkg/domain-errors"
)

// Components are the raw inputs of an IBAN.
type Components struct {
	CountryCode   string
	BankCode      string
	BranchCode    string
	AccountNumber string
}

// InvalidCharacterError reports a character that has no numeric value in mod-97 conversion.
type InvalidCharacterError struct {
	Char     rune
	Position int
}

func (e *InvalidCharacterError) Error() string {
	return fmt.Sprintf("invalid character %q at position %d", e.Char, e.Position)
}

func (e *InvalidCharacterError) Unwrap() error {
	return &dErrors.Error{Code: dErrors.CodeInvalidIBAN, Message: e.Error()}
}

type bbanBuilder func(c Components) (string, error)

// bbanLayouts holds the national BBAN builders, keyed by country code.
var bbanLayouts = map[string]bbanBuilder{
	"AE": func(c Components) (string, error) {
		return padLeft(c.BankCode, 3) + padLeft(c.AccountNumber, 16), nil
	},
	"DE": func(c Components) (string, error) {
		return padLeft(c.BankCode, 8) + padLeft(c.AccountNumber, 10), nil
	},
	"ES": buildSpanishBBAN,
}

// expectedLengths is the canonical total IBAN length per country.
// It covers more countries than can be generated so validation can check them.
var expectedLengths = map[string]int{
	"AE": 23,
	"DE": 22,
	"ES": 24,
	"GB": 22,
	"FR": 27,
	"IT": 27,
	"NL": 18,
	"BE": 16,
	"CH": 21,
	"AT": 20,
}

// Service generates IBANs. It holds no state and is safe for concurrent use.
type Service struct{}

func New() *Service {
	return &Service{}
}

// Generate returns countryCode + check digits + BBAN.
func (s *Service) Generate(c Components) (string, error) {
	country := strings.ToUpper(strings.TrimSpace(c.CountryCode))
	build, ok := bbanLayouts[country]
	if !ok {
		return "", models.NewUnsupportedCountryError(country)
	}
	bban, err := build(c)
	if err != nil {
		return "", err
	}
	check, err := CheckDigits(country, bban)
	if err != nil {
		return "", err
	}
	return country + check + bban, nil
}

// ExpectedLength returns the total IBAN length for code, or 0 when unknown.
func (s *Service) ExpectedLength(code string) int {
	return ExpectedLength(code)
}

// ExpectedLength returns the total IBAN length for code, or 0 when unknown.
func ExpectedLength(code string) int {
	return expectedLengths[strings.ToUpper(code)]
}

// CheckDigits computes the two ISO 13616 check digits for a BBAN.
func CheckDigits(country, bban string) (string, error) {
	remainder, err := Remainder(bban + country + "00")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d", 98-remainder), nil
}

// Remainder folds s modulo 97 one decimal digit at a time.
// Letters count as 10..35 regardless of case.
func Remainder(s string) (int, error) {
	remainder := 0
	for pos, r := range s {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			remainder = foldLetter(remainder, int(r-'A')+10)
		case r >= 'a' && r <= 'z':
			remainder = foldLetter(remainder, int(r-'a')+10)
		default:
			return 0, &InvalidCharacterError{Char: r, Position: pos}
		}
	}
	return remainder, nil
}

// foldLetter feeds the two decimal digits of a letter value into the fold.
func foldLetter(remainder, value int) int {
	remainder = (remainder*10 + value/10) % 97
	return (remainder*10 + value%10) % 97
}

var controlWeights = [10]int{1, 2, 4, 8, 5, 10, 9, 7, 3, 6}

// buildSpanishBBAN lays out bank(4) branch(4) control(2) account(10).
func buildSpanishBBAN(c Components) (string, error) {
	bank := padLeft(c.BankCode, 4)
	branch := "0000"
	if c.BranchCode != "" {
		branch = padLeft(c.BranchCode, 4)
	}
	control, err := spanishControlDigits(bank, branch, c.AccountNumber)
	if err != nil {
		return "", err
	}
	return bank + branch + control + padLeft(c.AccountNumber, 10), nil
}

// spanishControlDigits computes the two CCC control digits.
// The account checksum reads the first ten raw characters and treats missing
// positions as zero; extra characters are ignored.
func spanishControlDigits(bank, branch, account string) (string, error) {
	first, err := weightedControl("00" + bank + branch)
	if err != nil {
		return "", err
	}
	second, err := weightedControl(account)
	if err != nil {
		return "", err
	}
	return first + second, nil
}

func weightedControl(field string) (string, error) {
	sum := 0
	for i, w := range controlWeights {
		if i >= len(field) {
			break
		}
		ch := field[i]
		if ch < '0' || ch > '9' {
			return "", &InvalidCharacterError{Char: rune(ch), Position: i}
		}
		sum += int(ch-'0') * w
	}
	digit := (11 - sum%11) % 11
	if digit == 10 {
		return "1", nil
	}
	return strconv.Itoa(digit), nil
}

// padLeft zero-pads s to width. Longer input is returned unchanged.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
