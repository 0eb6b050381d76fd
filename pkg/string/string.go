package string

import (
	"strings"
	"unicode"
)

// TrimStrings trims surrounding whitespace in place.
func TrimStrings(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

// UpperStrings trims and upper-cases in place. Used for country, currency
// and bank codes, which are case-insensitive on input.
func UpperStrings(ss ...*string) {
	for _, s := range ss {
		*s = strings.ToUpper(strings.TrimSpace(*s))
	}
}

// StripSpaces removes every whitespace rune, so "DE89 3704 0044" becomes "DE8937040044".
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func ToSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 &&
			(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
