package schema

import (
	"strconv"
	"strings"
	"unicode"
)

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsValidMatricule reports whether s is a 7-digit student number.
func IsValidMatricule(s string) bool {
	return len(s) == MatriculeLength && IsDigits(s)
}

// NormalizeID turns a raw cell value into the string form used for id comparison.
// Integral floats such as "1234567.0" or "1.234567e+06" are rendered as plain digits,
// since spreadsheets commonly store student numbers as numbers.
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || IsDigits(s) {
		return s
	}
	if !strings.ContainsFunc(s, func(r rune) bool { return r == '.' || r == 'e' || r == 'E' }) {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int64(f)) {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

// StudentsFromTitle strips the form title prefix that precedes the presenter names.
func StudentsFromTitle(title, prefix string) string {
	trimmed := strings.TrimSpace(title)
	if prefix != "" {
		trimmed = strings.TrimPrefix(trimmed, prefix)
		// Forms are sometimes titled without the trailing space after the colon.
		trimmed = strings.TrimPrefix(trimmed, strings.TrimRightFunc(prefix, unicode.IsSpace))
	}
	return strings.TrimSpace(trimmed)
}
