// Package utils provides small shared helpers used across handlers and
// services: phone normalization and request parameter parsing.
package utils

import (
	"errors"
	"strings"
)

// ErrInvalidPhone is returned when a phone number cannot be normalized.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone canonicalizes a Ghanaian MSISDN: strips every non-digit
// character and rewrites a local leading zero to the country calling code
// (e.g. "024 123 4567" → "233241234567"). Numbers already carrying the
// calling code pass through unchanged.
func NormalizePhone(raw, callingCode string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		digits = callingCode + digits[1:]
	case strings.HasPrefix(digits, callingCode) && len(digits) == len(callingCode)+9:
		// already canonical
	default:
		return "", ErrInvalidPhone
	}
	return digits, nil
}
