// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "BR"

// NormalizeDigits reduces a phone number to its national digits.
// When the input parses as a valid number for the default region, the
// national significant number is returned; otherwise all non-digit
// characters are stripped and any leading country code is dropped.
func NormalizeDigits(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	if number, err := phonenumbers.Parse(trimmed, defaultRegion); err == nil && phonenumbers.IsValidNumber(number) {
		return phonenumbers.GetNationalSignificantNumber(number)
	}

	digits := onlyDigits(trimmed)
	if strings.HasPrefix(digits, "55") && len(digits) > 11 {
		digits = digits[2:]
	}
	return digits
}

// IsValidDigits reports whether a normalized phone number has a plausible
// national length (10 digits for landlines, 11 for mobiles).
func IsValidDigits(digits string) bool {
	if len(digits) < 10 || len(digits) > 11 {
		return false
	}
	return digits == onlyDigits(digits)
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
