// Package phone normalizes and formats Ukrainian phone numbers for the
// checkout recipient form.
package phone

import (
	"strings"
)

// Digit group widths after the prefix. International numbers render as
// "+380 XX XXX XX XX", local ones as "0XX XXX XX XX".
var (
	intlGroups  = []int{2, 3, 2, 2}
	localGroups = []int{3, 3, 2, 2}
)

const (
	intlDigits  = 12 // 380 + 9 subscriber digits
	localDigits = 10 // 0 + 9 subscriber digits
)

// Digits strips everything except decimal digits from raw input.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format regroups a raw phone input for display. It always recomputes from
// the digit string, never from previously formatted output, so repeated
// formatting cannot compound separators. Partial input formats as far as
// the digits reach; excess digits are dropped.
func Format(raw string) string {
	digits := Digits(raw)
	if digits == "" {
		return ""
	}

	if strings.HasPrefix(digits, "380") {
		if len(digits) > intlDigits {
			digits = digits[:intlDigits]
		}
		if len(digits) == 3 {
			return "+380"
		}
		return "+380 " + group(digits[3:], intlGroups)
	}

	if len(digits) > localDigits {
		digits = digits[:localDigits]
	}
	return group(digits, localGroups)
}

// Valid reports whether the input is a complete Ukrainian phone number,
// either in international (380XXXXXXXXX) or local (0XXXXXXXXX) form.
func Valid(raw string) bool {
	digits := Digits(raw)
	switch {
	case strings.HasPrefix(digits, "380"):
		return len(digits) == intlDigits
	case strings.HasPrefix(digits, "0"):
		return len(digits) == localDigits
	default:
		return false
	}
}

// Normalize converts any valid input to the international wire form
// expected by the carrier ("+380XXXXXXXXX"). Invalid input returns the
// bare digit string unchanged.
func Normalize(raw string) string {
	digits := Digits(raw)
	switch {
	case strings.HasPrefix(digits, "380") && len(digits) == intlDigits:
		return "+" + digits
	case strings.HasPrefix(digits, "0") && len(digits) == localDigits:
		return "+380" + digits[1:]
	default:
		return digits
	}
}

// group splits digits into space-separated runs of the given widths.
func group(digits string, widths []int) string {
	var b strings.Builder
	rest := digits
	for _, w := range widths {
		if rest == "" {
			break
		}
		if w > len(rest) {
			w = len(rest)
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(rest[:w])
		rest = rest[w:]
	}
	return b.String()
}
