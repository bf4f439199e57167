package utils

import "strings"

// MinContactLen is the shortest masked contact accepted at the identify
// step: a 10-digit number renders as "(XX) XXXXX-XXX" (14 chars).
const MinContactLen = 14

const maxPhoneDigits = 11

// Digits strips everything but 0-9 from s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone applies the progressive input mask used for buyer contacts:
// digits are capped at 11, the first two become the area code and a dash
// splits the subscriber part after its fifth digit. Partial input stays
// partially masked, e.g. "119" -> "(11) 9".
func FormatPhone(s string) string {
	d := Digits(s)
	if len(d) > maxPhoneDigits {
		d = d[:maxPhoneDigits]
	}
	if len(d) <= 2 {
		return d
	}
	rest := d[2:]
	if len(rest) > 5 {
		rest = rest[:5] + "-" + rest[5:]
	}
	return "(" + d[:2] + ") " + rest
}

// ValidContact reports whether the masked form of s is long enough to be a
// usable contact number.
func ValidContact(s string) bool {
	return len(FormatPhone(s)) >= MinContactLen
}

// NormalizeContact reduces a contact string to its digits-only buyer key.
// Rows with no contact at all collapse into a shared "unknown" bucket.
func NormalizeContact(s string) string {
	d := Digits(s)
	if d == "" {
		return "unknown"
	}
	return d
}
