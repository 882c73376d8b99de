// Package phone canonicalizes phone numbers so that the same guest always
// maps to the same key, no matter how the number was typed into the contact.
package phone

import "strings"

// Normalizer converts raw phone strings to canonical form for a single
// local country code: a leading '+', the country code, then digits only.
type Normalizer struct {
	countryCode string
}

// NewNormalizer creates a Normalizer for the given country code.
// The code may be passed with or without a leading '+' (e.g. "972" or "+972").
func NewNormalizer(countryCode string) *Normalizer {
	return &Normalizer{countryCode: digitsOnly(countryCode)}
}

// CountryCode returns the configured country code digits.
func (n *Normalizer) CountryCode() string {
	return n.countryCode
}

// Canonical normalizes a raw phone string. Canonical forms are byte-equal
// iff the numbers identify the same subscriber:
//
//	"0501234567"     -> "+972501234567"
//	"972501234567"   -> "+972501234567"
//	"+972-50-123-45-67" -> "+972501234567"
//
// Returns "" when the input contains no digits at all.
func (n *Normalizer) Canonical(raw string) string {
	cleaned := clean(raw)
	if cleaned == "" || cleaned == "+" {
		return ""
	}

	switch {
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "0"):
		// National trunk prefix: replace the leading 0 with the country code.
		return "+" + n.countryCode + cleaned[1:]
	case strings.HasPrefix(cleaned, n.countryCode):
		return "+" + cleaned
	default:
		return "+" + n.countryCode + cleaned
	}
}

// Display re-hyphenates a canonical phone for the local country code.
// Purely cosmetic; never use the result as a comparison key.
func (n *Normalizer) Display(canonical string) string {
	prefix := "+" + n.countryCode
	if !strings.HasPrefix(canonical, prefix) {
		return canonical
	}
	local := canonical[len(prefix):]
	if len(local) < 7 {
		return canonical
	}
	return prefix + "-" + local[:2] + "-" + local[2:5] + "-" + local[5:]
}

// clean keeps digits and a leading '+', dropping everything else.
func clean(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && b.Len() == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
