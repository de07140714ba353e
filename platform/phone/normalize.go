// Package phone normalizes listing phone numbers so NAP comparisons ignore
// punctuation.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Listings without a country prefix are assumed to be US numbers.
const defaultRegion = "US"

func parse(s string) (*phonenumbers.PhoneNumber, bool) {
	n, err := phonenumbers.Parse(s, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(n) {
		return nil, false
	}
	return n, true
}

// NormalizeE164 returns the E.164 form of input, or the trimmed input when it
// is not a dialable number.
func NormalizeE164(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	if n, ok := parse(s); ok {
		return phonenumbers.Format(n, phonenumbers.E164)
	}
	return s
}
