// Package privacy scrubs personal data from text before it reaches logs or stored error messages.
package privacy

import "regexp"

var (
	emailPattern   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern   = regexp.MustCompile(`(?:\+?1[-.\s]?)?(?:\([0-9]{3}\)\s?|\b[0-9]{3}[-.\s]?)[0-9]{3}[-.\s]?[0-9]{4}\b`)
	ssnPattern     = regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`)
	addressPattern = regexp.MustCompile(`(?i)\b\d+\s+(?:[a-z0-9]+\s+){1,4}(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|circle|cir|way)\b\.?`)
	cardPattern    = regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)
	ipPattern      = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
)

// Placeholders substituted for each detected category.
const (
	EmailToken   = "[EMAIL]"
	PhoneToken   = "[PHONE]"
	SSNToken     = "[SSN]"
	AddressToken = "[ADDRESS]"
	CardToken    = "[CARD]"
	IPToken      = "[IP]"
)

// ScrubEmail replaces email addresses.
func ScrubEmail(text string) string { return emailPattern.ReplaceAllString(text, EmailToken) }

// ScrubPhone replaces phone numbers.
func ScrubPhone(text string) string { return phonePattern.ReplaceAllString(text, PhoneToken) }

// ScrubSSN replaces social security numbers.
func ScrubSSN(text string) string { return ssnPattern.ReplaceAllString(text, SSNToken) }

// ScrubAddress replaces street addresses.
func ScrubAddress(text string) string { return addressPattern.ReplaceAllString(text, AddressToken) }

// ScrubCard replaces payment card numbers.
func ScrubCard(text string) string { return cardPattern.ReplaceAllString(text, CardToken) }

// ScrubIP replaces IPv4 addresses.
func ScrubIP(text string) string { return ipPattern.ReplaceAllString(text, IPToken) }

// Scrub applies every scrubber. Longer numeric shapes run first so a card
// number is never half-consumed by the phone pattern.
func Scrub(text string) string {
	if text == "" {
		return text
	}
	text = ScrubSSN(text)
	text = ScrubCard(text)
	text = ScrubEmail(text)
	text = ScrubIP(text)
	text = ScrubPhone(text)
	text = ScrubAddress(text)
	return text
}

// ScrubMap returns a copy of m with every string value scrubbed, recursing into
// nested maps and slices.
func ScrubMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = scrubValue(v)
	}
	return out
}

func scrubValue(v any) any {
	switch val := v.(type) {
	case string:
		return Scrub(val)
	case map[string]any:
		return ScrubMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = scrubValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = Scrub(item)
		}
		return out
	default:
		return v
	}
}

// SafeFileName reports whether a file name is free of obvious personal data.
func SafeFileName(name string) bool {
	return !emailPattern.MatchString(name) && !phonePattern.MatchString(name) && !ssnPattern.MatchString(name)
}
