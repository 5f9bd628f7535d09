package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	extensionPattern = regexp.MustCompile(`(?i)(ext|extension|x)\.?\s*\d+\s*$`)
	nonPhonePattern  = regexp.MustCompile(`[^\d+]`)
	countryPrefix    = regexp.MustCompile(`^\+(\d{1,3})`)
)

// NormalizePhone formats a raw phone value for the given country. The
// country argument has absolute priority over any prefix found in the value.
// Supported countries get their national convention; anything else gets
// "+{code} {digits}". Returns ok=false when the value has no digits.
func NormalizePhone(value, country string) (string, float64, bool) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return "", 0, false
	}
	raw = extensionPattern.ReplaceAllString(raw, "")

	cleaned := nonPhonePattern.ReplaceAllString(raw, "")

	// Strip an explicit dial prefix. The caller's country decides the
	// output format either way.
	if strings.HasPrefix(cleaned, "+") {
		switch {
		case strings.HasPrefix(cleaned, "+91"):
			cleaned = cleaned[3:]
		case strings.HasPrefix(cleaned, "+1"):
			cleaned = cleaned[2:]
		default:
			cleaned = countryPrefix.ReplaceAllString(cleaned, "")
		}
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cleaned)

	// Bare dial codes without a +.
	if len(digits) >= 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}
	digits = strings.TrimLeft(digits, "0")

	if digits == "" {
		return "", 0, false
	}

	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "IN":
		return formatIndian(digits)
	case "US", "":
		return formatUS(digits)
	default:
		return formatInternational(digits, country)
	}
}

// formatIndian renders "+91 XXXXXXXXXX", never with brackets.
func formatIndian(digits string) (string, float64, bool) {
	switch {
	case len(digits) >= 10:
		return "+91 " + digits[len(digits)-10:], 0.9, true
	case len(digits) >= 8:
		return "+91 " + strings.Repeat("0", 10-len(digits)) + digits, 0.8, true
	default:
		return "+91 " + digits, 0.7, true
	}
}

// formatUS renders "+1 (XXX) XXX-XXXX".
func formatUS(digits string) (string, float64, bool) {
	switch {
	case len(digits) == 10:
		return fmt.Sprintf("+1 (%s) %s-%s", digits[:3], digits[3:6], digits[6:]), 0.9, true
	case len(digits) > 10:
		last10 := digits[len(digits)-10:]
		return fmt.Sprintf("+1 (%s) %s-%s", last10[:3], last10[3:6], last10[6:]), 0.8, true
	default:
		return "+1 " + digits, 0.7, true
	}
}

// formatInternational renders "+{code} {digits}" for countries without a
// dedicated convention. The country argument may be a dial code ("44") or
// already carry the plus.
func formatInternational(digits, country string) (string, float64, bool) {
	code := strings.TrimPrefix(strings.TrimSpace(country), "+")
	conf := 0.7
	if len(digits) < 8 {
		conf = 0.6
	}
	return fmt.Sprintf("+%s %s", code, digits), conf, true
}
