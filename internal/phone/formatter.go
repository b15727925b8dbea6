package phone

import (
	"fmt"
	"strings"
)

// Format renders a local number for display using per-country conventions.
// Unknown countries fall back to the raw digits. Formatting is purely a
// display concern and performs no validation.
func Format(localNumber, countryCode string) string {
	digits := DigitsOnly(localNumber)

	switch countryCode {
	case "55":
		return formatBrazil(digits)
	case "1":
		if len(digits) == 10 {
			return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
		}
	case "52":
		if len(digits) == 10 {
			return fmt.Sprintf("%s %s %s", digits[:2], digits[2:6], digits[6:])
		}
	case "353":
		if len(digits) >= 9 {
			return fmt.Sprintf("%s %s %s", digits[:2], digits[2:5], digits[5:])
		}
	case "81":
		if len(digits) == 10 {
			return fmt.Sprintf("%s-%s-%s", digits[:2], digits[2:6], digits[6:])
		}
	case "61":
		if len(digits) == 9 {
			return fmt.Sprintf("%s %s %s", digits[:3], digits[3:6], digits[6:])
		}
	}
	return digits
}

func formatBrazil(digits string) string {
	switch len(digits) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:7], digits[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:6], digits[6:])
	}
	return digits
}

// ToWhatsAppFormat returns the machine dialing form: digits only with the
// country code prepended unless the number already carries it.
func ToWhatsAppFormat(localNumber, countryCode string) string {
	digits := DigitsOnly(localNumber)
	code := DigitsOnly(countryCode)
	if code == "" {
		return digits
	}
	// Only treat the code as already present when the remainder is long
	// enough to be a full local number; a Brazilian number with DDD 55 must
	// still receive its +55 prefix.
	if strings.HasPrefix(digits, code) && len(digits)-len(code) >= 10 {
		return digits
	}
	return code + digits
}
