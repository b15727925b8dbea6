package phone

import "fmt"

// ValidationResult is the structured outcome of Validate. Callers decide
// whether an invalid number is rejected or coerced; Validate never panics or
// returns an error value.
type ValidationResult struct {
	Valid      bool
	Normalized string
	Error      string
}

// brazilDDDs whitelists the valid two-digit Brazilian area codes.
var brazilDDDs = map[string]bool{
	"11": true, "12": true, "13": true, "14": true, "15": true,
	"16": true, "17": true, "18": true, "19": true,
	"21": true, "22": true, "24": true,
	"27": true, "28": true,
	"31": true, "32": true, "33": true, "34": true, "35": true,
	"37": true, "38": true,
	"41": true, "42": true, "43": true, "44": true, "45": true,
	"46": true, "47": true, "48": true, "49": true,
	"51": true, "53": true, "54": true, "55": true,
	"61": true, "62": true, "63": true, "64": true, "65": true,
	"66": true, "67": true, "68": true, "69": true,
	"71": true, "73": true, "74": true, "75": true, "77": true, "79": true,
	"81": true, "82": true, "83": true, "84": true, "85": true,
	"86": true, "87": true, "88": true, "89": true,
	"91": true, "92": true, "93": true, "94": true, "95": true,
	"96": true, "97": true, "98": true, "99": true,
}

// Validate checks a local number against per-country rules. Brazil gets
// strict DDD and mobile-digit checks; every other country only the generic
// 8-15 digit length rule.
func Validate(phoneNumber, countryCode string) ValidationResult {
	digits := DigitsOnly(phoneNumber)

	if len(digits) < 8 || len(digits) > 15 {
		return ValidationResult{
			Normalized: digits,
			Error:      fmt.Sprintf("phone must have 8-15 digits, got %d", len(digits)),
		}
	}

	if countryCode == "55" {
		return validateBrazil(digits)
	}

	return ValidationResult{Valid: true, Normalized: digits}
}

func validateBrazil(digits string) ValidationResult {
	if len(digits) != 10 && len(digits) != 11 {
		return ValidationResult{
			Normalized: digits,
			Error:      fmt.Sprintf("brazilian numbers must have 10 or 11 digits, got %d", len(digits)),
		}
	}

	ddd := digits[:2]
	if !brazilDDDs[ddd] {
		return ValidationResult{
			Normalized: digits,
			Error:      fmt.Sprintf("invalid area code %s", ddd),
		}
	}

	// 11-digit numbers are mobile and must start with 9 after the DDD.
	if len(digits) == 11 && digits[2] != '9' {
		return ValidationResult{
			Normalized: digits,
			Error:      "11-digit mobile numbers must start with 9 after the area code",
		}
	}

	return ValidationResult{Valid: true, Normalized: digits}
}
