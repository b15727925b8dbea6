package phone

import "strings"

// ParsedPhone is the result of splitting a raw number into calling code and
// local number. FullNumber is always CountryCode + LocalNumber.
type ParsedPhone struct {
	CountryCode string
	LocalNumber string
	FullNumber  string
	Country     string
}

// minLocalDigits is the smallest local number accepted when stripping a
// country code; shorter remainders are treated as false-positive prefixes.
const minLocalDigits = 8

// DigitsOnly strips every non-digit character from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse splits rawPhone into calling code and local number using the default
// table. It never fails: unknown codes fall through to a length heuristic and
// finally to Brazil.
func Parse(rawPhone string) ParsedPhone {
	return defaultTable.Parse(rawPhone)
}

// Parse walks the table longest-prefix-first and accepts the first code whose
// remainder still looks like a full local number. With no match, numbers of
// 12+ digits are assumed to carry an unknown country code before the trailing
// 10 digits; anything shorter is treated as a Brazilian local number.
func (t *Table) Parse(rawPhone string) ParsedPhone {
	digits := DigitsOnly(rawPhone)

	for _, cc := range t.codes {
		if !strings.HasPrefix(digits, cc.Code) {
			continue
		}
		local := digits[len(cc.Code):]
		if len(local) < minLocalDigits {
			continue
		}
		return ParsedPhone{
			CountryCode: cc.Code,
			LocalNumber: local,
			FullNumber:  digits,
			Country:     cc.Country,
		}
	}

	if len(digits) >= 12 {
		split := len(digits) - 10
		return ParsedPhone{
			CountryCode: digits[:split],
			LocalNumber: digits[split:],
			FullNumber:  digits,
		}
	}

	return ParsedPhone{
		CountryCode: "55",
		LocalNumber: digits,
		FullNumber:  "55" + digits,
		Country:     "BR",
	}
}
