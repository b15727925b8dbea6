package phone

import "sort"

// CountryCode pairs an international calling code with its ISO country label.
type CountryCode struct {
	Code    string
	Country string
}

// Table is an immutable, ordered country calling-code lookup. Codes are kept
// longest-prefix-first so that e.g. "598" (Uruguay) is tried before "59" or
// "5", and "55" before "5". The table is fixed at build time; tests may
// construct narrower tables via NewTable.
type Table struct {
	codes []CountryCode
}

// NewTable builds a Table, re-sorting the entries longest-code-first so the
// ordering invariant holds regardless of declaration order.
func NewTable(codes []CountryCode) *Table {
	sorted := make([]CountryCode, len(codes))
	copy(sorted, codes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Code) > len(sorted[j].Code)
	})
	return &Table{codes: sorted}
}

// Codes returns the ordered calling codes.
func (t *Table) Codes() []CountryCode {
	return t.codes
}

var defaultTable = NewTable([]CountryCode{
	{Code: "598", Country: "UY"},
	{Code: "595", Country: "PY"},
	{Code: "591", Country: "BO"},
	{Code: "593", Country: "EC"},
	{Code: "353", Country: "IE"},
	{Code: "351", Country: "PT"},
	{Code: "55", Country: "BR"},
	{Code: "54", Country: "AR"},
	{Code: "56", Country: "CL"},
	{Code: "57", Country: "CO"},
	{Code: "51", Country: "PE"},
	{Code: "52", Country: "MX"},
	{Code: "58", Country: "VE"},
	{Code: "61", Country: "AU"},
	{Code: "81", Country: "JP"},
	{Code: "34", Country: "ES"},
	{Code: "44", Country: "GB"},
	{Code: "33", Country: "FR"},
	{Code: "49", Country: "DE"},
	{Code: "39", Country: "IT"},
	{Code: "86", Country: "CN"},
	{Code: "91", Country: "IN"},
	{Code: "1", Country: "US"},
	{Code: "7", Country: "RU"},
})

// DefaultTable returns the built-in calling-code table.
func DefaultTable() *Table {
	return defaultTable
}
